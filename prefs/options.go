package prefs

import (
	"time"

	"github.com/pnewell/skip-foundation/pkg/activity"
	"github.com/pnewell/skip-foundation/pkg/rules"
	"go.uber.org/zap"
)

// Option configures a Store.
type Option func(*storeConfig)

type storeConfig struct {
	suite      string
	logger     *zap.Logger
	metrics    *Metrics
	evaluator  rules.Evaluator
	ruleLogger rules.Logger
	emitter    *activity.Emitter
	actor      activity.Actor
	now        func() time.Time
}

func applyOptions(opts []Option) storeConfig {
	cfg := storeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.suite == "" {
		cfg.suite = DefaultSuite
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.ruleLogger == nil {
		cfg.ruleLogger = rules.ZapLogger(cfg.logger)
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	if cfg.evaluator == nil {
		cfg.evaluator = rules.NewExprEvaluator(rules.ExprWithProgramCache(rules.NewMemoryCache()))
	}
	return cfg
}

// WithSuiteName labels the store's metrics and activity events.
func WithSuiteName(name string) Option {
	return func(cfg *storeConfig) {
		cfg.suite = name
	}
}

// WithLogger sets the logger used for degraded reads and dropped writes.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *storeConfig) {
		cfg.logger = logger
	}
}

// WithMetrics records reads and writes on m.
func WithMetrics(m *Metrics) Option {
	return func(cfg *storeConfig) {
		cfg.metrics = m
	}
}

// WithEvaluator replaces the expr evaluator used for Rule defaults.
func WithEvaluator(e rules.Evaluator) Option {
	return func(cfg *storeConfig) {
		cfg.evaluator = e
	}
}

// WithRuleLogger receives one event per Rule evaluation.
func WithRuleLogger(logger rules.Logger) Option {
	return func(cfg *storeConfig) {
		cfg.ruleLogger = logger
	}
}

// WithActivity emits preference.set / preference.removed events after each
// commit.
func WithActivity(emitter *activity.Emitter) Option {
	return func(cfg *storeConfig) {
		cfg.emitter = emitter
	}
}

// WithActor attributes activity events to actor when the call context
// carries none (see activity.ContextWithActor).
func WithActor(actor activity.Actor) Option {
	return func(cfg *storeConfig) {
		cfg.actor = actor
	}
}
