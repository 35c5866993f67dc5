package prefs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pnewell/skip-foundation/pkg/activity"
	"github.com/pnewell/skip-foundation/pkg/rules"
	"go.uber.org/zap"
)

// DefaultSuite is the suite bound by Standard.
const DefaultSuite = "defaults"

// Rule is a registered default computed on read by evaluating an
// expression against the current preference dictionary.
type Rule string

// Store is a typed view over an Engine. Register must not race with reads;
// everything else is as safe as the engine underneath.
type Store struct {
	engine   Engine
	cfg      storeConfig
	defaults map[string]Value
}

// New binds a Store to engine.
func New(engine Engine, opts ...Option) *Store {
	if engine == nil {
		engine = NewMemoryEngine()
	}
	return &Store{
		engine:   engine,
		cfg:      applyOptions(opts),
		defaults: map[string]Value{},
	}
}

var (
	standardOnce  sync.Once
	standardStore *Store
)

// Standard returns the process-wide store bound to DefaultSuite.
func Standard() *Store {
	standardOnce.Do(func() {
		standardStore = Suite(DefaultSuite)
	})
	return standardStore
}

// Suite returns a store over the process-wide memory engine named name.
// Stores for the same suite observe each other's writes.
func Suite(name string, opts ...Option) *Store {
	if name == "" {
		name = DefaultSuite
	}
	opts = append([]Option{WithSuiteName(name)}, opts...)
	return New(SuiteEngine(name), opts...)
}

// SuiteName reports the suite label the store was built with.
func (s *Store) SuiteName() string {
	return s.cfg.suite
}

// Engine returns the backing engine.
func (s *Store) Engine() Engine {
	return s.engine
}

// Register replaces the registration mapping. Values are converted with
// ValueOf; Rule values are evaluated whenever they are read.
func (s *Store) Register(defaults map[string]any) {
	next := make(map[string]Value, len(defaults))
	keys := make([]string, 0, len(defaults))
	for key, raw := range defaults {
		if value := ValueOf(raw); value.IsValid() {
			next[key] = value
			keys = append(keys, key)
		}
	}
	s.defaults = next
	sort.Strings(keys)
	input := s.eventInput(context.Background(), "")
	input.Keys = keys
	s.emit(context.Background(), activity.BuildDefaultsRegisteredEvent(input))
}

// SetInt stores value as a 32-bit int, or as a long when it does not fit.
func (s *Store) SetInt(ctx context.Context, key string, value int) error {
	return s.put(ctx, key, intValue(value))
}

// SetBool stores value as a bool.
func (s *Store) SetBool(ctx context.Context, key string, value bool) error {
	return s.put(ctx, key, BoolValue(value))
}

// SetDouble stores value as a 32-bit float. Precision beyond float32 is
// lost.
func (s *Store) SetDouble(ctx context.Context, key string, value float64) error {
	return s.put(ctx, key, FloatValue(float32(value)))
}

// SetString stores value as a string.
func (s *Store) SetString(ctx context.Context, key string, value string) error {
	return s.put(ctx, key, StringValue(value))
}

// SetURL stores the URL's string form.
func (s *Store) SetURL(ctx context.Context, key string, value *url.URL) error {
	return s.Set(ctx, key, value)
}

// SetData stores value as standard base64 text.
func (s *Store) SetData(ctx context.Context, key string, value []byte) error {
	return s.Set(ctx, key, value)
}

// SetTime stores value as RFC 3339 text.
func (s *Store) SetTime(ctx context.Context, key string, value time.Time) error {
	return s.Set(ctx, key, value)
}

// Set encodes value into a storable kind and commits it. Values with no
// encoding are not written; the empty edit is still applied and the error
// wraps ErrUnsupportedValue.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	stored, ok := encode(value)
	if ok {
		return s.put(ctx, key, stored)
	}
	s.cfg.logger.Warn("prefs: dropping unsupported value",
		zap.String("suite", s.cfg.suite),
		zap.String("key", key),
		zap.String("type", fmt.Sprintf("%T", value)),
	)
	err := s.engine.Edit().Apply(ctx)
	s.cfg.metrics.observeWrite(s.cfg.suite, KindInvalid.String(), ErrUnsupportedValue)
	unsupported := fmt.Errorf("%w: %T for key %q", ErrUnsupportedValue, value, key)
	if err != nil {
		return errors.Join(unsupported, fmt.Errorf("prefs: apply %q: %w", key, err))
	}
	return unsupported
}

// RemoveObject deletes key. Removing an absent key is not an error and
// emits no activity event.
func (s *Store) RemoveObject(ctx context.Context, key string) error {
	existed := s.stored(ctx, key)
	err := s.engine.Edit().Remove(key).Apply(ctx)
	s.cfg.metrics.observeWrite(s.cfg.suite, "remove", err)
	if err != nil {
		return fmt.Errorf("prefs: remove %q: %w", key, err)
	}
	if existed {
		s.emit(ctx, activity.BuildPreferenceRemovedEvent(s.eventInput(ctx, key)))
	}
	return nil
}

// stored reports whether the engine holds key. The read is skipped when no
// activity is emitted; read errors count as present.
func (s *Store) stored(ctx context.Context, key string) bool {
	if !s.cfg.emitter.Enabled() {
		return false
	}
	_, ok, err := s.engine.Get(ctx, key)
	if err != nil {
		s.cfg.logger.Debug("prefs: engine read failed",
			zap.String("suite", s.cfg.suite),
			zap.String("key", key),
			zap.Error(err),
		)
		return true
	}
	return ok
}

func (s *Store) put(ctx context.Context, key string, value Value) error {
	editor := s.engine.Edit()
	switch value.kind {
	case KindInt:
		editor.PutInt(key, int32(value.i))
	case KindLong:
		editor.PutLong(key, value.i)
	case KindFloat:
		editor.PutFloat(key, float32(value.f))
	case KindBool:
		editor.PutBool(key, value.b)
	case KindString:
		editor.PutString(key, value.s)
	default:
		return fmt.Errorf("%w: kind %s for key %q", ErrUnsupportedValue, value.kind, key)
	}
	err := editor.Apply(ctx)
	s.cfg.metrics.observeWrite(s.cfg.suite, value.kind.String(), err)
	if err != nil {
		return fmt.Errorf("prefs: apply %q: %w", key, err)
	}
	input := s.eventInput(ctx, key)
	input.Kind = value.kind.String()
	input.NewValue = value.Interface()
	s.emit(ctx, activity.BuildPreferenceSetEvent(input))
	return nil
}

// Object returns the stored value for key, else its registered default.
func (s *Store) Object(ctx context.Context, key string) (Value, bool) {
	value, ok, err := s.engine.Get(ctx, key)
	switch {
	case err != nil:
		s.cfg.logger.Debug("prefs: engine read failed",
			zap.String("suite", s.cfg.suite),
			zap.String("key", key),
			zap.Error(err),
		)
	case ok:
		s.cfg.metrics.observeRead(s.cfg.suite, sourceEngine)
		return value, true
	}
	return s.registered(ctx, key)
}

// ObjectOr is Object with a caller-supplied fallback.
func (s *Store) ObjectOr(ctx context.Context, key string, fallback any) Value {
	if value, ok := s.Object(ctx, key); ok {
		return value
	}
	return ValueOf(fallback)
}

func (s *Store) String(ctx context.Context, key string) (string, bool) {
	value, _ := s.Object(ctx, key)
	return value.AsString()
}

func (s *Store) Double(ctx context.Context, key string) (float64, bool) {
	value, _ := s.Object(ctx, key)
	return value.AsDouble()
}

func (s *Store) Integer(ctx context.Context, key string) (int, bool) {
	value, _ := s.Object(ctx, key)
	return value.AsInteger()
}

func (s *Store) Bool(ctx context.Context, key string) (bool, bool) {
	value, _ := s.Object(ctx, key)
	return value.AsBool()
}

func (s *Store) URL(ctx context.Context, key string) (*url.URL, bool) {
	value, _ := s.Object(ctx, key)
	return value.AsURL()
}

func (s *Store) Data(ctx context.Context, key string) ([]byte, bool) {
	value, _ := s.Object(ctx, key)
	return value.AsData()
}

// Time reads a timestamp written by SetTime.
func (s *Store) Time(ctx context.Context, key string) (time.Time, bool) {
	value, _ := s.Object(ctx, key)
	return value.AsTime()
}

// Dictionary returns the registered defaults overlaid with every stored
// entry.
func (s *Store) Dictionary(ctx context.Context) map[string]Value {
	out := make(map[string]Value, len(s.defaults))
	for key := range s.defaults {
		if value, ok := s.registered(ctx, key); ok {
			out[key] = value
		}
	}
	stored, err := s.engine.All(ctx)
	if err != nil {
		s.cfg.logger.Debug("prefs: engine listing failed",
			zap.String("suite", s.cfg.suite),
			zap.Error(err),
		)
	}
	for key, value := range stored {
		out[key] = value
	}
	return out
}

// RegisterChangeListener calls fn on the engine's notification goroutine
// after each committed change to key.
func (s *Store) RegisterChangeListener(key string, fn func(key string)) *Listener {
	listener := &Listener{id: uuid.New(), key: key}
	if fn == nil {
		return listener
	}
	listener.cancel = s.engine.Subscribe(func(changed string) {
		if changed == key {
			fn(changed)
		}
	})
	s.cfg.logger.Debug("prefs: listener registered",
		zap.String("suite", s.cfg.suite),
		zap.String("key", key),
		zap.String("listener", listener.ID()),
	)
	return listener
}

func (s *Store) registered(ctx context.Context, key string) (Value, bool) {
	value, ok := s.defaults[key]
	if !ok {
		s.cfg.metrics.observeRead(s.cfg.suite, sourceMissing)
		return Value{}, false
	}
	rule, isRule := value.other.(Rule)
	if value.kind != KindOther || !isRule {
		s.cfg.metrics.observeRead(s.cfg.suite, sourceRegistered)
		return value, true
	}
	result, err := rules.Evaluate(s.cfg.evaluator, s.cfg.ruleLogger, rules.Context{
		Snapshot: s.snapshot(ctx),
		Key:      key,
	}, string(rule))
	if err != nil {
		s.cfg.metrics.observeRead(s.cfg.suite, sourceMissing)
		return Value{}, false
	}
	derived := ValueOf(result)
	if !derived.IsValid() {
		s.cfg.metrics.observeRead(s.cfg.suite, sourceMissing)
		return Value{}, false
	}
	s.cfg.metrics.observeRead(s.cfg.suite, sourceRule)
	return derived, true
}

// snapshot is the dictionary visible to rules: stored entries over plain
// registered values. Other rules are not visible.
func (s *Store) snapshot(ctx context.Context) map[string]any {
	out := map[string]any{}
	for key, value := range s.defaults {
		if _, isRule := value.other.(Rule); isRule {
			continue
		}
		out[key] = plain(value)
	}
	stored, err := s.engine.All(ctx)
	if err != nil {
		s.cfg.logger.Debug("prefs: engine listing failed",
			zap.String("suite", s.cfg.suite),
			zap.Error(err),
		)
	}
	for key, value := range stored {
		out[key] = plain(value)
	}
	return out
}

func plain(value Value) any {
	if value.kind == KindURL && value.u != nil {
		return value.u.String()
	}
	return value.Interface()
}

// eventInput attributes an event to the context's actor, else the store's.
func (s *Store) eventInput(ctx context.Context, key string) activity.PreferenceEventInput {
	actor := s.cfg.actor
	if fromCtx, ok := activity.ActorFromContext(ctx); ok {
		actor = fromCtx
	}
	return activity.PreferenceEventInput{
		ActorID:    actor.ActorID,
		UserID:     actor.UserID,
		TenantID:   actor.TenantID,
		Suite:      s.cfg.suite,
		Key:        key,
		OccurredAt: s.cfg.now(),
	}
}

func (s *Store) emit(ctx context.Context, event activity.Event) {
	if !s.cfg.emitter.Enabled() {
		return
	}
	if err := s.cfg.emitter.Emit(ctx, event); err != nil {
		s.cfg.logger.Warn("prefs: activity emit failed",
			zap.String("suite", s.cfg.suite),
			zap.String("verb", event.Verb),
			zap.Error(err),
		)
	}
}
