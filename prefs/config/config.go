// Package config builds a prefs.Store from environment configuration.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/pnewell/skip-foundation/pkg/rules"
	"github.com/pnewell/skip-foundation/prefs"
	"github.com/pnewell/skip-foundation/prefs/engine/file"
	"github.com/pnewell/skip-foundation/prefs/engine/redis"
	"github.com/pnewell/skip-foundation/prefs/engine/sqlite"
)

// Engine kinds accepted in Config.Engine.
const (
	EngineMemory = "memory"
	EngineFile   = "file"
	EngineSQLite = "sqlite"
	EngineRedis  = "redis"
)

// ErrUnknownEngine is returned for an Engine value Open does not support.
var ErrUnknownEngine = errors.New("config: unknown preference engine")

// Config selects the engine and suite a store binds to.
type Config struct {
	Suite      string `env:"FOUNDATION_DEFAULTS_SUITE" envDefault:"defaults"`
	Engine     string `env:"FOUNDATION_DEFAULTS_ENGINE" envDefault:"memory"`
	Dir        string `env:"FOUNDATION_DEFAULTS_DIR"`
	SQLitePath string `env:"FOUNDATION_DEFAULTS_SQLITE_PATH"`
	RedisURL   string `env:"FOUNDATION_DEFAULTS_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RuleEngine string `env:"FOUNDATION_DEFAULTS_RULE_ENGINE" envDefault:"expr"`
}

// Parse loads Config from the environment.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	return cfg, nil
}

// StoreDir is where file and sqlite engines keep their data when no
// explicit location is configured.
func (c Config) StoreDir() (string, error) {
	if strings.TrimSpace(c.Dir) != "" {
		return c.Dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve config dir: %w", err)
	}
	return filepath.Join(base, "skip-foundation"), nil
}

// Open builds the configured engine and a Store over it. The returned close
// func releases the engine.
func Open(ctx context.Context, cfg Config, opts ...prefs.Option) (*prefs.Store, func() error, error) {
	suite := strings.TrimSpace(cfg.Suite)
	if suite == "" {
		suite = prefs.DefaultSuite
	}
	evaluator, err := rules.New(cfg.RuleEngine, rules.NewMemoryCache(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	opts = append([]prefs.Option{prefs.WithSuiteName(suite), prefs.WithEvaluator(evaluator)}, opts...)

	engine, closer, err := openEngine(ctx, cfg, suite)
	if err != nil {
		return nil, nil, err
	}
	return prefs.New(engine, opts...), closer, nil
}

func openEngine(ctx context.Context, cfg Config, suite string) (prefs.Engine, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(strings.TrimSpace(cfg.Engine)) {
	case "", EngineMemory:
		return prefs.SuiteEngine(suite), noop, nil
	case EngineFile:
		dir, err := cfg.StoreDir()
		if err != nil {
			return nil, nil, err
		}
		engine, err := file.Open(file.SuitePath(dir, suite))
		if err != nil {
			return nil, nil, err
		}
		return engine, engine.Close, nil
	case EngineSQLite:
		path := cfg.SQLitePath
		if strings.TrimSpace(path) == "" {
			dir, err := cfg.StoreDir()
			if err != nil {
				return nil, nil, err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("config: create %s: %w", dir, err)
			}
			path = filepath.Join(dir, "preferences.db")
		}
		engine, err := sqlite.Open(path, suite)
		if err != nil {
			return nil, nil, err
		}
		return engine, engine.Close, nil
	case EngineRedis:
		client, err := redis.Dial(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		engine, err := redis.Open(ctx, client, suite)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return engine, func() error {
			return errors.Join(engine.Close(), client.Close())
		}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownEngine, cfg.Engine)
	}
}
