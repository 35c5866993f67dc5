package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pnewell/skip-foundation/pkg/rules"
	"github.com/pnewell/skip-foundation/prefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, prefs.DefaultSuite, cfg.Suite)
	assert.Equal(t, EngineMemory, cfg.Engine)
	assert.Equal(t, rules.EngineExpr, cfg.RuleEngine)
}

func TestParseReadsEnvironment(t *testing.T) {
	t.Setenv("FOUNDATION_DEFAULTS_SUITE", "app")
	t.Setenv("FOUNDATION_DEFAULTS_ENGINE", "sqlite")
	t.Setenv("FOUNDATION_DEFAULTS_SQLITE_PATH", "/tmp/p.db")
	t.Setenv("FOUNDATION_DEFAULTS_RULE_ENGINE", "cel")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, Config{
		Suite:      "app",
		Engine:     "sqlite",
		SQLitePath: "/tmp/p.db",
		RedisURL:   "redis://localhost:6379/0",
		RuleEngine: "cel",
	}, cfg)
}

func TestOpenMemorySharesSuite(t *testing.T) {
	ctx := context.Background()
	store, closeFn, err := Open(ctx, Config{Suite: "config-memory-test"})
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, store.SetInt(ctx, "n", 3))
	got, ok := prefs.Suite("config-memory-test").Integer(ctx, "n")
	require.True(t, ok)
	assert.Equal(t, 3, got)
}

func TestOpenFileEngine(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, closeFn, err := Open(ctx, Config{Suite: "app", Engine: EngineFile, Dir: dir})
	require.NoError(t, err)

	require.NoError(t, store.SetString(ctx, "k", "v"))
	require.NoError(t, closeFn())

	_, err = os.Stat(filepath.Join(dir, "app.yaml"))
	assert.NoError(t, err)
}

func TestOpenSQLiteEngineUsesDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, closeFn, err := Open(ctx, Config{Engine: EngineSQLite, Dir: dir, RuleEngine: rules.EngineCEL})
	require.NoError(t, err)
	defer closeFn()

	assert.Equal(t, prefs.DefaultSuite, store.SuiteName())
	require.NoError(t, store.SetBool(ctx, "flag", true))
	_, err = os.Stat(filepath.Join(dir, "preferences.db"))
	assert.NoError(t, err)
}

func TestOpenRejectsUnknownEngines(t *testing.T) {
	_, _, err := Open(context.Background(), Config{Engine: "etcd"})
	require.ErrorIs(t, err, ErrUnknownEngine)

	_, _, err = Open(context.Background(), Config{RuleEngine: "lua"})
	require.ErrorIs(t, err, rules.ErrUnknownEngine)
}
