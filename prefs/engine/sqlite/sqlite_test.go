package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pnewell/skip-foundation/prefs"
	"github.com/pnewell/skip-foundation/prefs/enginetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T, path, suite string) *Engine {
	t.Helper()
	engine, err := Open(path, suite)
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

func TestContract(t *testing.T) {
	enginetest.Run(t, func(t *testing.T) prefs.Engine {
		return openTemp(t, filepath.Join(t.TempDir(), "prefs.db"), "suite")
	})
}

func TestSuitesAreIsolated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.db")
	a := openTemp(t, path, "a")
	require.NoError(t, a.Edit().PutInt("k", 1).Apply(ctx))
	require.NoError(t, a.Close())

	b := openTemp(t, path, "b")
	_, ok, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	all, err := b.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.db")
	first := openTemp(t, path, "suite")
	require.NoError(t, first.Edit().PutLong("big", 1<<45).PutBool("flag", true).Apply(ctx))
	require.NoError(t, first.Close())

	second := openTemp(t, path, "suite")
	got, ok, err := second.Get(ctx, "big")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, prefs.LongValue(1<<45).Equal(got))
}

func TestUnchangedPutDoesNotNotify(t *testing.T) {
	ctx := context.Background()
	engine := openTemp(t, filepath.Join(t.TempDir(), "prefs.db"), "suite")
	var seen []string
	cancel := engine.Subscribe(func(key string) { seen = append(seen, key) })
	defer cancel()

	require.NoError(t, engine.Edit().PutString("k", "v").Apply(ctx))
	require.NoError(t, engine.Edit().PutString("k", "v").Remove("absent").Apply(ctx))
	assert.Equal(t, []string{"k"}, seen)
}

func TestStoreOverSQLite(t *testing.T) {
	ctx := context.Background()
	engine := openTemp(t, filepath.Join(t.TempDir(), "prefs.db"), "suite")
	store := prefs.New(engine)

	require.NoError(t, store.SetData(ctx, "blob", []byte("payload")))
	got, ok := store.Data(ctx, "blob")
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), got)
}

func TestOpenRequiresPathAndSuite(t *testing.T) {
	_, err := Open("", "suite")
	assert.Error(t, err)
	_, err = Open(filepath.Join(t.TempDir(), "x.db"), " ")
	assert.Error(t, err)
}
