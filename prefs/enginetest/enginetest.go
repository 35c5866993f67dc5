// Package enginetest holds the behavioural contract every prefs.Engine must
// satisfy. Engine packages call Run from their own tests.
package enginetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pnewell/skip-foundation/prefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty engine. Cleanup belongs on t.
type Factory func(t *testing.T) prefs.Engine

// NotifyTimeout bounds how long Run waits for asynchronous change feeds.
var NotifyTimeout = 5 * time.Second

// Run exercises open against the engine contract.
func Run(t *testing.T, open Factory) {
	t.Run("PutAndGetEachKind", func(t *testing.T) {
		ctx := context.Background()
		engine := open(t)
		err := engine.Edit().
			PutInt("int", 7).
			PutLong("long", 1<<40).
			PutFloat("float", 1.5).
			PutBool("bool", true).
			PutString("string", "hello").
			Apply(ctx)
		require.NoError(t, err)

		want := map[string]prefs.Value{
			"int":    prefs.IntValue(7),
			"long":   prefs.LongValue(1 << 40),
			"float":  prefs.FloatValue(1.5),
			"bool":   prefs.BoolValue(true),
			"string": prefs.StringValue("hello"),
		}
		for key, expected := range want {
			got, ok, err := engine.Get(ctx, key)
			require.NoError(t, err)
			require.True(t, ok, key)
			assert.True(t, expected.Equal(got), "%s: got %s want %s", key, got, expected)
		}

		all, err := engine.All(ctx)
		require.NoError(t, err)
		assert.Len(t, all, len(want))
	})

	t.Run("MissingKey", func(t *testing.T) {
		engine := open(t)
		_, ok, err := engine.Get(context.Background(), "absent")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("RemoveIsIdempotent", func(t *testing.T) {
		ctx := context.Background()
		engine := open(t)
		require.NoError(t, engine.Edit().PutString("k", "v").Apply(ctx))
		require.NoError(t, engine.Edit().Remove("k").Apply(ctx))
		require.NoError(t, engine.Edit().Remove("k").Apply(ctx))
		_, ok, err := engine.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("LastEditWins", func(t *testing.T) {
		ctx := context.Background()
		engine := open(t)
		require.NoError(t, engine.Edit().PutInt("k", 1).PutString("k", "two").Apply(ctx))
		got, ok, err := engine.Get(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, prefs.StringValue("two").Equal(got), "got %s", got)
	})

	t.Run("EmptyApply", func(t *testing.T) {
		engine := open(t)
		require.NoError(t, engine.Edit().Apply(context.Background()))
	})

	t.Run("SubscribeSeesCommittedKeys", func(t *testing.T) {
		ctx := context.Background()
		engine := open(t)
		rec := &recorder{}
		cancel := engine.Subscribe(rec.record)
		defer cancel()

		require.NoError(t, engine.Edit().PutString("a", "1").PutBool("b", true).Apply(ctx))
		require.Eventually(t, func() bool {
			return rec.has("a") && rec.has("b")
		}, NotifyTimeout, 10*time.Millisecond)

		require.NoError(t, engine.Edit().Remove("a").Apply(ctx))
		require.Eventually(t, func() bool {
			return rec.count("a") >= 2
		}, NotifyTimeout, 10*time.Millisecond)
	})

	t.Run("CancelStopsNotifications", func(t *testing.T) {
		ctx := context.Background()
		engine := open(t)
		cancelled := &recorder{}
		live := &recorder{}
		cancel := engine.Subscribe(cancelled.record)
		stop := engine.Subscribe(live.record)
		defer stop()
		cancel()
		cancel()

		require.NoError(t, engine.Edit().PutInt("k", 1).Apply(ctx))
		require.Eventually(t, func() bool { return live.has("k") }, NotifyTimeout, 10*time.Millisecond)
		assert.Zero(t, cancelled.count("k"))
	})
}

type recorder struct {
	mu   sync.Mutex
	keys []string
}

func (r *recorder) record(key string) {
	r.mu.Lock()
	r.keys = append(r.keys, key)
	r.mu.Unlock()
}

func (r *recorder) count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, k := range r.keys {
		if k == key {
			n++
		}
	}
	return n
}

func (r *recorder) has(key string) bool {
	return r.count(key) > 0
}
