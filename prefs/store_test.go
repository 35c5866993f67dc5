package prefs

import (
	"context"
	"errors"
	"math"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/pnewell/skip-foundation/pkg/activity"
	"github.com/pnewell/skip-foundation/pkg/rules"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(opts ...Option) *Store {
	return New(NewMemoryEngine(), opts...)
}

func TestSetDoubleNarrowsToFloat32(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	require.NoError(t, store.SetDouble(ctx, "k", 3.14))
	got, ok := store.Double(ctx, "k")
	require.True(t, ok)
	assert.InDelta(t, 3.14, got, 1e-6)
	assert.NotEqual(t, 3.14, got)

	raw, _ := store.Object(ctx, "k")
	assert.Equal(t, KindFloat, raw.Kind())
}

func TestDynamicSetDoubleRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	require.NoError(t, store.Set(ctx, "k", 3.14))
	got, ok := store.Double(ctx, "k")
	require.True(t, ok)
	assert.InDelta(t, 3.14, got, 1e-6)
}

func TestDataRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	payload := []byte{0, 1, 2, 250, 251, 252}

	require.NoError(t, store.SetData(ctx, "blob", payload))
	got, ok := store.Data(ctx, "blob")
	require.True(t, ok)
	assert.Equal(t, payload, got)
}

func TestURLRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	site, err := url.Parse("https://example.com/docs?lang=en")
	require.NoError(t, err)

	require.NoError(t, store.SetURL(ctx, "site", site))
	got, ok := store.URL(ctx, "site")
	require.True(t, ok)
	assert.Equal(t, site.String(), got.String())
}

func TestTimeRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	when := time.Date(2023, 11, 5, 14, 30, 0, 0, time.UTC)

	require.NoError(t, store.SetTime(ctx, "seen", when))
	got, ok := store.Time(ctx, "seen")
	require.True(t, ok)
	assert.True(t, when.Equal(got))
}

func TestStringBoolCoercion(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	require.NoError(t, store.SetString(ctx, "k", "yes"))
	got, ok := store.Bool(ctx, "k")
	require.True(t, ok)
	assert.True(t, got)

	require.NoError(t, store.SetString(ctx, "k", "maybe"))
	got, ok = store.Bool(ctx, "k")
	require.True(t, ok)
	assert.False(t, got)
}

func TestTypedSetters(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	require.NoError(t, store.SetInt(ctx, "i", 12))
	require.NoError(t, store.SetBool(ctx, "b", true))

	i, ok := store.Integer(ctx, "i")
	require.True(t, ok)
	assert.Equal(t, 12, i)

	s, ok := store.String(ctx, "b")
	require.True(t, ok)
	assert.Equal(t, "YES", s)

	raw, _ := store.Object(ctx, "i")
	assert.Equal(t, KindInt, raw.Kind())
}

func TestWideIntsKeepTheirValue(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	const wide = math.MaxInt32 + 10

	require.NoError(t, store.SetInt(ctx, "typed", wide))
	require.NoError(t, store.Set(ctx, "dynamic", wide))
	store.Register(map[string]any{"registered": wide})

	for _, key := range []string{"typed", "dynamic", "registered"} {
		got, ok := store.Integer(ctx, key)
		require.True(t, ok, key)
		assert.Equal(t, wide, got, key)

		raw, _ := store.Object(ctx, key)
		assert.Equal(t, KindLong, raw.Kind(), key)
	}
}

func TestRegisteredDefaultReappliesAfterRemove(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	store.Register(map[string]any{"answer": 42})

	got, ok := store.Object(ctx, "answer")
	require.True(t, ok)
	assert.Equal(t, 42, got.Interface())

	require.NoError(t, store.SetInt(ctx, "answer", 7))
	i, _ := store.Integer(ctx, "answer")
	assert.Equal(t, 7, i)

	require.NoError(t, store.RemoveObject(ctx, "answer"))
	require.NoError(t, store.RemoveObject(ctx, "answer"))
	got, ok = store.Object(ctx, "answer")
	require.True(t, ok)
	assert.Equal(t, 42, got.Interface())
}

func TestRegisterReplacesMapping(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	store.Register(map[string]any{"a": 1})
	store.Register(map[string]any{"b": 2})

	_, ok := store.Object(ctx, "a")
	assert.False(t, ok)
	_, ok = store.Object(ctx, "b")
	assert.True(t, ok)
}

func TestObjectOrFallsBackToCaller(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	assert.Equal(t, "fallback", store.ObjectOr(ctx, "missing", "fallback").Interface())
	assert.False(t, store.ObjectOr(ctx, "missing", nil).IsValid())

	store.Register(map[string]any{"missing": "registered"})
	assert.Equal(t, "registered", store.ObjectOr(ctx, "missing", "fallback").Interface())
}

func TestSetUnsupportedValueStillCommits(t *testing.T) {
	ctx := context.Background()
	engine := &countingEngine{MemoryEngine: NewMemoryEngine()}
	store := New(engine)

	err := store.Set(ctx, "k", struct{ X int }{1})
	require.ErrorIs(t, err, ErrUnsupportedValue)
	assert.Equal(t, 1, engine.applies())
	_, ok := store.Object(ctx, "k")
	assert.False(t, ok)

	err = store.Set(ctx, "k", nil)
	require.ErrorIs(t, err, ErrUnsupportedValue)
	assert.Equal(t, 2, engine.applies())
}

func TestWriteErrorsAreWrapped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := newTestStore()

	err := store.SetString(ctx, "k", "v")
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), `prefs: apply "k"`)

	err = store.RemoveObject(ctx, "k")
	require.ErrorIs(t, err, context.Canceled)
}

func TestReadErrorsDegradeToRegistration(t *testing.T) {
	ctx := context.Background()
	store := New(failingEngine{NewMemoryEngine()})
	store.Register(map[string]any{"k": "registered"})

	got, ok := store.String(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "registered", got)

	_, ok = store.String(ctx, "other")
	assert.False(t, ok)
}

func TestChangeListenerMatchesExactKey(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	var mu sync.Mutex
	var seen []string
	listener := store.RegisterChangeListener("theme", func(key string) {
		mu.Lock()
		seen = append(seen, key)
		mu.Unlock()
	})
	require.NotEmpty(t, listener.ID())
	assert.Equal(t, "theme", listener.Key())

	require.NoError(t, store.SetString(ctx, "theme", "dark"))
	require.NoError(t, store.SetString(ctx, "theme.accent", "blue"))
	require.NoError(t, store.SetString(ctx, "them", "x"))

	mu.Lock()
	assert.Equal(t, []string{"theme"}, seen)
	mu.Unlock()

	listener.Close()
	listener.Close()
	require.NoError(t, store.SetString(ctx, "theme", "light"))

	mu.Lock()
	assert.Len(t, seen, 1)
	mu.Unlock()
}

func TestRuleDefaultsDeriveFromDictionary(t *testing.T) {
	ctx := context.Background()
	var events []rules.LogEvent
	store := newTestStore(WithRuleLogger(rules.LoggerFunc(func(e rules.LogEvent) {
		events = append(events, e)
	})))
	store.Register(map[string]any{
		"fontSize":    12,
		"headingSize": Rule("fontSize * 2"),
		"broken":      Rule("fontSize +"),
	})

	got, ok := store.Integer(ctx, "headingSize")
	require.True(t, ok)
	assert.Equal(t, 24, got)

	require.NoError(t, store.SetInt(ctx, "fontSize", 20))
	got, _ = store.Integer(ctx, "headingSize")
	assert.Equal(t, 40, got)

	_, ok = store.Object(ctx, "broken")
	assert.False(t, ok)

	require.Len(t, events, 3)
	assert.Equal(t, "headingSize", events[0].Key)
	assert.Error(t, events[2].Err)
}

func TestRuleDefaultsWithCEL(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(WithEvaluator(rules.NewCELEvaluator()))
	store.Register(map[string]any{
		"base":    "docs",
		"landing": Rule(`base + "/index.html"`),
	})

	got, ok := store.String(ctx, "landing")
	require.True(t, ok)
	assert.Equal(t, "docs/index.html", got)
}

func TestDictionaryMergesEngineOverRegistration(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	store.Register(map[string]any{"a": 1, "b": "two"})
	require.NoError(t, store.SetString(ctx, "a", "stored"))
	require.NoError(t, store.SetBool(ctx, "c", true))

	dict := store.Dictionary(ctx)
	require.Len(t, dict, 3)
	assert.Equal(t, "stored", dict["a"].Interface())
	assert.Equal(t, "two", dict["b"].Interface())
	assert.Equal(t, true, dict["c"].Interface())
}

func TestStandardSharesDefaultSuite(t *testing.T) {
	ctx := context.Background()
	key := "standard-test-key"
	t.Cleanup(func() { _ = Standard().RemoveObject(ctx, key) })

	assert.Same(t, Standard(), Standard())
	assert.Equal(t, DefaultSuite, Standard().SuiteName())

	require.NoError(t, Standard().SetString(ctx, key, "shared"))
	got, ok := Suite(DefaultSuite).String(ctx, key)
	require.True(t, ok)
	assert.Equal(t, "shared", got)

	_, ok = Suite("other-suite").String(ctx, key)
	assert.False(t, ok)
}

func TestMetricsCountReadsAndWrites(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	store := newTestStore(WithMetrics(metrics), WithSuiteName("metered"))
	store.Register(map[string]any{"d": 1})

	require.NoError(t, store.SetInt(ctx, "k", 1))
	_ = store.Set(ctx, "bad", struct{}{})
	store.Object(ctx, "k")
	store.Object(ctx, "d")
	store.Object(ctx, "none")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.writes.WithLabelValues("metered", "int", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.writes.WithLabelValues("metered", "invalid", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.reads.WithLabelValues("metered", sourceEngine)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.reads.WithLabelValues("metered", sourceRegistered)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.reads.WithLabelValues("metered", sourceMissing)))
}

func TestActivityEmittedOnCommit(t *testing.T) {
	ctx := context.Background()
	capture := &activity.CaptureHook{}
	emitter := activity.NewEmitter(activity.Hooks{capture}, activity.Config{Enabled: true})
	store := newTestStore(WithActivity(emitter), WithSuiteName("audited"))

	store.Register(map[string]any{"b": 1, "a": 2})
	require.NoError(t, store.SetInt(ctx, "a", 5))
	require.NoError(t, store.RemoveObject(ctx, "a"))

	events := capture.Snapshot()
	require.Len(t, events, 3)
	assert.Equal(t, activity.VerbDefaultsRegistered, events[0].Verb)
	assert.Equal(t, []string{"a", "b"}, events[0].Metadata["keys"])
	assert.Equal(t, activity.VerbPreferenceSet, events[1].Verb)
	assert.Equal(t, "a", events[1].ObjectID)
	assert.Equal(t, "int", events[1].Metadata["kind"])
	assert.Equal(t, activity.VerbPreferenceRemoved, events[2].Verb)
	assert.Equal(t, activity.DefaultChannel, events[2].Channel)
}

func TestActivityAttributesActorAndTime(t *testing.T) {
	capture := &activity.CaptureHook{}
	emitter := activity.NewEmitter(activity.Hooks{capture}, activity.Config{Enabled: true})
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	service := activity.Actor{ActorID: "service", TenantID: "tenant-1"}
	store := newTestStore(
		WithActivity(emitter),
		WithActor(service),
		func(cfg *storeConfig) { cfg.now = func() time.Time { return at } },
	)

	require.NoError(t, store.SetString(context.Background(), "theme", "dark"))
	user := activity.Actor{ActorID: "alice", UserID: "alice", TenantID: "tenant-2"}
	require.NoError(t, store.RemoveObject(activity.ContextWithActor(context.Background(), user), "theme"))

	events := capture.Snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, "service", events[0].ActorID)
	assert.Empty(t, events[0].UserID)
	assert.Equal(t, "tenant-1", events[0].TenantID)
	assert.Equal(t, at, events[0].OccurredAt)
	assert.Equal(t, "alice", events[1].ActorID)
	assert.Equal(t, "alice", events[1].UserID)
	assert.Equal(t, "tenant-2", events[1].TenantID)
}

func TestRemovingAbsentKeyEmitsNothing(t *testing.T) {
	ctx := context.Background()
	capture := &activity.CaptureHook{}
	emitter := activity.NewEmitter(activity.Hooks{capture}, activity.Config{Enabled: true})
	store := newTestStore(WithActivity(emitter))

	require.NoError(t, store.RemoveObject(ctx, "ghost"))
	assert.Empty(t, capture.Snapshot())

	require.NoError(t, store.SetBool(ctx, "ghost", true))
	require.NoError(t, store.RemoveObject(ctx, "ghost"))
	require.NoError(t, store.RemoveObject(ctx, "ghost"))

	events := capture.Snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, activity.VerbPreferenceSet, events[0].Verb)
	assert.Equal(t, activity.VerbPreferenceRemoved, events[1].Verb)
}

type countingEngine struct {
	*MemoryEngine
	mu    sync.Mutex
	count int
}

func (e *countingEngine) Edit() Editor {
	return NewBatch(func(ctx context.Context, edits []Edit) error {
		e.mu.Lock()
		e.count++
		e.mu.Unlock()
		return e.MemoryEngine.commit(ctx, edits)
	})
}

func (e *countingEngine) applies() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}

type failingEngine struct {
	*MemoryEngine
}

func (failingEngine) Get(context.Context, string) (Value, bool, error) {
	return Value{}, false, errors.New("disk on fire")
}

func (failingEngine) All(context.Context) (map[string]Value, error) {
	return nil, errors.New("disk on fire")
}
