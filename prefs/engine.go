package prefs

import (
	"context"
	"sync"
)

// Engine is the backing key-value store. Implementations must be safe for
// concurrent use and must only hold storable kinds.
type Engine interface {
	// Get returns the stored value for key.
	Get(ctx context.Context, key string) (Value, bool, error)
	// All returns every stored entry.
	All(ctx context.Context) (map[string]Value, error)
	// Edit starts a transaction that takes effect on Apply.
	Edit() Editor
	// Subscribe registers fn to run after a committed change to any key.
	// fn runs on the engine's notification goroutine. The returned cancel
	// func is idempotent.
	Subscribe(fn func(key string)) (cancel func())
}

// Editor stages puts and removals. Apply commits them as one unit.
type Editor interface {
	PutInt(key string, value int32) Editor
	PutLong(key string, value int64) Editor
	PutFloat(key string, value float32) Editor
	PutBool(key string, value bool) Editor
	PutString(key string, value string) Editor
	Remove(key string) Editor
	Apply(ctx context.Context) error
}

// Edit is one staged change. Remove edits carry an invalid Value.
type Edit struct {
	Key    string
	Value  Value
	Remove bool
}

// CommitFunc persists a batch of edits atomically.
type CommitFunc func(ctx context.Context, edits []Edit) error

// Batch is an Editor that collects edits and hands them to a CommitFunc.
// When the same key is edited twice the last edit wins.
type Batch struct {
	mu     sync.Mutex
	order  []string
	edits  map[string]Edit
	commit CommitFunc
}

// NewBatch returns an Editor that commits through commit.
func NewBatch(commit CommitFunc) *Batch {
	return &Batch{edits: map[string]Edit{}, commit: commit}
}

func (b *Batch) stage(edit Edit) Editor {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, seen := b.edits[edit.Key]; !seen {
		b.order = append(b.order, edit.Key)
	}
	b.edits[edit.Key] = edit
	return b
}

func (b *Batch) PutInt(key string, value int32) Editor {
	return b.stage(Edit{Key: key, Value: IntValue(value)})
}

func (b *Batch) PutLong(key string, value int64) Editor {
	return b.stage(Edit{Key: key, Value: LongValue(value)})
}

func (b *Batch) PutFloat(key string, value float32) Editor {
	return b.stage(Edit{Key: key, Value: FloatValue(value)})
}

func (b *Batch) PutBool(key string, value bool) Editor {
	return b.stage(Edit{Key: key, Value: BoolValue(value)})
}

func (b *Batch) PutString(key string, value string) Editor {
	return b.stage(Edit{Key: key, Value: StringValue(value)})
}

func (b *Batch) Remove(key string) Editor {
	return b.stage(Edit{Key: key, Remove: true})
}

// Edits returns the staged edits in first-staged key order.
func (b *Batch) Edits() []Edit {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Edit, 0, len(b.order))
	for _, key := range b.order {
		out = append(out, b.edits[key])
	}
	return out
}

// Apply commits the staged edits. An empty batch still reaches the
// CommitFunc so engines can finalize consistently.
func (b *Batch) Apply(ctx context.Context) error {
	edits := b.Edits()
	if b.commit == nil {
		return nil
	}
	return b.commit(ctx, edits)
}

// Keys returns the keys touched by edits.
func Keys(edits []Edit) []string {
	keys := make([]string, 0, len(edits))
	for _, edit := range edits {
		keys = append(keys, edit.Key)
	}
	return keys
}

// Broadcaster fans change notifications out to subscribers. Engines embed
// it to implement Subscribe.
type Broadcaster struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(string)
}

// Subscribe registers fn and returns an idempotent cancel func.
func (b *Broadcaster) Subscribe(fn func(key string)) func() {
	if fn == nil {
		return func() {}
	}
	b.mu.Lock()
	if b.subs == nil {
		b.subs = map[int]func(string){}
	}
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Len reports the number of live subscribers.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Notify calls every subscriber once per key, on the calling goroutine.
func (b *Broadcaster) Notify(keys ...string) {
	b.mu.RLock()
	subs := make([]func(string), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.RUnlock()
	for _, key := range keys {
		for _, fn := range subs {
			fn(key)
		}
	}
}
