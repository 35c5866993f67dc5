package prefs

import (
	"context"
	"sync"
)

// MemoryEngine is an in-memory Engine. Apply commits under a single lock and
// notifies subscribers of changed keys synchronously on the committing
// goroutine.
type MemoryEngine struct {
	Broadcaster

	mu      sync.RWMutex
	records map[string]Value
}

var _ Engine = (*MemoryEngine)(nil)

// NewMemoryEngine returns an empty MemoryEngine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{records: map[string]Value{}}
}

func (e *MemoryEngine) Get(_ context.Context, key string) (Value, bool, error) {
	e.mu.RLock()
	value, ok := e.records[key]
	e.mu.RUnlock()
	return value, ok, nil
}

func (e *MemoryEngine) All(_ context.Context) (map[string]Value, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]Value, len(e.records))
	for key, value := range e.records {
		out[key] = value
	}
	return out, nil
}

func (e *MemoryEngine) Edit() Editor {
	return NewBatch(e.commit)
}

func (e *MemoryEngine) commit(ctx context.Context, edits []Edit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	changed := ApplyEdits(e.records, edits)
	e.mu.Unlock()
	e.Notify(changed...)
	return nil
}

// ApplyEdits applies edits to records and returns the keys whose stored value
// actually changed.
func ApplyEdits(records map[string]Value, edits []Edit) []string {
	var changed []string
	for _, edit := range edits {
		existing, ok := records[edit.Key]
		if edit.Remove {
			if ok {
				delete(records, edit.Key)
				changed = append(changed, edit.Key)
			}
			continue
		}
		if ok && existing.Equal(edit.Value) {
			continue
		}
		records[edit.Key] = edit.Value
		changed = append(changed, edit.Key)
	}
	return changed
}

var (
	suitesMu sync.Mutex
	suites   = map[string]*MemoryEngine{}
)

// SuiteEngine returns the process-wide MemoryEngine for name, creating it on
// first use. Stores bound to the same suite share state and notifications.
func SuiteEngine(name string) *MemoryEngine {
	if name == "" {
		name = DefaultSuite
	}
	suitesMu.Lock()
	defer suitesMu.Unlock()
	engine, ok := suites[name]
	if !ok {
		engine = NewMemoryEngine()
		suites[name] = engine
	}
	return engine
}
