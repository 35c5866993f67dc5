// Package file is a prefs.Engine that keeps one suite per YAML file and
// watches the file for changes made by other processes.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pnewell/skip-foundation/prefs"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Engine persists preferences to a YAML document. Commits from this
// process notify subscribers on the committing goroutine; edits made to the
// file by anyone else are picked up by the watcher goroutine, diffed and
// notified from there.
type Engine struct {
	prefs.Broadcaster

	path   string
	logger *zap.Logger

	mu      sync.Mutex
	records map[string]prefs.Value

	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

var _ prefs.Engine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for watcher and reload failures.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

type document struct {
	Entries map[string]entry `yaml:"entries"`
}

type entry struct {
	Kind  string `yaml:"kind"`
	Value string `yaml:"value"`
}

// SuitePath is the file a suite lives in under dir.
func SuitePath(dir, suite string) string {
	return filepath.Join(dir, suite+".yaml")
}

// Open loads path, creating its directory if needed, and starts watching it.
// A missing file is an empty suite.
func Open(path string, opts ...Option) (*Engine, error) {
	if path == "" {
		return nil, errors.New("file: path is required")
	}
	e := &Engine{
		path:   filepath.Clean(path),
		logger: zap.NewNop(),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	dir := filepath.Dir(e.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file: create %s: %w", dir, err)
	}
	records, err := load(e.path)
	if err != nil {
		return nil, err
	}
	e.records = records

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("file: start watcher: %w", err)
	}
	// Watch the directory so atomic renames over the file are seen.
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("file: watch %s: %w", dir, err)
	}
	e.watcher = watcher
	go e.run()
	return e, nil
}

// Path is the backing file.
func (e *Engine) Path() string {
	return e.path
}

func (e *Engine) Get(_ context.Context, key string) (prefs.Value, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	value, ok := e.records[key]
	return value, ok, nil
}

func (e *Engine) All(_ context.Context) (map[string]prefs.Value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return clone(e.records), nil
}

func (e *Engine) Edit() prefs.Editor {
	return prefs.NewBatch(e.commit)
}

func (e *Engine) commit(ctx context.Context, edits []prefs.Edit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	next := clone(e.records)
	changed := prefs.ApplyEdits(next, edits)
	if len(changed) > 0 {
		if err := store(e.path, next); err != nil {
			e.mu.Unlock()
			return err
		}
		e.records = next
	}
	e.mu.Unlock()
	e.Notify(changed...)
	return nil
}

// Close stops the watcher. It is safe to call more than once.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		close(e.stopCh)
		<-e.doneCh
		err = e.watcher.Close()
	})
	return err
}

func (e *Engine) run() {
	defer close(e.doneCh)
	for {
		select {
		case <-e.stopCh:
			return
		case event, ok := <-e.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != e.path {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			e.reload()
		case err, ok := <-e.watcher.Errors:
			if !ok {
				return
			}
			e.logger.Warn("file: watcher error", zap.String("path", e.path), zap.Error(err))
		}
	}
}

// reload rereads the file under the lock so a concurrent commit can never be
// rolled back by a stale read.
func (e *Engine) reload() {
	e.mu.Lock()
	records, err := load(e.path)
	if err != nil {
		e.mu.Unlock()
		e.logger.Debug("file: reload failed", zap.String("path", e.path), zap.Error(err))
		return
	}
	changed := diff(e.records, records)
	e.records = records
	e.mu.Unlock()
	if len(changed) > 0 {
		e.logger.Debug("file: external change", zap.String("path", e.path), zap.Strings("keys", changed))
	}
	e.Notify(changed...)
}

func load(path string) (map[string]prefs.Value, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]prefs.Value{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file: read %s: %w", path, err)
	}
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("file: parse %s: %w", path, err)
	}
	records := make(map[string]prefs.Value, len(doc.Entries))
	for key, ent := range doc.Entries {
		value, err := prefs.DecodeText(ent.Kind, ent.Value)
		if err != nil {
			return nil, fmt.Errorf("file: entry %q: %w", key, err)
		}
		records[key] = value
	}
	return records, nil
}

func store(path string, records map[string]prefs.Value) error {
	doc := document{Entries: make(map[string]entry, len(records))}
	for key, value := range records {
		kind, text, err := prefs.EncodeText(value)
		if err != nil {
			return fmt.Errorf("file: entry %q: %w", key, err)
		}
		doc.Entries[key] = entry{Kind: kind, Value: text}
	}
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("file: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("file: write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("file: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("file: write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("file: write %s: %w", path, err)
	}
	return nil
}

func diff(before, after map[string]prefs.Value) []string {
	var changed []string
	for key, old := range before {
		if value, ok := after[key]; !ok || !old.Equal(value) {
			changed = append(changed, key)
		}
	}
	for key := range after {
		if _, ok := before[key]; !ok {
			changed = append(changed, key)
		}
	}
	sort.Strings(changed)
	return changed
}

func clone(records map[string]prefs.Value) map[string]prefs.Value {
	out := make(map[string]prefs.Value, len(records))
	for key, value := range records {
		out[key] = value
	}
	return out
}
