package rules

import (
	"sync"
	"time"
)

// Context carries the inputs needed when evaluating an expression.
type Context struct {
	// Snapshot is the preference dictionary visible to the expression. Each
	// entry is bound as a top-level variable.
	Snapshot map[string]any
	// Key names the preference being derived, when there is one.
	Key  string
	Now  *time.Time
	Args map[string]any
}

func (ctx Context) withDefaultNow() Context {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx Context) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx Context) withDefaultMaps() Context {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Snapshot == nil {
		ctx.Snapshot = map[string]any{}
	}
	return ctx
}

func (ctx Context) withDefaults() Context {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx Context) keyLabel() string {
	if ctx.Key != "" {
		return ctx.Key
	}
	return "unknown"
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx Context, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx Context) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

// ProgramCache stores compiled expression programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MemoryCache is a ProgramCache backed by sync.Map. Entries live for the
// lifetime of the cache.
type MemoryCache struct {
	programs sync.Map
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Get(key string) (any, bool) {
	return c.programs.Load(key)
}

func (c *MemoryCache) Set(key string, value any) {
	c.programs.Store(key, value)
}
