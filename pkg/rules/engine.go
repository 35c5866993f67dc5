package rules

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownEngine is returned by New for engine names it does not recognise.
var ErrUnknownEngine = errors.New("rules: unknown evaluator engine")

// ErrEngineUnavailable is returned when an engine is known but not compiled in.
var ErrEngineUnavailable = errors.New("rules: evaluator engine not available in this build")

// Engine names accepted by New.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// New builds the evaluator named by engine, sharing cache and registry.
// Either may be nil.
func New(engine string, cache ProgramCache, registry *FunctionRegistry) (Evaluator, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineExpr:
		return NewExprEvaluator(ExprWithProgramCache(cache), ExprWithFunctionRegistry(registry)), nil
	case EngineCEL:
		return NewCELEvaluator(CELWithProgramCache(cache), CELWithFunctionRegistry(registry)), nil
	case EngineJS:
		evaluator := NewJSEvaluator(JSWithProgramCache(cache), JSWithFunctionRegistry(registry))
		if evaluator == nil {
			return nil, fmt.Errorf("%w: %s", ErrEngineUnavailable, engine)
		}
		return evaluator, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, engine)
	}
}

// Evaluate runs expr through evaluator and reports the attempt to logger.
func Evaluate(evaluator Evaluator, logger Logger, ctx Context, expr string) (any, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("rules: evaluator not configured")
	}
	if logger == nil {
		logger = noopLogger{}
	}
	ctx = ctx.withDefaults()
	engine := EngineName(evaluator)
	start := time.Now()
	value, err := evaluator.Evaluate(ctx, expr)
	err = wrapEvaluationError(engine, expr, ctx.keyLabel(), err)
	logger.LogEvaluation(LogEvent{
		Engine:   engine,
		Expr:     expr,
		Key:      ctx.keyLabel(),
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// EngineName reports which built-in engine backs e, or "custom".
func EngineName(e Evaluator) string {
	switch fmt.Sprintf("%T", e) {
	case "<nil>":
		return "unknown"
	case "*rules.exprEvaluator":
		return EngineExpr
	case "*rules.celEvaluator":
		return EngineCEL
	case "*rules.jsEvaluator":
		return EngineJS
	default:
		return "custom"
	}
}
