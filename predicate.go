package mvvm

import (
	"fmt"
	"time"
)

// PredicateContext carries the inputs available to a predicate expression:
// the owning object's property snapshot, an evaluation timestamp, and any
// extra caller-supplied arguments.
type PredicateContext struct {
	Snapshot map[string]any
	Now      *time.Time
	Args     map[string]any
}

func (ctx PredicateContext) withDefaults() PredicateContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Snapshot == nil {
		ctx.Snapshot = map[string]any{}
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	return ctx
}

func (ctx PredicateContext) timestamp() time.Time {
	ctx = ctx.withDefaults()
	return *ctx.Now
}

// PredicateEvaluator executes predicate expressions against a context.
type PredicateEvaluator interface {
	Evaluate(ctx PredicateContext, expr string) (any, error)
	Compile(expr string) (CompiledPredicate, error)
}

// CompiledPredicate is a reusable predicate expression program.
type CompiledPredicate interface {
	Evaluate(ctx PredicateContext) (any, error)
}

// BindOption configures BindPredicate.
type BindOption func(*bindConfig)

type bindConfig struct {
	logger PredicateLogger
	args   map[string]any
}

// BindWithLogger records every evaluation through logger.
func BindWithLogger(logger PredicateLogger) BindOption {
	return func(cfg *bindConfig) {
		cfg.logger = logger
	}
}

// BindWithArgs exposes extra named values to the expression alongside the
// property snapshot.
func BindWithArgs(args map[string]any) BindOption {
	return func(cfg *bindConfig) {
		cfg.args = args
	}
}

// BindPredicate compiles expr with evaluator and returns a predicate that
// evaluates it against o's current property values. Evaluation failures and
// non-boolean results read as not executable and are reported to the
// configured logger; compilation failures surface immediately. Logger
// resolution: BindWithLogger wins, then the owning object's
// WithPredicateLogger, then a noop.
func BindPredicate(o *Observable, evaluator PredicateEvaluator, expr string, opts ...BindOption) (func() bool, error) {
	if o == nil {
		return nil, fmt.Errorf("%w: observable is required", ErrInvalidArgument)
	}
	if evaluator == nil {
		return nil, fmt.Errorf("%w: evaluator is required", ErrInvalidArgument)
	}
	cfg := bindConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	logger := cfg.logger
	if logger == nil {
		logger = o.logger
	}
	if logger == nil {
		logger = noopPredicateLogger{}
	}

	compiled, err := evaluator.Compile(expr)
	if err != nil {
		return nil, err
	}

	return func() bool {
		started := time.Now()
		result, err := compiled.Evaluate(PredicateContext{
			Snapshot: o.Snapshot(),
			Args:     cfg.args,
		})
		executable := false
		if err == nil {
			executable, err = coercePredicateResult(expr, result)
		}
		logger.LogPredicate(PredicateLogEvent{
			Expr:     expr,
			Duration: time.Since(started),
			Result:   executable,
			Err:      err,
		})
		return err == nil && executable
	}, nil
}

func coercePredicateResult(expr string, result any) (bool, error) {
	switch value := result.(type) {
	case bool:
		return value, nil
	case nil:
		return false, nil
	default:
		return false, wrapPredicateError("", expr, fmt.Errorf("predicate returned %T, want bool", result))
	}
}
