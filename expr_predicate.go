package mvvm

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprPredicateOption configures an expr predicate engine instance.
type ExprPredicateOption func(*exprPredicateEvaluator)

// ExprWithProgramCache wires a ProgramCache into the expr engine.
func ExprWithProgramCache(cache ProgramCache) ExprPredicateOption {
	return func(e *exprPredicateEvaluator) {
		e.cache = cache
	}
}

// ExprWithFunctionRegistry wires a FunctionRegistry into the expr engine.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprPredicateOption {
	return func(e *exprPredicateEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

// exprPredicateEvaluator executes predicate expressions using
// github.com/expr-lang/expr.
type exprPredicateEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewExprPredicateEvaluator constructs a PredicateEvaluator backed by
// expr-lang/expr. This is the default engine for expression predicates.
func NewExprPredicateEvaluator(opts ...ExprPredicateOption) PredicateEvaluator {
	e := &exprPredicateEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Evaluate compiles and runs expression against ctx.Snapshot.
func (e *exprPredicateEvaluator) Evaluate(ctx PredicateContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapPredicateError("expr", expression, fmt.Errorf("expression must not be empty"))
	}
	ctx = ctx.withDefaults()
	env := e.environment(ctx)
	if e.cache == nil {
		result, err := exprlang.Eval(expression, env)
		if err != nil {
			return nil, wrapPredicateError("expr", expression, err)
		}
		return result, nil
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	result, err := exprlang.Run(program, env)
	if err != nil {
		return nil, wrapPredicateError("expr", expression, err)
	}
	return result, nil
}

// Compile returns a compiled predicate that evaluates expression per
// invocation.
func (e *exprPredicateEvaluator) Compile(expression string) (CompiledPredicate, error) {
	if expression == "" {
		return nil, wrapPredicateError("expr", expression, fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &exprCompiledPredicate{
		evaluator:  e,
		program:    program,
		expression: expression,
	}, nil
}

func (e *exprPredicateEvaluator) loadOrCompile(expression string) (*exprvm.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range e.registryNames() {
		fn := e.registryFunction(name)
		options = append(options, exprlang.Function(name, fn))
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, wrapPredicateError("expr", expression, err)
	}
	if e.cache != nil {
		e.cache.Set(expression, program)
	}
	return program, nil
}

type exprCompiledPredicate struct {
	evaluator  *exprPredicateEvaluator
	program    *exprvm.Program
	expression string
}

func (p *exprCompiledPredicate) Evaluate(ctx PredicateContext) (any, error) {
	if p.evaluator == nil {
		return nil, wrapPredicateError("expr", p.expression, fmt.Errorf("compiled predicate missing evaluator"))
	}
	ctx = ctx.withDefaults()
	if p.program == nil {
		return p.evaluator.Evaluate(ctx, p.expression)
	}
	env := p.evaluator.environment(ctx)
	result, err := exprlang.Run(p.program, env)
	if err != nil {
		return nil, wrapPredicateError("expr", p.expression, err)
	}
	return result, nil
}

func (e *exprPredicateEvaluator) environment(ctx PredicateContext) map[string]any {
	env := map[string]any{
		"now":  ctx.timestamp(),
		"args": ctx.Args,
	}
	for key, value := range ctx.Snapshot {
		env[key] = value
	}
	if e.registry != nil {
		env["call"] = func(name string, arguments ...any) (any, error) {
			return e.registry.Call(name, arguments...)
		}
		for _, name := range e.registry.Names() {
			fn := name
			env[fn] = func(arguments ...any) (any, error) {
				return e.registry.Call(fn, arguments...)
			}
		}
	}
	return env
}

func (e *exprPredicateEvaluator) registryNames() []string {
	if e == nil || e.registry == nil {
		return nil
	}
	return e.registry.Names()
}

func (e *exprPredicateEvaluator) registryFunction(name string) func(...any) (any, error) {
	if e == nil || e.registry == nil {
		return nil
	}
	return func(arguments ...any) (any, error) {
		return e.registry.Call(name, arguments...)
	}
}
