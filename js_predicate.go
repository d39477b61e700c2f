//go:build js_eval

package mvvm

import (
	"fmt"

	"github.com/dop251/goja"
)

type jsPredicateEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewJSPredicateEvaluator constructs a PredicateEvaluator backed by goja.
func NewJSPredicateEvaluator(opts ...JSPredicateOption) PredicateEvaluator {
	cfg := applyJSPredicateOptions(opts)
	return &jsPredicateEvaluator{
		cache:    cfg.cache,
		registry: cfg.registry,
	}
}

func (e *jsPredicateEvaluator) Evaluate(ctx PredicateContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapPredicateError("js", expression, fmt.Errorf("expression must not be empty"))
	}
	ctx = ctx.withDefaults()
	if e.cache == nil {
		return e.run(ctx, expression, nil)
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, expression, program)
}

func (e *jsPredicateEvaluator) Compile(expression string) (CompiledPredicate, error) {
	if expression == "" {
		return nil, wrapPredicateError("js", expression, fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &jsCompiledPredicate{
		evaluator:  e,
		expression: expression,
		program:    program,
	}, nil
}

func (e *jsPredicateEvaluator) loadOrCompile(expression string) (*goja.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("", e.wrapExpression(expression), false)
	if err != nil {
		return nil, wrapPredicateError("js", expression, err)
	}
	if e.cache != nil {
		e.cache.Set(expression, program)
	}
	return program, nil
}

func (e *jsPredicateEvaluator) run(ctx PredicateContext, expression string, program *goja.Program) (any, error) {
	vm := goja.New()
	e.injectContext(vm, ctx)
	if program != nil {
		value, err := vm.RunProgram(program)
		if err != nil {
			return nil, wrapPredicateError("js", expression, err)
		}
		return value.Export(), nil
	}
	value, err := vm.RunString(e.wrapExpression(expression))
	if err != nil {
		return nil, wrapPredicateError("js", expression, err)
	}
	return value.Export(), nil
}

func (e *jsPredicateEvaluator) injectContext(vm *goja.Runtime, ctx PredicateContext) {
	vm.Set("now", ctx.timestamp())
	vm.Set("args", ctx.Args)
	for key, value := range ctx.Snapshot {
		vm.Set(key, value)
	}
	if e.registry != nil {
		vm.Set("call", func(name string, arguments ...any) (any, error) {
			return e.registry.Call(name, arguments...)
		})
		for _, name := range e.registry.Names() {
			fn := name
			vm.Set(fn, func(arguments ...any) (any, error) {
				return e.registry.Call(fn, arguments...)
			})
		}
	}
}

func (e *jsPredicateEvaluator) wrapExpression(expression string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", expression)
}

type jsCompiledPredicate struct {
	evaluator  *jsPredicateEvaluator
	expression string
	program    *goja.Program
}

func (p *jsCompiledPredicate) Evaluate(ctx PredicateContext) (any, error) {
	if p.evaluator == nil {
		return nil, wrapPredicateError("js", p.expression, fmt.Errorf("compiled predicate missing evaluator"))
	}
	ctx = ctx.withDefaults()
	return p.evaluator.run(ctx, p.expression, p.program)
}

func jsPredicateAvailable() bool {
	return true
}
