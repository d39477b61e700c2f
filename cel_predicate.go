package mvvm

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELPredicateOption configures the CEL predicate engine.
type CELPredicateOption func(*celPredicateEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL engine.
func CELWithProgramCache(cache ProgramCache) CELPredicateOption {
	return func(e *celPredicateEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL engine.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELPredicateOption {
	return func(e *celPredicateEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

type celPredicateEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELPredicateEvaluator constructs a PredicateEvaluator backed by cel-go.
func NewCELPredicateEvaluator(opts ...CELPredicateOption) PredicateEvaluator {
	e := &celPredicateEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celPredicateEvaluator) Evaluate(ctx PredicateContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapPredicateError("cel", expression, fmt.Errorf("expression must not be empty"))
	}
	ctx = ctx.withDefaults()
	program, err := e.loadOrCompile(expression, ctx.Snapshot)
	if err != nil {
		return nil, err
	}
	out, _, err := program.program.Eval(e.activation(ctx))
	if err != nil {
		return nil, wrapPredicateError("cel", expression, err)
	}
	return out.Value(), nil
}

func (e *celPredicateEvaluator) Compile(expression string) (CompiledPredicate, error) {
	if expression == "" {
		return nil, wrapPredicateError("cel", expression, fmt.Errorf("expression must not be empty"))
	}
	// CEL environments declare variables up front, so the program is built
	// lazily against the snapshot of the first evaluation and cached.
	return &celCompiledPredicate{
		evaluator:  e,
		expression: expression,
	}, nil
}

func (e *celPredicateEvaluator) loadOrCompile(expression string, snapshot map[string]any) (*celProgram, error) {
	if snapshot == nil {
		snapshot = map[string]any{}
	}
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv(snapshot)
	if err != nil {
		return nil, wrapPredicateError("cel", expression, err)
	}
	ast, issues := env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, wrapPredicateError("cel", expression, issues.Err())
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, wrapPredicateError("cel", expression, issues.Err())
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, wrapPredicateError("cel", expression, err)
	}

	bundle := &celProgram{
		env:     env,
		program: prg,
	}
	if e.cache != nil {
		e.cache.Set(expression, bundle)
	}
	return bundle, nil
}

func (e *celPredicateEvaluator) buildEnv(snapshot map[string]any) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.DynType),
	}
	if e.registry != nil {
		binding := e.callBinding()
		opts = append(opts, celgo.Function("call", celgo.Overload(
			"call_dyn",
			[]*celgo.Type{celgo.StringType},
			celgo.DynType,
			celgo.FunctionBinding(func(values ...ref.Val) ref.Val {
				return binding(values)
			}),
		)))
	}
	for key := range snapshot {
		opts = append(opts, celgo.Variable(key, celgo.DynType))
	}
	return celgo.NewEnv(opts...)
}

func (e *celPredicateEvaluator) activation(ctx PredicateContext) map[string]any {
	activation := map[string]any{
		"now":  ctx.timestamp(),
		"args": ctx.Args,
	}
	for key, value := range ctx.Snapshot {
		activation[key] = value
	}
	if e.registry != nil {
		activation["call"] = func(name string, arguments ...any) (any, error) {
			return e.registry.Call(name, arguments...)
		}
	}
	return activation
}

type celCompiledPredicate struct {
	evaluator  *celPredicateEvaluator
	expression string
}

func (p *celCompiledPredicate) Evaluate(ctx PredicateContext) (any, error) {
	if p.evaluator == nil {
		return nil, wrapPredicateError("cel", p.expression, fmt.Errorf("compiled predicate missing evaluator"))
	}
	ctx = ctx.withDefaults()
	program, err := p.evaluator.loadOrCompile(p.expression, ctx.Snapshot)
	if err != nil {
		return nil, err
	}
	out, _, err := program.program.Eval(p.evaluator.activation(ctx))
	if err != nil {
		return nil, wrapPredicateError("cel", p.expression, err)
	}
	return out.Value(), nil
}

func (e *celPredicateEvaluator) callBinding() func([]ref.Val) ref.Val {
	return func(values []ref.Val) ref.Val {
		if e.registry == nil {
			return types.NewErr("mvvm: function registry not configured")
		}
		if len(values) == 0 {
			return types.NewErr("mvvm: call requires function name")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("mvvm: call name must be string")
		}
		args := make([]any, 0, len(values)-1)
		for _, val := range values[1:] {
			args = append(args, val.Value())
		}
		result, err := e.registry.Call(name, args...)
		if err != nil {
			return types.NewErr(err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}
