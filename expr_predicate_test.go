package mvvm

import (
	"errors"
	"testing"
)

// countingCache wraps MemoryProgramCache and counts accesses.
type countingCache struct {
	inner *MemoryProgramCache
	gets  int
	hits  int
	sets  int
}

func newCountingCache() *countingCache {
	return &countingCache{inner: NewMemoryProgramCache()}
}

func (c *countingCache) Get(key string) (any, bool) {
	c.gets++
	value, ok := c.inner.Get(key)
	if ok {
		c.hits++
	}
	return value, ok
}

func (c *countingCache) Set(key string, value any) {
	c.sets++
	c.inner.Set(key, value)
}

func TestBindPredicateExprTracksPropertyValues(t *testing.T) {
	type order struct{}
	o, err := New[order]()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := Set(o, "count", 5); err != nil {
		t.Fatalf("set: %v", err)
	}

	predicate, err := BindPredicate(o, NewExprPredicateEvaluator(), "count > 3")
	if err != nil {
		t.Fatalf("bind: %v", err)
	}

	if !predicate() {
		t.Fatalf("expected executable with count=5")
	}
	if err := Set(o, "count", 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	if predicate() {
		t.Fatalf("expected not executable with count=1")
	}
}

func TestBindPredicateNonBoolReadsAsNotExecutable(t *testing.T) {
	type order struct{}
	o, err := New[order]()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := Set(o, "count", 5); err != nil {
		t.Fatalf("set: %v", err)
	}

	var logged []PredicateLogEvent
	predicate, err := BindPredicate(o, NewExprPredicateEvaluator(), "count + 1",
		BindWithLogger(PredicateLoggerFunc(func(event PredicateLogEvent) {
			logged = append(logged, event)
		})),
	)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}

	if predicate() {
		t.Fatalf("expected non-bool result to read as not executable")
	}
	if len(logged) != 1 {
		t.Fatalf("expected one log event, got %d", len(logged))
	}
	var predErr *PredicateError
	if !errors.As(logged[0].Err, &predErr) {
		t.Fatalf("expected PredicateError in log, got %v", logged[0].Err)
	}
}

func TestBindPredicateDefaultsToObjectLogger(t *testing.T) {
	type order struct{}
	var fromObject []PredicateLogEvent
	o, err := New[order](WithPredicateLogger(PredicateLoggerFunc(func(event PredicateLogEvent) {
		fromObject = append(fromObject, event)
	})))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := Set(o, "count", 5); err != nil {
		t.Fatalf("set: %v", err)
	}

	predicate, err := BindPredicate(o, NewExprPredicateEvaluator(), "count > 3")
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if !predicate() {
		t.Fatalf("expected executable with count=5")
	}
	if len(fromObject) != 1 || fromObject[0].Expr != "count > 3" || !fromObject[0].Result {
		t.Fatalf("expected one log event via the object logger, got %+v", fromObject)
	}

	// A bind-time logger takes precedence over the object's.
	var fromBind []PredicateLogEvent
	override, err := BindPredicate(o, NewExprPredicateEvaluator(), "count > 3",
		BindWithLogger(PredicateLoggerFunc(func(event PredicateLogEvent) {
			fromBind = append(fromBind, event)
		})),
	)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	override()
	if len(fromBind) != 1 {
		t.Fatalf("expected the bind logger to receive the event, got %d", len(fromBind))
	}
	if len(fromObject) != 1 {
		t.Fatalf("expected the object logger to be bypassed, got %d events", len(fromObject))
	}
}

func TestBindPredicateCompileErrorSurfaces(t *testing.T) {
	type order struct{}
	o, err := New[order]()
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	_, err = BindPredicate(o, NewExprPredicateEvaluator(), "count >")
	if err == nil {
		t.Fatalf("expected compile error")
	}
	var predErr *PredicateError
	if !errors.As(err, &predErr) || predErr.Engine != "expr" {
		t.Fatalf("expected expr PredicateError, got %v", err)
	}
}

func TestExprEmptyExpressionRejected(t *testing.T) {
	evaluator := NewExprPredicateEvaluator()
	if _, err := evaluator.Compile(""); err == nil {
		t.Fatalf("expected error for empty expression")
	}
	if _, err := evaluator.Evaluate(PredicateContext{}, ""); err == nil {
		t.Fatalf("expected error for empty expression")
	}
}

func TestExprProgramCacheReuse(t *testing.T) {
	cache := newCountingCache()
	evaluator := NewExprPredicateEvaluator(ExprWithProgramCache(cache))

	compiled, err := evaluator.Compile("count > 3")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("expected one cache store, got %d", cache.sets)
	}

	if _, err := compiled.Evaluate(PredicateContext{Snapshot: map[string]any{"count": 5}}); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if _, err := evaluator.Compile("count > 3"); err != nil {
		t.Fatalf("recompile: %v", err)
	}
	if cache.hits == 0 {
		t.Fatalf("expected the second compile to hit the cache")
	}
	if cache.sets != 1 {
		t.Fatalf("expected no further cache stores, got %d", cache.sets)
	}
}

func TestExprFunctionRegistryCallable(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("threshold", func(...any) (any, error) { return 3, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	evaluator := NewExprPredicateEvaluator(ExprWithFunctionRegistry(registry))

	result, err := evaluator.Evaluate(PredicateContext{
		Snapshot: map[string]any{"count": 5},
	}, "count > threshold()")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result != true {
		t.Fatalf("expected true, got %v", result)
	}
}

func TestCommandWithExpressionPredicate(t *testing.T) {
	type editor struct{}
	o, err := New[editor]()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := Set(o, "dirty", false); err != nil {
		t.Fatalf("set: %v", err)
	}

	predicate, err := BindPredicate(o, NewExprPredicateEvaluator(), "dirty")
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	save := NewCommand(func() error { return nil }, WithPredicate(predicate))
	if err := Set(o, "SaveCommand", save); err != nil {
		t.Fatalf("set command: %v", err)
	}

	if save.CanExecute() {
		t.Fatalf("expected not executable while clean")
	}
	if err := Set(o, "dirty", true); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !save.CanExecute() {
		t.Fatalf("expected executable once dirty")
	}
}
