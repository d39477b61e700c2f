package mvvm

import (
	"fmt"
	"reflect"
	"sync"
)

// graphRegistry caches one immutable DependencyGraph per view-model type for
// the process lifetime. The lock guards the check-then-insert on first
// construction so concurrent callers retain exactly one graph and never see
// a partially built one.
type graphRegistry struct {
	mu     sync.RWMutex
	graphs map[reflect.Type]*DependencyGraph
}

var graphs = &graphRegistry{graphs: map[reflect.Type]*DependencyGraph{}}

func typeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// BuildGraph builds the dependency graph for view-model type T and installs
// it in the process-wide registry. Building a second graph for a type that
// already has one fails with ErrAlreadyInitialized.
func BuildGraph[T any](decls ...Declaration) (*DependencyGraph, error) {
	return graphs.install(typeKey[T](), decls)
}

// GraphFor returns the graph previously built for T, or ErrNotInitialized
// when none exists.
func GraphFor[T any]() (*DependencyGraph, error) {
	return graphs.lookup(typeKey[T]())
}

func (r *graphRegistry) install(key reflect.Type, decls []Declaration) (*DependencyGraph, error) {
	graph, err := buildGraph(decls)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.graphs[key]; exists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyInitialized, key)
	}
	r.graphs[key] = graph
	return graph, nil
}

func (r *graphRegistry) lookup(key reflect.Type) (*DependencyGraph, error) {
	r.mu.RLock()
	graph, ok := r.graphs[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotInitialized, key)
	}
	return graph, nil
}

// ensure returns the cached graph for key, building it from decls when
// absent. Unlike install, finding an existing graph is the expected fast
// path, not an error.
func (r *graphRegistry) ensure(key reflect.Type, decls []Declaration) (*DependencyGraph, error) {
	r.mu.RLock()
	graph, ok := r.graphs[key]
	r.mu.RUnlock()
	if ok {
		return graph, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.graphs[key]; ok {
		return cached, nil
	}
	built, err := buildGraph(decls)
	if err != nil {
		return nil, err
	}
	r.graphs[key] = built
	return built, nil
}
