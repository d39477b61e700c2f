package mvvm

import "sort"

// DependencyGraph is the immutable per-type table describing which properties
// must be re-notified when another property changes. Build one from
// declarations via BuildGraph, or let New build it lazily on first use.
type DependencyGraph struct {
	implicit map[string]struct{}
	edges    map[string]map[string]struct{}
}

// Declaration contributes one property's metadata to a graph under
// construction.
type Declaration func(*graphBuilder) error

type graphBuilder struct {
	computed map[string]struct{}
	edges    map[string]map[string]struct{}
}

// Computed marks name as a get-only computed property. Unless an explicit
// edge targets it, the property is treated as dependent on every other
// property and re-notified on every Set.
func Computed(name string) Declaration {
	return func(b *graphBuilder) error {
		if name == "" {
			return &DeclarationError{Reason: "computed property name must not be empty"}
		}
		b.computed[name] = struct{}{}
		return nil
	}
}

// DependsOn declares that name must be re-notified whenever any of parents
// change. An explicit declaration with no parents is rejected.
func DependsOn(name string, parents ...string) Declaration {
	return func(b *graphBuilder) error {
		if name == "" {
			return &DeclarationError{Reason: "dependent property name must not be empty"}
		}
		if len(parents) == 0 {
			return &DeclarationError{Property: name, Reason: "DependsOn requires at least one parent"}
		}
		for _, parent := range parents {
			if parent == "" {
				return &DeclarationError{Property: name, Reason: "parent name must not be empty"}
			}
			b.addEdge(parent, name)
		}
		return nil
	}
}

// Notifies declares that a change to name must re-notify each of dependents.
// It is the symmetric form of DependsOn; edges from both styles merge into
// the same set.
func Notifies(name string, dependents ...string) Declaration {
	return func(b *graphBuilder) error {
		if name == "" {
			return &DeclarationError{Reason: "parent property name must not be empty"}
		}
		if len(dependents) == 0 {
			return &DeclarationError{Property: name, Reason: "Notifies requires at least one dependent"}
		}
		for _, dependent := range dependents {
			if dependent == "" {
				return &DeclarationError{Property: name, Reason: "dependent name must not be empty"}
			}
			b.addEdge(name, dependent)
		}
		return nil
	}
}

func (b *graphBuilder) addEdge(parent, dependent string) {
	set := b.edges[parent]
	if set == nil {
		set = map[string]struct{}{}
		b.edges[parent] = set
	}
	set[dependent] = struct{}{}
}

func (b *graphBuilder) isEdgeTarget(name string) bool {
	for _, set := range b.edges {
		if _, ok := set[name]; ok {
			return true
		}
	}
	return false
}

func buildGraph(decls []Declaration) (*DependencyGraph, error) {
	b := &graphBuilder{
		computed: map[string]struct{}{},
		edges:    map[string]map[string]struct{}{},
	}
	for _, decl := range decls {
		if decl == nil {
			continue
		}
		if err := decl(b); err != nil {
			return nil, err
		}
	}

	// A computed property with its own explicit edges is notified only when
	// its declared parents change; the rest stay dependent on everything.
	implicit := make(map[string]struct{}, len(b.computed))
	for name := range b.computed {
		if b.isEdgeTarget(name) {
			continue
		}
		implicit[name] = struct{}{}
	}

	return &DependencyGraph{implicit: implicit, edges: b.edges}, nil
}

// DependentsOf returns the properties to re-notify after name changes: every
// implicit dependent plus the declared dependents of name, deduplicated and
// sorted. The result never contains name itself, even when a declaration
// produced a self-edge.
func (g *DependencyGraph) DependentsOf(name string) []string {
	if g == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(g.implicit))
	for dependent := range g.implicit {
		if dependent == name {
			continue
		}
		seen[dependent] = struct{}{}
	}
	for dependent := range g.edges[name] {
		if dependent == name {
			continue
		}
		seen[dependent] = struct{}{}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for dependent := range seen {
		out = append(out, dependent)
	}
	sort.Strings(out)
	return out
}
