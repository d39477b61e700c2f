// Package mvvm implements an observable-property runtime for view models:
// a property store with pre- and post-change notifications, a per-type
// dependency graph that fans change notifications out to computed
// properties, and command objects whose enabled state rides the same
// notification fabric.
package mvvm

import (
	"reflect"

	"github.com/yukitsune/go-mvvm/pkg/notify"
)

// EnabledNotifier is the capability the Set fan-out looks for in stored
// values: anything stored in a property slot that implements it is told its
// executable state may have changed after every property write. Command and
// AsyncCommand both implement it.
type EnabledNotifier interface {
	RaiseEnabledChanged()
}

// Observable is the view-model base: a property store paired with its type's
// dependency graph and two broadcast channels. Instances are not safe for
// concurrent mutation; callers serialize access themselves, typically on a
// single UI or event-loop goroutine.
type Observable struct {
	graph    *DependencyGraph
	values   map[string]any
	changing *notify.Broadcaster
	changed  *notify.Broadcaster
	hooks    notify.Hooks
	logger   PredicateLogger
}

// Option configures an Observable during construction.
type Option func(*observableConfig)

type observableConfig struct {
	declarations []Declaration
	hooks        notify.Hooks
	logger       PredicateLogger
}

// WithDeclarations supplies the dependency declarations used when this type's
// graph is built on first construction. Later constructions of the same type
// reuse the cached graph and ignore the declarations, so the set passed here
// should be static per type.
func WithDeclarations(decls ...Declaration) Option {
	return func(cfg *observableConfig) {
		cfg.declarations = append(cfg.declarations, decls...)
	}
}

// WithChangeHooks attaches hooks invoked for every changing and changed
// notification, ahead of per-subscription hooks. Hooks are cloned and nil
// entries dropped.
func WithChangeHooks(hooks notify.Hooks) Option {
	normalized := notify.Clone(hooks)
	return func(cfg *observableConfig) {
		cfg.hooks = normalized
	}
}

// WithPredicateLogger installs the default logger for predicates bound to
// this object. BindPredicate uses it whenever no BindWithLogger option is
// supplied at bind time.
func WithPredicateLogger(logger PredicateLogger) Option {
	return func(cfg *observableConfig) {
		cfg.logger = logger
	}
}

// New constructs an Observable for view-model type T. The first construction
// of a type builds its dependency graph from the declared metadata and caches
// it for the process lifetime; concurrent first constructions retain exactly
// one graph.
func New[T any](opts ...Option) (*Observable, error) {
	cfg := observableConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	graph, err := graphs.ensure(typeKey[T](), cfg.declarations)
	if err != nil {
		return nil, err
	}
	return &Observable{
		graph:    graph,
		values:   map[string]any{},
		changing: notify.NewBroadcaster(),
		changed:  notify.NewBroadcaster(),
		hooks:    cfg.hooks,
		logger:   cfg.logger,
	}, nil
}

// Graph returns the dependency graph this object notifies through.
func (o *Observable) Graph() *DependencyGraph {
	return o.graph
}

// OnChanging subscribes hook to pre-mutation notifications.
func (o *Observable) OnChanging(hook notify.Hook) notify.Subscription {
	return o.changing.Subscribe(hook)
}

// OnChanged subscribes hook to post-mutation notifications, including the
// dependent-property notifications fanned out by Set.
func (o *Observable) OnChanged(hook notify.Hook) notify.Subscription {
	return o.changed.Subscribe(hook)
}

// Has reports whether name currently holds a stored value.
func (o *Observable) Has(name string) bool {
	_, ok := o.values[name]
	return ok
}

// Snapshot returns a shallow copy of the stored property values. It feeds
// predicate expression environments and is safe for the caller to mutate.
func (o *Observable) Snapshot() map[string]any {
	out := make(map[string]any, len(o.values))
	for name, value := range o.values {
		out[name] = value
	}
	return out
}

// Get returns the value stored under name typed as V, or V's zero value when
// the property was never set. It never mutates the store; use GetOr to
// materialize a default.
func Get[V any](o *Observable, name string) (V, error) {
	var zero V
	if err := validName(name); err != nil {
		return zero, err
	}
	raw, ok := o.values[name]
	if !ok {
		return zero, nil
	}
	value, ok := raw.(V)
	if !ok {
		return zero, &WrongTypeError{
			Property: name,
			Want:     reflect.TypeOf((*V)(nil)).Elem().String(),
			Got:      typeName(raw),
		}
	}
	return value, nil
}

// GetOr returns the value stored under name, first materializing def through
// a full Set when the property is absent. The materializing write raises the
// same notifications as any other Set and happens at most once; later calls
// read the stored value.
func GetOr[V any](o *Observable, name string, def V) (V, error) {
	var zero V
	if err := validName(name); err != nil {
		return zero, err
	}
	if _, ok := o.values[name]; !ok {
		if err := Set(o, name, def); err != nil {
			return zero, err
		}
	}
	return Get[V](o, name)
}

// Set writes value under name and fans out notifications in order: changing
// for name, the store write, changed for name, changed for each dependent the
// graph reports (exactly one level deep, lexically sorted), then a single
// enabled-state rebroadcast to every stored command.
func Set[V any](o *Observable, name string, value V) error {
	if err := validName(name); err != nil {
		return err
	}
	o.emit(notify.PropertyChanging, name)
	o.values[name] = value
	o.emit(notify.PropertyChanged, name)
	for _, dependent := range o.graph.DependentsOf(name) {
		o.emit(notify.PropertyChanged, dependent)
	}
	o.raiseEnabledChanged()
	return nil
}

func (o *Observable) emit(kind notify.Kind, name string) {
	event := notify.Event{Kind: kind, Source: o, Property: name}
	o.hooks.Notify(event)
	switch kind {
	case notify.PropertyChanging:
		o.changing.Emit(event)
	case notify.PropertyChanged:
		o.changed.Emit(event)
	}
}

// raiseEnabledChanged tells every stored command its executable state may
// have changed. Predicate evaluation stays pull-based; this only
// rebroadcasts.
func (o *Observable) raiseEnabledChanged() {
	for _, raw := range o.values {
		if command, ok := raw.(EnabledNotifier); ok {
			command.RaiseEnabledChanged()
		}
	}
}

func typeName(value any) string {
	if value == nil {
		return "<nil>"
	}
	return reflect.TypeOf(value).String()
}
