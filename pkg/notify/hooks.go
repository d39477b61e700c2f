package notify

import "time"

// Kind classifies a notification event.
type Kind string

const (
	// PropertyChanging is raised before a property value is written.
	PropertyChanging Kind = "property.changing"
	// PropertyChanged is raised after a property value is written, and once
	// more for every dependent property the dependency graph reports.
	PropertyChanged Kind = "property.changed"
	// EnabledChanged signals that a command's executable state may have
	// changed. Subscribers re-query CanExecute themselves.
	EnabledChanged Kind = "command.enabled"
)

// Event describes a single notification occurrence fanned out to hooks.
// Source is the originating observable or command; Property is empty for
// EnabledChanged events.
type Event struct {
	Kind       Kind
	Source     any
	Property   string
	OccurredAt time.Time
}

// Hook receives notification events.
type Hook interface {
	Notify(event Event)
}

// HookFunc allows plain functions to satisfy Hook.
type HookFunc func(event Event)

// Notify dispatches to the underlying function.
func (fn HookFunc) Notify(event Event) {
	if fn != nil {
		fn(event)
	}
}

// Hooks fans out events to zero or more hooks.
type Hooks []Hook

// Enabled reports whether there are any hooks to notify.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify forwards the event to every hook in order, stamping OccurredAt when
// the caller left it zero.
func (h Hooks) Notify(event Event) {
	if len(h) == 0 {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	for _, hook := range h {
		if hook == nil {
			continue
		}
		hook.Notify(event)
	}
}

// Clone returns a copy of hooks with nil entries dropped, so the result stays
// valid even if the caller mutates their slice.
func Clone(hooks Hooks) Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]Hook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return Hooks(normalized)
}
