package mvvm

import (
	"context"
	"sync"

	"github.com/yukitsune/go-mvvm/pkg/notify"
)

// AsyncCommand wraps an asynchronous action with an Idle/Executing state
// machine. Unless concurrent execution is allowed, the command reports itself
// not executable while a run is in flight, and entering or leaving the
// Executing state raises its enabled-state signal.
type AsyncCommand struct {
	action          func(context.Context) error
	predicate       func() bool
	errorHandler    func(error)
	allowConcurrent bool

	enabled *notify.Broadcaster

	mu        sync.Mutex
	executing bool
}

// AsyncCommandOption configures an AsyncCommand.
type AsyncCommandOption func(*AsyncCommand)

// WithAsyncPredicate supplies the executable predicate. Without one the
// command is executable whenever it is idle.
func WithAsyncPredicate(predicate func() bool) AsyncCommandOption {
	return func(c *AsyncCommand) {
		c.predicate = predicate
	}
}

// WithAllowConcurrent permits overlapping ExecuteAsync runs. Off by default:
// a second call issued while one is in flight resolves immediately with no
// effect.
func WithAllowConcurrent(allow bool) AsyncCommandOption {
	return func(c *AsyncCommand) {
		c.allowConcurrent = allow
	}
}

// WithErrorHandler routes action errors from the fire-and-forget Execute
// path. Without a handler those errors are silently discarded; awaited
// ExecuteAsync calls always return the error to the caller instead.
func WithErrorHandler(handler func(error)) AsyncCommandOption {
	return func(c *AsyncCommand) {
		c.errorHandler = handler
	}
}

// NewAsyncCommand constructs an asynchronous command around action.
func NewAsyncCommand(action func(context.Context) error, opts ...AsyncCommandOption) *AsyncCommand {
	c := &AsyncCommand{
		action:  action,
		enabled: notify.NewBroadcaster(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// IsExecuting reports whether a run is currently in flight.
func (c *AsyncCommand) IsExecuting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.executing
}

// CanExecute is false while a run is in flight unless concurrency is allowed,
// and otherwise defers to the predicate (default true).
func (c *AsyncCommand) CanExecute() bool {
	if c.IsExecuting() && !c.allowConcurrent {
		return false
	}
	if c.predicate == nil {
		return true
	}
	return c.predicate()
}

// ExecuteAsync runs the action, holding the Executing state until it returns.
// When the command is not executable the call resolves immediately with no
// effect and a nil error. The state always falls back to Idle, error or not,
// and the action's error is returned to the caller.
func (c *AsyncCommand) ExecuteAsync(ctx context.Context) error {
	if !c.begin() {
		return nil
	}
	defer c.end()
	if c.action == nil {
		return nil
	}
	return c.action(ctx)
}

// Execute starts ExecuteAsync without the caller waiting for completion.
// Action errors go to the configured error handler; with no handler they are
// discarded, the documented default for the fire-and-forget path.
func (c *AsyncCommand) Execute() {
	go func() {
		if err := c.ExecuteAsync(context.Background()); err != nil && c.errorHandler != nil {
			c.errorHandler(err)
		}
	}()
}

// OnEnabledChanged subscribes hook to this command's enabled-state signal,
// raised both by property fan-out and by Idle/Executing transitions.
func (c *AsyncCommand) OnEnabledChanged(hook notify.Hook) notify.Subscription {
	return c.enabled.Subscribe(hook)
}

// RaiseEnabledChanged rebroadcasts to subscribers without re-evaluating the
// predicate.
func (c *AsyncCommand) RaiseEnabledChanged() {
	c.enabled.Emit(notify.Event{Kind: notify.EnabledChanged, Source: c})
}

// begin attempts the Idle -> Executing transition, checking in the same order
// as CanExecute: executing state first, then the predicate. The predicate runs
// outside the state lock; the executing flag check-and-set runs inside it so
// two racing calls cannot both start when concurrency is disallowed.
func (c *AsyncCommand) begin() bool {
	if c.IsExecuting() && !c.allowConcurrent {
		return false
	}
	if c.predicate != nil && !c.predicate() {
		return false
	}
	c.mu.Lock()
	if c.executing && !c.allowConcurrent {
		c.mu.Unlock()
		return false
	}
	transitioned := !c.executing
	c.executing = true
	c.mu.Unlock()
	if transitioned {
		c.RaiseEnabledChanged()
	}
	return true
}

// end releases the Executing state. It runs deferred so the transition back
// to Idle survives action errors.
func (c *AsyncCommand) end() {
	c.mu.Lock()
	transitioned := c.executing
	c.executing = false
	c.mu.Unlock()
	if transitioned {
		c.RaiseEnabledChanged()
	}
}
