package mvvm

import "github.com/yukitsune/go-mvvm/pkg/notify"

// Command wraps a synchronous action and an optional executable predicate.
// Store commands inside Observable property slots so the Set fan-out reaches
// them.
type Command struct {
	action    func() error
	predicate func() bool
	enabled   *notify.Broadcaster
}

// CommandOption configures a Command.
type CommandOption func(*Command)

// WithPredicate supplies the executable predicate. Without one the command is
// always executable.
func WithPredicate(predicate func() bool) CommandOption {
	return func(c *Command) {
		c.predicate = predicate
	}
}

// NewCommand constructs a synchronous command around action.
func NewCommand(action func() error, opts ...CommandOption) *Command {
	c := &Command{
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

// CanExecute evaluates the predicate; true when none was supplied.
func (c *Command) CanExecute() bool {
	if c.predicate == nil {
		return true
	}
	return c.predicate()
}

// Execute runs the action when the command is executable and returns the
// action's error unmodified. When CanExecute is false it is a no-op.
func (c *Command) Execute() error {
	if !c.CanExecute() {
		return nil
	}
	if c.action == nil {
		return nil
	}
	return c.action()
}

// OnEnabledChanged subscribes hook to this command's enabled-state signal.
func (c *Command) OnEnabledChanged(hook notify.Hook) notify.Subscription {
	return c.enabled.Subscribe(hook)
}

// RaiseEnabledChanged rebroadcasts to subscribers without re-evaluating the
// predicate; evaluation is pull-based through CanExecute.
func (c *Command) RaiseEnabledChanged() {
	c.enabled.Emit(notify.Event{Kind: notify.EnabledChanged, Source: c})
}
