package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Broadcaster is a multi-subscriber event channel. Subscribers are addressed
// by UUID tokens and receive events in subscription order. The registry is
// mutex-guarded because command completions signal from worker goroutines.
type Broadcaster struct {
	mu    sync.Mutex
	order []uuid.UUID
	hooks map[uuid.UUID]Hook
}

// NewBroadcaster constructs an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{hooks: map[uuid.UUID]Hook{}}
}

// Subscription identifies one registered hook and can cancel it.
type Subscription struct {
	id    uuid.UUID
	owner *Broadcaster
}

// ID returns the subscription token.
func (s Subscription) ID() uuid.UUID {
	return s.id
}

// Cancel removes the hook; later events are not delivered. Cancelling twice
// is harmless.
func (s Subscription) Cancel() {
	if s.owner != nil {
		s.owner.cancel(s.id)
	}
}

// Subscribe registers hook and returns its subscription. A nil hook still
// receives a valid, cancellable subscription and is skipped during emission.
func (b *Broadcaster) Subscribe(hook Hook) Subscription {
	id := uuid.New()
	b.mu.Lock()
	if b.hooks == nil {
		b.hooks = map[uuid.UUID]Hook{}
	}
	b.hooks[id] = hook
	b.order = append(b.order, id)
	b.mu.Unlock()
	return Subscription{id: id, owner: b}
}

// Len reports the number of live subscriptions.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.hooks)
}

// Emit delivers event to every live subscriber. Hooks run outside the
// registry lock so a hook may subscribe or cancel without deadlocking;
// such changes take effect from the next emission.
func (b *Broadcaster) Emit(event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	b.mu.Lock()
	hooks := make([]Hook, 0, len(b.order))
	for _, id := range b.order {
		if hook, ok := b.hooks[id]; ok && hook != nil {
			hooks = append(hooks, hook)
		}
	}
	b.mu.Unlock()
	for _, hook := range hooks {
		hook.Notify(event)
	}
}

func (b *Broadcaster) cancel(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.hooks[id]; !ok {
		return
	}
	delete(b.hooks, id)
	for i, got := range b.order {
		if got == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}
