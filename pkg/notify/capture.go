package notify

import "sync"

// CaptureHook records events for assertions in tests.
type CaptureHook struct {
	mu     sync.Mutex
	events []Event
}

// Notify records the event.
func (h *CaptureHook) Notify(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

// Events returns a copy of the recorded events in arrival order.
func (h *CaptureHook) Events() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Event, len(h.events))
	copy(out, h.events)
	return out
}

// Properties returns the Property field of every recorded event matching
// kind, in arrival order.
func (h *CaptureHook) Properties(kind Kind) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, event := range h.events {
		if event.Kind == kind {
			out = append(out, event.Property)
		}
	}
	return out
}

// Reset discards the recorded events.
func (h *CaptureHook) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = nil
}
