package notify

import (
	"reflect"
	"testing"
)

func TestHooksNotifyDeliversInOrderAndSkipsNil(t *testing.T) {
	var order []string
	first := HookFunc(func(Event) { order = append(order, "first") })
	second := HookFunc(func(Event) { order = append(order, "second") })

	hooks := Hooks{first, nil, second}
	hooks.Notify(Event{Kind: PropertyChanged, Property: "Name"})

	if !reflect.DeepEqual(order, []string{"first", "second"}) {
		t.Fatalf("expected ordered delivery, got %v", order)
	}
}

func TestHooksNotifyStampsTimestamp(t *testing.T) {
	var got Event
	hooks := Hooks{HookFunc(func(event Event) { got = event })}

	hooks.Notify(Event{Kind: PropertyChanging, Property: "Name"})

	if got.OccurredAt.IsZero() {
		t.Fatalf("expected a timestamp to be stamped")
	}
}

func TestHooksEnabled(t *testing.T) {
	if (Hooks{}).Enabled() {
		t.Fatalf("expected empty hooks to be disabled")
	}
	if !(Hooks{HookFunc(func(Event) {})}).Enabled() {
		t.Fatalf("expected non-empty hooks to be enabled")
	}
}

func TestCloneDropsNilEntries(t *testing.T) {
	hook := HookFunc(func(Event) {})

	cloned := Clone(Hooks{nil, hook, nil})
	if len(cloned) != 1 {
		t.Fatalf("expected one hook, got %d", len(cloned))
	}
	if Clone(Hooks{nil, nil}) != nil {
		t.Fatalf("expected nil when only nil entries remain")
	}
	if Clone(nil) != nil {
		t.Fatalf("expected nil for nil input")
	}
}

func TestNilHookFuncIsSafe(t *testing.T) {
	var fn HookFunc
	fn.Notify(Event{}) // must not panic
}
