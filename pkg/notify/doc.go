// Package notify carries the change-notification fabric used by observable
// objects and commands: typed events, hook fan-out, and a cancellable
// multi-subscriber broadcaster. UI binding layers subscribe here; the core
// never interprets what subscribers do with an event.
package notify
