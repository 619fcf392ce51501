// Package testutil provides helpers shared by crosstalk tests.
package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/crosstalk-io/crosstalk/internal/event"
)

// EventRecorder subscribes to a bus and collects everything published.
// Handlers run on publisher goroutines, so access is mutex-guarded.
type EventRecorder struct {
	mu     sync.Mutex
	events []event.Event
}

// NewEventRecorder creates a recorder subscribed to every event type on bus.
func NewEventRecorder(bus *event.Bus) *EventRecorder {
	r := &EventRecorder{}
	bus.SubscribeAll(func(e event.Event) {
		r.mu.Lock()
		r.events = append(r.events, e)
		r.mu.Unlock()
	})
	return r
}

// Events returns a copy of everything recorded so far.
func (r *EventRecorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Event(nil), r.events...)
}

// OfType returns the recorded events with the given type, in order.
func (r *EventRecorder) OfType(eventType string) []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []event.Event
	for _, e := range r.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many recorded events match pred.
func (r *EventRecorder) Count(pred func(event.Event) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if pred(e) {
			n++
		}
	}
	return n
}

// WaitFor polls until pred matches at least one recorded event or the
// timeout elapses, reporting whether a match arrived.
func (r *EventRecorder) WaitFor(pred func(event.Event) bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if r.Count(pred) > 0 {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

// Eventually polls cond every tick until it holds, failing the test after
// timeout.
func Eventually(t *testing.T, timeout, tick time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(tick)
	}
	t.Fatalf("condition not met within %v: %s", timeout, msg)
}
