package event

import (
	"sync"
	"testing"
	"time"
)

func TestBus_Subscribe(t *testing.T) {
	bus := NewBus()

	called := false
	id := bus.Subscribe(TypeAgentStatus, func(e Event) {
		called = true
	})

	if id == "" {
		t.Error("Subscribe should return a non-empty ID")
	}

	if bus.SubscriptionCount() != 1 {
		t.Errorf("Expected 1 subscription, got %d", bus.SubscriptionCount())
	}

	if called {
		t.Error("Handler should not be called until an event is published")
	}
}

func TestBus_Publish(t *testing.T) {
	bus := NewBus()

	var receivedEvent Event
	bus.Subscribe(TypeFloorGranted, func(e Event) {
		receivedEvent = e
	})

	bus.Publish(NewFloorGrantedEvent("P2", false, time.Now().Add(time.Second)))

	if receivedEvent == nil {
		t.Fatal("Handler should have received the event")
	}

	granted, ok := receivedEvent.(FloorGrantedEvent)
	if !ok {
		t.Fatalf("Expected FloorGrantedEvent, got %T", receivedEvent)
	}
	if granted.AgentID != "P2" {
		t.Errorf("Expected agent P2, got %q", granted.AgentID)
	}
	if granted.Interrupt {
		t.Error("Grant should not be marked as an interrupt")
	}
}

func TestBus_PublishMultipleHandlers(t *testing.T) {
	bus := NewBus()

	callCount := 0
	bus.Subscribe(TypeAgentStatus, func(e Event) {
		callCount++
	})
	bus.Subscribe(TypeAgentStatus, func(e Event) {
		callCount++
	})

	bus.Publish(NewStatusEvent("P1", ActivityThinking, StatusOn))

	if callCount != 2 {
		t.Errorf("Expected both handlers to be called, got %d calls", callCount)
	}
}

func TestBus_PublishNoMatchingHandlers(t *testing.T) {
	bus := NewBus()

	bus.Subscribe(TypeFloorReleased, func(e Event) {
		t.Error("Handler should not be called for non-matching event type")
	})

	// This should not panic or call the handler
	bus.Publish(newBaseEvent("test.event"))
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus()

	var events []string
	bus.SubscribeAll(func(e Event) {
		events = append(events, e.EventType())
	})

	bus.Publish(NewStatusEvent("P1", ActivityThinking, StatusOn))
	bus.Publish(NewFloorCollisionEvent("P2", "P1"))
	bus.Publish(NewFloorReleasedEvent("P2", "deadline"))

	expected := []string{TypeAgentStatus, TypeFloorCollision, TypeFloorReleased}
	if len(events) != len(expected) {
		t.Fatalf("Expected %d events, got %d", len(expected), len(events))
	}
	for i, e := range expected {
		if events[i] != e {
			t.Errorf("Expected event %d to be %q, got %q", i, e, events[i])
		}
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()

	called := false
	id := bus.Subscribe(TypeAgentStatus, func(e Event) {
		called = true
	})

	removed := bus.Unsubscribe(id)
	if !removed {
		t.Error("Unsubscribe should return true when subscription exists")
	}

	if bus.SubscriptionCount() != 0 {
		t.Errorf("Expected 0 subscriptions after unsubscribe, got %d", bus.SubscriptionCount())
	}

	bus.Publish(NewStatusEvent("P1", ActivityTalking, StatusOn))

	if called {
		t.Error("Handler should not be called after unsubscribing")
	}
}

func TestBus_UnsubscribeNonExistent(t *testing.T) {
	bus := NewBus()

	removed := bus.Unsubscribe("non-existent-id")
	if removed {
		t.Error("Unsubscribe should return false for non-existent ID")
	}
}

func TestBus_UnsubscribeOne(t *testing.T) {
	bus := NewBus()

	calls := make(map[string]int)
	id1 := bus.Subscribe(TypeAgentStatus, func(e Event) {
		calls["handler1"]++
	})
	bus.Subscribe(TypeAgentStatus, func(e Event) {
		calls["handler2"]++
	})

	bus.Unsubscribe(id1)

	bus.Publish(NewStatusEvent("P1", ActivityListening, StatusMessageReceived))

	if calls["handler1"] != 0 {
		t.Error("handler1 should not be called after unsubscribing")
	}
	if calls["handler2"] != 1 {
		t.Error("handler2 should still be called")
	}
}

func TestBus_Clear(t *testing.T) {
	bus := NewBus()

	bus.Subscribe(TypeAgentStatus, func(e Event) {})
	bus.Subscribe(TypeFloorGranted, func(e Event) {})
	bus.SubscribeAll(func(e Event) {})

	if bus.SubscriptionCount() != 3 {
		t.Errorf("Expected 3 subscriptions before clear, got %d", bus.SubscriptionCount())
	}

	bus.Clear()

	if bus.SubscriptionCount() != 0 {
		t.Errorf("Expected 0 subscriptions after clear, got %d", bus.SubscriptionCount())
	}
}

func TestBus_HandlerPanicRecovery(t *testing.T) {
	bus := NewBus()

	calls := 0
	bus.Subscribe(TypeAgentStatus, func(e Event) {
		calls++
		panic("handler panic")
	})
	bus.Subscribe(TypeAgentStatus, func(e Event) {
		calls++
	})

	// Should not panic
	bus.Publish(NewStatusEvent("P1", ActivityThinking, StatusMessageGenerated))

	if calls != 2 {
		t.Errorf("Expected both handlers to be called despite panic, got %d calls", calls)
	}
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	calls := 0
	bus.Subscribe(TypeAgentStatus, func(e Event) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for range 100 {
		wg.Go(func() {
			bus.Publish(NewStatusEvent("P1", ActivityTalking, StatusMessageSent))
		})
	}
	wg.Wait()

	if calls != 100 {
		t.Errorf("Expected 100 calls, got %d", calls)
	}
}

func TestBus_ConcurrentSubscribeUnsubscribe(t *testing.T) {
	bus := NewBus()

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			id := bus.Subscribe(TypeAgentStatus, func(e Event) {})
			bus.Unsubscribe(id)
		})
	}
	wg.Wait()

	if bus.SubscriptionCount() != 0 {
		t.Errorf("Expected 0 subscriptions after concurrent add/remove, got %d", bus.SubscriptionCount())
	}
}

func TestBus_MixedSubscriptions(t *testing.T) {
	bus := NewBus()

	var events []string
	bus.Subscribe(TypeMessage, func(e Event) {
		events = append(events, "specific:"+e.EventType())
	})
	bus.SubscribeAll(func(e Event) {
		events = append(events, "wildcard:"+e.EventType())
	})

	bus.Publish(NewMessageEvent("P1", "P2", 1, "hello"))

	if len(events) != 2 {
		t.Fatalf("Expected 2 handler calls, got %d", len(events))
	}
	if events[0] != "specific:"+TypeMessage {
		t.Errorf("Specific handler should run first, got %q", events[0])
	}
	if events[1] != "wildcard:"+TypeMessage {
		t.Errorf("Wildcard handler should run second, got %q", events[1])
	}
}

func TestBus_UniqueIDs(t *testing.T) {
	bus := NewBus()

	ids := make(map[string]bool)
	for range 100 {
		id := bus.Subscribe(TypeAgentStatus, func(e Event) {})
		if ids[id] {
			t.Errorf("Duplicate subscription ID: %s", id)
		}
		ids[id] = true
	}
}

func TestStatusEvent_Fields(t *testing.T) {
	e := NewStatusEvent("P2", ActivityListening, StatusMessageReceived)

	if e.EventType() != TypeAgentStatus {
		t.Errorf("Expected type %q, got %q", TypeAgentStatus, e.EventType())
	}
	if e.Timestamp().IsZero() {
		t.Error("Timestamp should be set")
	}
	if e.AgentID != "P2" || e.Activity != ActivityListening || e.Status != StatusMessageReceived {
		t.Errorf("Unexpected fields: %+v", e)
	}
}
