package wire_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/crosstalk-io/crosstalk/internal/agent"
	"github.com/crosstalk-io/crosstalk/internal/event"
	"github.com/crosstalk-io/crosstalk/internal/floor"
	"github.com/crosstalk-io/crosstalk/internal/logging"
	"github.com/crosstalk-io/crosstalk/internal/thought"
	"github.com/crosstalk-io/crosstalk/internal/wire"
)

const (
	testPacing    = 10 * time.Millisecond
	testQueueWait = 20 * time.Millisecond
)

// harness wires one agent's transmitter to a real controller, fabric, and
// thought source, sending onto a single link.
type harness struct {
	bus    *event.Bus
	fabric *floor.Fabric
	ctrl   *floor.Controller
	source *thought.Source
	link   *wire.Link
	tx     *wire.Transmitter
}

func newHarness(t *testing.T, id agent.ID, params agent.Params, talkingProb float64) *harness {
	t.Helper()
	bus := event.NewBus()
	fabric := floor.NewFabric(bus)
	fabric.Join(id)

	ctrl := floor.NewController(agent.New(id, params), fabric, bus, logging.NewNop(),
		5*time.Millisecond, rand.New(rand.NewSource(1)))
	source := thought.NewSource(id, bus, logging.NewNop(),
		5*time.Millisecond, 0, 0, rand.New(rand.NewSource(2)))
	link := wire.NewLink(id, "peer", 64)
	tx := wire.NewTransmitter(id, source, ctrl, []*wire.Link{link}, bus, logging.NewNop(),
		testPacing, testQueueWait, talkingProb, rand.New(rand.NewSource(3)))

	return &harness{bus: bus, fabric: fabric, ctrl: ctrl, source: source, link: link, tx: tx}
}

func talkParams(minTalk, maxTalk time.Duration) agent.Params {
	return agent.Params{MinTalk: minTalk, MaxTalk: maxTalk}
}

// statusRecorder collects agent.status events for one activity.
type statusRecorder struct {
	mu       sync.Mutex
	statuses []event.Status
}

func recordStatuses(bus *event.Bus, activity event.Activity) *statusRecorder {
	r := &statusRecorder{}
	bus.Subscribe(event.TypeAgentStatus, func(e event.Event) {
		se, ok := e.(event.StatusEvent)
		if !ok || se.Activity != activity {
			return
		}
		r.mu.Lock()
		r.statuses = append(r.statuses, se.Status)
		r.mu.Unlock()
	})
	return r
}

func (r *statusRecorder) count(s event.Status) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.statuses {
		if got == s {
			n++
		}
	}
	return n
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestTransmitter_StreamsQueuedMessagesWhileGranted(t *testing.T) {
	h := newHarness(t, "P1", talkParams(60*time.Millisecond, 60*time.Millisecond), 0)
	rec := recordStatuses(h.bus, event.ActivityTalking)

	h.source.EnqueueOutbound(wire.Message{From: "P1", Seq: 1, Text: "hello"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.tx.Run(ctx)
	}()

	// The queued message earns a tenure and crosses the link.
	var first wire.Message
	waitFor(t, time.Second, func() bool {
		m, ok := h.link.Recv()
		if ok {
			first = m
		}
		return ok
	})
	if first.Text != "hello" {
		t.Errorf("first message = %q, want the queued one", first.Text)
	}
	if first.SentAt.IsZero() {
		t.Error("transmitter must stamp SentAt")
	}

	// The tenure ends at its deadline and the floor comes back.
	waitFor(t, time.Second, func() bool { return !h.fabric.Holds("P1") })

	cancel()
	<-done

	if rec.count(event.StatusOn) == 0 || rec.count(event.StatusOff) == 0 {
		t.Error("a tenure must emit talking on and off")
	}
	if rec.count(event.StatusMessageSent) == 0 {
		t.Error("delivered messages must emit message_sent")
	}
}

func TestTransmitter_DeniedClaimRetainsMessage(t *testing.T) {
	h := newHarness(t, "P1", talkParams(40*time.Millisecond, 40*time.Millisecond), 0)

	// The greater peer holds the floor, so P1's claims are denied.
	h.fabric.Join("P2")
	blocker, err := h.fabric.Claim("P2", time.Minute)
	if err != nil || blocker == nil {
		t.Fatalf("setup claim failed: %v", err)
	}

	h.source.EnqueueOutbound(wire.Message{From: "P1", Seq: 1, Text: "patience"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.tx.Run(ctx)
	}()

	// Denied claims must not lose the message.
	time.Sleep(5 * testPacing)
	if _, ok := h.link.Recv(); ok {
		t.Fatal("nothing may be sent while the floor is denied")
	}

	// Once the blocker releases, the retained message goes out.
	blocker.Release(floor.ReasonDeadline)
	var got wire.Message
	waitFor(t, time.Second, func() bool {
		m, ok := h.link.Recv()
		if ok {
			got = m
		}
		return ok
	})
	if got.Text != "patience" {
		t.Errorf("delivered %q, want the retained message", got.Text)
	}

	cancel()
	<-done
}

func TestTransmitter_InterruptStopsEmissionWithinOnePacingInterval(t *testing.T) {
	h := newHarness(t, "P1", talkParams(time.Second, time.Second), 0)
	h.source.EnqueueOutbound(wire.Message{From: "P1", Seq: 1, Text: "long story"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.tx.Run(ctx)
	}()

	waitFor(t, time.Second, func() bool {
		_, ok := h.link.Recv()
		return ok
	})

	// P2 wins the tie-break against the talking P1 and interrupts.
	h.fabric.Join("P2")
	g, err := h.fabric.Claim("P2", time.Minute)
	if err != nil || g == nil {
		t.Fatalf("interrupting claim failed: %v", err)
	}
	if !g.Interrupted() {
		t.Fatal("claim against a talking lesser peer must interrupt")
	}

	// Cooperative preemption: at most one more paced send may slip out.
	time.Sleep(2 * testPacing)
	for {
		if _, ok := h.link.Recv(); !ok {
			break
		}
	}
	time.Sleep(4 * testPacing)
	if m, ok := h.link.Recv(); ok {
		t.Errorf("message %d sent after the pacing interval following the interrupt", m.Seq)
	}

	cancel()
	<-done
}

func TestTransmitter_SynthesizesOnTalkingProbability(t *testing.T) {
	// Empty queue, talking probability 1: the timeout draw invents a message.
	h := newHarness(t, "P1", talkParams(30*time.Millisecond, 30*time.Millisecond), 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.tx.Run(ctx)
	}()

	waitFor(t, 2*time.Second, func() bool {
		m, ok := h.link.Recv()
		return ok && m.Text != ""
	})

	cancel()
	<-done
}

func TestTransmitter_NeverSynthesizesWithZeroProbability(t *testing.T) {
	h := newHarness(t, "P1", talkParams(30*time.Millisecond, 30*time.Millisecond), 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.tx.Run(ctx)
	}()

	time.Sleep(4 * testQueueWait)
	cancel()
	<-done

	if _, ok := h.link.Recv(); ok {
		t.Error("no messages may appear with an empty queue and zero probability")
	}
	if h.fabric.Holds("P1") {
		t.Error("the floor must never be claimed without something to say")
	}
}

func TestTransmitter_SendFailureStillReleasesFloor(t *testing.T) {
	h := newHarness(t, "P1", talkParams(40*time.Millisecond, 40*time.Millisecond), 0)
	rec := recordStatuses(h.bus, event.ActivityTalking)
	h.link.Close()
	h.source.EnqueueOutbound(wire.Message{From: "P1", Seq: 1, Text: "into the void"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.tx.Run(ctx)
	}()

	// Tenure starts despite the dead link...
	waitFor(t, time.Second, func() bool { return h.fabric.Holds("P1") })
	// ...and the deadline still releases the floor.
	waitFor(t, time.Second, func() bool { return !h.fabric.Holds("P1") })

	cancel()
	<-done

	if rec.count(event.StatusMessageSent) != 0 {
		t.Error("failed sends must not emit message_sent")
	}
}

func TestTransmitter_PacesUnpromptedGrants(t *testing.T) {
	// p_k = 1: the controller's driver loop acquires on its first tick and
	// hands the tenure to the transmitter, which fills it with synthesized
	// content even though nothing was queued.
	params := talkParams(50*time.Millisecond, 50*time.Millisecond)
	params.PK = 1
	h := newHarness(t, "P1", params, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{}, 2)
	go func() {
		h.ctrl.Run(ctx)
		done <- struct{}{}
	}()
	go func() {
		h.tx.Run(ctx)
		done <- struct{}{}
	}()

	waitFor(t, 2*time.Second, func() bool {
		m, ok := h.link.Recv()
		return ok && m.Text != ""
	})

	cancel()
	for range 2 {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("worker did not exit after cancel")
		}
	}
}
