package thought

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/crosstalk-io/crosstalk/internal/errors"
	"github.com/crosstalk-io/crosstalk/internal/event"
	"github.com/crosstalk-io/crosstalk/internal/logging"
	"github.com/crosstalk-io/crosstalk/internal/wire"
)

func newTestSource(thinkingProb float64, capacity int) *Source {
	return NewSource("P1", event.NewBus(), logging.NewNop(),
		5*time.Millisecond, capacity, thinkingProb, rand.New(rand.NewSource(1)))
}

func TestSource_EnqueueAndNext(t *testing.T) {
	s := newTestSource(0, 0)

	s.EnqueueOutbound(wire.Message{From: "P1", Seq: 1, Text: "first"})
	s.EnqueueOutbound(wire.Message{From: "P1", Seq: 2, Text: "second"})

	m, err := s.Next()
	if err != nil || m.Text != "first" {
		t.Fatalf("Next = %+v %v, want the oldest message", m, err)
	}
	m, err = s.Next()
	if err != nil || m.Text != "second" {
		t.Fatalf("Next = %+v %v, want insertion order preserved", m, err)
	}
	if _, err := s.Next(); !errors.Is(err, errors.ErrQueueEmpty) {
		t.Fatalf("Next on an empty queue = %v, want ErrQueueEmpty", err)
	}
}

func TestSource_DrainOutbound(t *testing.T) {
	s := newTestSource(0, 0)
	for i := range 3 {
		s.EnqueueOutbound(wire.Message{Seq: uint64(i)})
	}

	drained := s.DrainOutbound()
	if len(drained) != 3 {
		t.Fatalf("drained %d messages, want 3", len(drained))
	}
	if s.Len() != 0 {
		t.Error("drain must leave the queue empty")
	}
	if got := s.DrainOutbound(); len(got) != 0 {
		t.Error("second drain must return nothing")
	}
}

func TestSource_CapacityDropsOldest(t *testing.T) {
	s := newTestSource(0, 2)

	for i := uint64(1); i <= 4; i++ {
		s.EnqueueOutbound(wire.Message{Seq: i})
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want the capacity bound 2", s.Len())
	}
	m, _ := s.Next()
	if m.Seq != 3 {
		t.Errorf("oldest surviving Seq = %d, want 3 (1 and 2 dropped)", m.Seq)
	}
}

func TestSource_ReadySignalsEnqueue(t *testing.T) {
	s := newTestSource(0, 0)
	s.EnqueueOutbound(wire.Message{Seq: 1})

	select {
	case <-s.Ready():
	default:
		t.Fatal("Ready must have a pending signal after an enqueue")
	}
}

func TestSource_SynthesizeBypassesQueue(t *testing.T) {
	s := newTestSource(0, 0)

	m := s.Synthesize()
	if m.From != "P1" || m.Seq == 0 || m.Text == "" {
		t.Errorf("Synthesize = %+v, want a populated message", m)
	}
	if s.Len() != 0 {
		t.Error("Synthesize must not touch the outbound queue")
	}
}

func TestSource_ThinkRepliesToEverythingHeard(t *testing.T) {
	s := newTestSource(0, 0)

	s.Ingest(wire.Message{From: "P2", Seq: 7, Text: "the weather is turning"})
	s.Ingest(wire.Message{From: "P2", Seq: 8, Text: "quiet tonight"})
	s.think()

	if s.Len() != 2 {
		t.Fatalf("queued %d replies, want one per heard message", s.Len())
	}
	m, _ := s.Next()
	if !strings.Contains(m.Text, "the weather is turnin") {
		t.Errorf("reply %q does not reference the heard text", m.Text)
	}

	// Heard messages are consumed: another tick adds nothing.
	s.think()
	if s.Len() != 1 {
		t.Errorf("Len = %d after idle tick, want 1", s.Len())
	}
}

func TestSource_ThinkSpontaneousDraw(t *testing.T) {
	tests := []struct {
		name string
		prob float64
		want int
	}{
		{"probability one generates every tick", 1, 1},
		{"probability zero never generates", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSource(tt.prob, 0)
			s.think()
			if s.Len() != tt.want {
				t.Errorf("Len = %d, want %d", s.Len(), tt.want)
			}
		})
	}
}

func TestSource_SequenceNumbersIncrease(t *testing.T) {
	s := newTestSource(1, 0)
	s.think()
	s.think()

	a, _ := s.Next()
	b, _ := s.Next()
	if b.Seq <= a.Seq {
		t.Errorf("sequence numbers %d, %d must increase", a.Seq, b.Seq)
	}
}

func TestSource_RunEmitsGenerationEvents(t *testing.T) {
	bus := event.NewBus()
	statuses := make(chan event.StatusEvent, 64)
	bus.Subscribe(event.TypeAgentStatus, func(e event.Event) {
		if se, ok := e.(event.StatusEvent); ok {
			statuses <- se
		}
	})

	s := NewSource("P1", bus, logging.NewNop(), 5*time.Millisecond, 0, 1, rand.New(rand.NewSource(1)))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	var sawOn, sawGenerated bool
	deadline := time.After(time.Second)
	for !sawOn || !sawGenerated {
		select {
		case se := <-statuses:
			if se.Activity != event.ActivityThinking {
				continue
			}
			switch se.Status {
			case event.StatusOn:
				sawOn = true
			case event.StatusMessageGenerated:
				sawGenerated = true
			}
		case <-deadline:
			t.Fatalf("missing thinking events: on=%v generated=%v", sawOn, sawGenerated)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("thinking loop did not exit after cancel")
	}
}

func TestReplyTo_TruncatesLongQuotes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	long := strings.Repeat("a", 100)
	reply := replyTo(long, rng)
	if strings.Contains(reply, long) {
		t.Error("reply must not echo the full heard text")
	}
	if !strings.Contains(reply, "…") {
		t.Error("truncated quote must be marked")
	}
}
