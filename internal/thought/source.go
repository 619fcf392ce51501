// Package thought produces what an agent has to say: spontaneous musings on
// a probability draw, replies to everything heard from peers, and on-demand
// filler once a tenure runs the queue dry. All generated content — self or
// peer-derived — enters the same outbound queue, and the transmitter is that
// queue's only consumer.
package thought

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/crosstalk-io/crosstalk/internal/agent"
	"github.com/crosstalk-io/crosstalk/internal/errors"
	"github.com/crosstalk-io/crosstalk/internal/event"
	"github.com/crosstalk-io/crosstalk/internal/logging"
	"github.com/crosstalk-io/crosstalk/internal/wire"
)

// DefaultQueueCapacity bounds the outbound queue when the caller passes 0.
const DefaultQueueCapacity = 256

// Source buffers messages awaiting transmission and messages heard from
// peers. It satisfies both wire.Queue (the transmitter's pull side) and
// wire.Sink (the receiver's push side).
type Source struct {
	id       agent.ID
	bus      *event.Bus
	log      *logging.Logger
	tick     time.Duration
	capacity int
	ready    chan struct{}

	mu           sync.Mutex
	outbound     []wire.Message
	heard        []wire.Message
	rng          *rand.Rand
	thinkingProb float64
	seq          uint64
}

// NewSource creates a Source for id. tick is the thinking loop's interval;
// capacity bounds the outbound queue (0 means DefaultQueueCapacity), with
// the oldest entry dropped past the bound.
func NewSource(id agent.ID, bus *event.Bus, log *logging.Logger, tick time.Duration, capacity int, thinkingProb float64, rng *rand.Rand) *Source {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Source{
		id:           id,
		bus:          bus,
		log:          log.WithAgent(id.String()).WithComponent("thought"),
		tick:         tick,
		capacity:     capacity,
		ready:        make(chan struct{}, 1),
		rng:          rng,
		thinkingProb: thinkingProb,
	}
}

// SetThinkingProbability swaps the spontaneous-thought draw probability.
// Safe to call mid-run.
func (s *Source) SetThinkingProbability(p float64) {
	s.mu.Lock()
	s.thinkingProb = p
	s.mu.Unlock()
}

// EnqueueOutbound appends m to the outbound queue without blocking. Past the
// capacity bound the oldest entry is dropped.
func (s *Source) EnqueueOutbound(m wire.Message) {
	s.mu.Lock()
	s.outbound = append(s.outbound, m)
	if len(s.outbound) > s.capacity {
		dropped := len(s.outbound) - s.capacity
		s.outbound = s.outbound[dropped:]
		s.log.Debug("outbound queue full, dropped oldest", "dropped", dropped)
	}
	s.mu.Unlock()
	s.signal()
}

// DrainOutbound atomically removes and returns every queued message.
func (s *Source) DrainOutbound() []wire.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.outbound
	s.outbound = nil
	return out
}

// Next pops the oldest queued message, returning errors.ErrQueueEmpty when
// there is nothing waiting.
func (s *Source) Next() (wire.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.outbound) == 0 {
		return wire.Message{}, errors.ErrQueueEmpty
	}
	m := s.outbound[0]
	s.outbound = s.outbound[1:]
	return m, nil
}

// Len returns the number of queued outbound messages.
func (s *Source) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outbound)
}

// Ready signals enqueues; see wire.Queue.
func (s *Source) Ready() <-chan struct{} { return s.ready }

// Synthesize produces a message on demand, bypassing the queue.
func (s *Source) Synthesize() wire.Message {
	s.mu.Lock()
	text := spontaneous(s.rng)
	m := s.newMessageLocked(text)
	s.mu.Unlock()

	s.bus.Publish(event.NewStatusEvent(s.id.String(), event.ActivityThinking, event.StatusMessageGenerated))
	return m
}

// Ingest accepts a message heard from a peer. The source formulates a reply
// on its next thinking tick.
func (s *Source) Ingest(m wire.Message) {
	s.mu.Lock()
	s.heard = append(s.heard, m)
	s.mu.Unlock()
}

// Run is the thinking loop: each tick it turns everything heard since the
// last tick into replies on the outbound queue, and independently draws for
// a spontaneous thought.
func (s *Source) Run(ctx context.Context) {
	s.bus.Publish(event.NewStatusEvent(s.id.String(), event.ActivityThinking, event.StatusOn))
	defer s.bus.Publish(event.NewStatusEvent(s.id.String(), event.ActivityThinking, event.StatusOff))

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.think()
		}
	}
}

// think runs one thinking tick.
func (s *Source) think() {
	s.mu.Lock()
	heard := s.heard
	s.heard = nil

	generated := make([]wire.Message, 0, len(heard)+1)
	for _, m := range heard {
		generated = append(generated, s.newMessageLocked(replyTo(m.Text, s.rng)))
	}
	if p := s.thinkingProb; p > 0 && (p >= 1 || s.rng.Float64() < p) {
		generated = append(generated, s.newMessageLocked(spontaneous(s.rng)))
	}

	s.outbound = append(s.outbound, generated...)
	if len(s.outbound) > s.capacity {
		s.outbound = s.outbound[len(s.outbound)-s.capacity:]
	}
	s.mu.Unlock()

	for range generated {
		s.bus.Publish(event.NewStatusEvent(s.id.String(), event.ActivityThinking, event.StatusMessageGenerated))
	}
	if len(generated) > 0 {
		s.signal()
	}
}

// newMessageLocked builds a message with the next sequence number. Caller
// holds s.mu.
func (s *Source) newMessageLocked(text string) wire.Message {
	s.seq++
	return wire.Message{From: s.id, Seq: s.seq, Text: text}
}

// signal wakes the transmitter if it is waiting on Ready. The channel holds
// one pending wake-up; extra signals coalesce.
func (s *Source) signal() {
	select {
	case s.ready <- struct{}{}:
	default:
	}
}
