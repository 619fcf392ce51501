package wire

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/crosstalk-io/crosstalk/internal/agent"
	"github.com/crosstalk-io/crosstalk/internal/event"
	"github.com/crosstalk-io/crosstalk/internal/floor"
	"github.com/crosstalk-io/crosstalk/internal/logging"
)

// Floor is the transmitter's view of its floor controller: a prompted
// acquisition path plus the channel of tenures the controller's own driver
// loop acquired unprompted.
type Floor interface {
	Acquire() *floor.Grant
	Grants() <-chan *floor.Grant
}

// Transmitter turns queued thoughts into paced wire messages while the floor
// controller says the agent holds the floor. It is the only consumer of the
// agent's outbound queue.
type Transmitter struct {
	id        agent.ID
	queue     Queue
	floor     Floor
	links     []*Link
	bus       *event.Bus
	log       *logging.Logger
	pacing    time.Duration
	queueWait time.Duration

	mu          sync.Mutex
	rng         *rand.Rand
	talkingProb float64
}

// NewTransmitter creates a Transmitter for id that sends on links. pacing is
// the interval between sends during a tenure; queueWait bounds how long one
// loop iteration waits for a message before making the unprompted
// talking-probability draw.
func NewTransmitter(id agent.ID, queue Queue, fl Floor, links []*Link, bus *event.Bus, log *logging.Logger, pacing, queueWait time.Duration, talkingProb float64, rng *rand.Rand) *Transmitter {
	return &Transmitter{
		id:          id,
		queue:       queue,
		floor:       fl,
		links:       links,
		bus:         bus,
		log:         log.WithAgent(id.String()).WithComponent("transmitter"),
		pacing:      pacing,
		queueWait:   queueWait,
		rng:         rng,
		talkingProb: talkingProb,
	}
}

// SetTalkingProbability swaps the synthesize-when-idle draw probability.
// Safe to call mid-run.
func (t *Transmitter) SetTalkingProbability(p float64) {
	t.mu.Lock()
	t.talkingProb = p
	t.mu.Unlock()
}

// Run loops until ctx is cancelled: wait for a message (or invent one on a
// successful talking-probability draw), acquire the floor, and stream. A
// denied claim retains the pending message and retries; a tenure the
// controller acquired unprompted arrives on the grants channel and is paced
// the same way.
func (t *Transmitter) Run(ctx context.Context) {
	var pending *Message

	for {
		if ctx.Err() != nil {
			return
		}

		// A tenure already started by the controller takes priority over
		// waiting for more input; it is burning floor time as we stand here.
		select {
		case g := <-t.floor.Grants():
			t.stream(ctx, g, pending)
			pending = nil
			continue
		default:
		}

		if pending == nil {
			if m, err := t.queue.Next(); err == nil {
				pending = &m
			}
		}
		if pending == nil {
			select {
			case <-ctx.Done():
				return
			case g := <-t.floor.Grants():
				t.stream(ctx, g, nil)
			case <-t.queue.Ready():
				// Re-check Next on the next iteration.
			case <-time.After(t.queueWait):
				if t.draw() {
					m := t.queue.Synthesize()
					pending = &m
				}
			}
			continue
		}

		g := t.floor.Acquire()
		if g == nil {
			// Denied: keep the message and retry after a short back-off.
			select {
			case <-ctx.Done():
				return
			case <-time.After(t.pacing):
			}
			continue
		}
		t.stream(ctx, g, pending)
		pending = nil
	}
}

// stream paces messages onto every link until the grant goes inactive —
// deadline reached, revoked by an interrupting peer, or stop signaled. The
// first message is the pending one that earned the tenure; after that the
// queue is drained, and once dry the source synthesizes continuations.
//
// The grant is released on every exit path. Transport faults are logged and
// the remaining links still attempted; they never end the tenure early.
func (t *Transmitter) stream(ctx context.Context, g *floor.Grant, pending *Message) {
	defer g.Release(floor.ReasonDeadline)

	t.bus.Publish(event.NewStatusEvent(t.id.String(), event.ActivityTalking, event.StatusOn))
	defer t.bus.Publish(event.NewStatusEvent(t.id.String(), event.ActivityTalking, event.StatusOff))

	ticker := time.NewTicker(t.pacing)
	defer ticker.Stop()

	for g.Active() {
		var m Message
		switch {
		case pending != nil:
			m = *pending
			pending = nil
		default:
			var err error
			if m, err = t.queue.Next(); err != nil {
				m = t.queue.Synthesize()
			}
		}

		m.SentAt = time.Now()
		delivered := false
		for _, l := range t.links {
			if err := l.Send(m); err != nil {
				t.log.Warn("send failed", "to", l.To().String(), "error", err)
				continue
			}
			delivered = true
		}
		if delivered {
			t.bus.Publish(event.NewStatusEvent(t.id.String(), event.ActivityTalking, event.StatusMessageSent))
		}

		select {
		case <-ctx.Done():
			g.Release(floor.ReasonStopped)
			return
		case <-ticker.C:
		}
	}
}

func (t *Transmitter) draw() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.talkingProb <= 0 {
		return false
	}
	if t.talkingProb >= 1 {
		return true
	}
	return t.rng.Float64() < t.talkingProb
}
