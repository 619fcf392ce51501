package wire

import (
	"context"
	"time"

	"github.com/crosstalk-io/crosstalk/internal/agent"
	"github.com/crosstalk-io/crosstalk/internal/event"
	"github.com/crosstalk-io/crosstalk/internal/logging"
)

// Sink accepts delivered messages. Implemented by thought.Source, which
// formulates replies on its next thinking tick.
type Sink interface {
	Ingest(Message)
}

// Receiver polls the agent's inbound links and hands whatever arrived to the
// local thought source. Polling is non-blocking with a bounded interval
// between passes, so shutdown latency stays within one poll.
type Receiver struct {
	id    agent.ID
	links []*Link
	sink  Sink
	bus   *event.Bus
	log   *logging.Logger
	poll  time.Duration
}

// NewReceiver creates a Receiver for id over the given inbound links.
func NewReceiver(id agent.ID, links []*Link, sink Sink, bus *event.Bus, log *logging.Logger, poll time.Duration) *Receiver {
	return &Receiver{
		id:    id,
		links: links,
		sink:  sink,
		bus:   bus,
		log:   log.WithAgent(id.String()).WithComponent("receiver"),
		poll:  poll,
	}
}

// Run polls until ctx is cancelled. Each pass drains every inbound link in
// order, preserving per-link delivery order.
func (r *Receiver) Run(ctx context.Context) {
	r.bus.Publish(event.NewStatusEvent(r.id.String(), event.ActivityListening, event.StatusOn))
	defer r.bus.Publish(event.NewStatusEvent(r.id.String(), event.ActivityListening, event.StatusOff))

	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.drain()
		}
	}
}

// drain empties every inbound link into the sink.
func (r *Receiver) drain() {
	for _, l := range r.links {
		for {
			m, ok := l.Recv()
			if !ok {
				break
			}
			r.sink.Ingest(m)
			r.bus.Publish(event.NewStatusEvent(r.id.String(), event.ActivityListening, event.StatusMessageReceived))
			r.bus.Publish(event.NewMessageEvent(m.From.String(), r.id.String(), m.Seq, m.Text))
		}
	}
}
