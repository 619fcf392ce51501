package wire

import (
	"sync"

	"github.com/crosstalk-io/crosstalk/internal/agent"
	"github.com/crosstalk-io/crosstalk/internal/errors"
)

// Link is one direction of the transport between a pair of agents: ordered,
// lossless, bounded. Sends never block — a full buffer is reported as an
// error and the message dropped, so a stalled receiver can slow its peer's
// delivery but never wedge the peer's pacing loop.
type Link struct {
	from, to agent.ID

	mu     sync.Mutex
	ch     chan Message
	closed bool
}

// NewLink creates a link from one agent to another with the given buffer
// depth.
func NewLink(from, to agent.ID, buffer int) *Link {
	if buffer < 1 {
		buffer = 1
	}
	return &Link{
		from: from,
		to:   to,
		ch:   make(chan Message, buffer),
	}
}

// From returns the sending end's agent id.
func (l *Link) From() agent.ID { return l.from }

// To returns the receiving end's agent id.
func (l *Link) To() agent.ID { return l.to }

// Send places m on the link without blocking. Returns a WireError when the
// link is closed or its buffer is full; both are local to the sender and
// never corrupt floor state.
func (l *Link) Send(m Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return errors.NewWireError("send", errors.ErrLinkClosed).
			WithLink(l.from.String(), l.to.String())
	}
	select {
	case l.ch <- m:
		return nil
	default:
		return errors.NewWireError("send", errors.New("link buffer full")).
			WithLink(l.from.String(), l.to.String())
	}
}

// Recv pops the oldest undelivered message without blocking, reporting false
// when none is waiting.
func (l *Link) Recv() (Message, bool) {
	select {
	case m, ok := <-l.ch:
		if !ok {
			return Message{}, false
		}
		return m, true
	default:
		return Message{}, false
	}
}

// Close shuts the link down. Later sends fail with ErrLinkClosed; messages
// already buffered remain receivable. Closing twice is a no-op.
func (l *Link) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	close(l.ch)
}
