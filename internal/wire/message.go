// Package wire moves messages between agents: the point-to-point links and
// the paced transmit/receive loops on either end of them.
//
// A [Transmitter] turns queued thoughts into paced sends while its floor
// controller says the agent holds the floor; a [Receiver] polls the inbound
// links and feeds whatever arrives back into the agent's thought source.
// Links are ordered and lossless — buffered channels under the hood — so
// delivery order always matches send order.
package wire

import (
	"time"

	"github.com/crosstalk-io/crosstalk/internal/agent"
)

// Message is one utterance crossing a link. Messages are handed by value:
// the sender's queue owns one until the transmitter consumes it, after which
// the receiver gets its own copy.
type Message struct {
	// From is the originating agent.
	From agent.ID
	// Seq is the sender-assigned sequence number, monotonically increasing
	// per agent.
	Seq uint64
	// Text is the payload.
	Text string
	// SentAt is stamped by the transmitter immediately before the send; the
	// pacing loop keys off it.
	SentAt time.Time
}

// Queue is the transmitter's view of a thought source. Implemented by
// thought.Source; the transmitter never sees the buffering policy behind it.
type Queue interface {
	// Ready signals that at least one message was enqueued since the last
	// signal. A wake-up without a message is possible; callers re-check Next.
	Ready() <-chan struct{}
	// Next pops the oldest queued message, returning errors.ErrQueueEmpty
	// when there is nothing waiting.
	Next() (Message, error)
	// Synthesize produces a message on demand, bypassing the queue. Used for
	// unprompted talk attempts and for filling a tenure once the queue runs
	// dry.
	Synthesize() Message
}
