package floor

import (
	"sync"
	"time"

	"github.com/crosstalk-io/crosstalk/internal/agent"
)

// Release reasons recorded on a grant when its tenure ends.
const (
	// ReasonDeadline: the sampled talk duration elapsed.
	ReasonDeadline = "deadline"
	// ReasonStopped: shutdown was signaled mid-tenure.
	ReasonStopped = "stopped"
	// ReasonInterrupted: a winning peer preempted the holder.
	ReasonInterrupted = "interrupted"
	// ReasonFailed: the holder's transmit path gave up.
	ReasonFailed = "failed"
)

// Grant is the scoped handle for one floor tenure. The fabric issues it on a
// successful claim; exactly one agent can hold an active grant at a time.
//
// Release is idempotent and safe to defer on every exit path, which is what
// keeps a failed transmit loop from leaving the floor stuck held. A grant can
// also end without its owner's involvement: an interrupting peer's claim
// revokes it in place, which the owner observes via Active on its next tick.
type Grant struct {
	fabric    *Fabric
	owner     agent.ID
	deadline  time.Time
	interrupt bool // tenure began by preempting a talking peer

	mu     sync.Mutex
	ended  bool
	reason string
}

// Owner returns the agent holding this grant.
func (g *Grant) Owner() agent.ID { return g.owner }

// Deadline returns the absolute time the holder must release by.
func (g *Grant) Deadline() time.Time { return g.deadline }

// Interrupted reports whether this tenure began by preempting a talking peer.
func (g *Grant) Interrupted() bool { return g.interrupt }

// Active reports whether the grant still confers the floor: not released, not
// revoked, deadline not yet reached. Pacing loops check this every tick.
func (g *Grant) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.ended && time.Now().Before(g.deadline)
}

// Revoked reports whether a peer's interrupt ended this grant.
func (g *Grant) Revoked() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ended && g.reason == ReasonInterrupted
}

// Reason returns why the tenure ended, or "" while it is still live.
func (g *Grant) Reason() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.ended {
		return ""
	}
	return g.reason
}

// Release ends the tenure with the given reason and clears holds_floor in the
// fabric. The first caller wins; later calls (including the deferred one on
// the transmit path) are no-ops. Returns true if this call ended the tenure.
func (g *Grant) Release(reason string) bool {
	g.mu.Lock()
	if g.ended {
		g.mu.Unlock()
		return false
	}
	g.ended = true
	g.reason = reason
	g.mu.Unlock()

	g.fabric.release(g, reason)
	return true
}

// isEnded reports whether the tenure has ended by any path.
func (g *Grant) isEnded() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ended
}

// revoke marks the grant ended as interrupted. Called by the fabric, under
// the fabric mutex, while processing the interrupting peer's claim; the
// fabric clears the victim's holds_floor itself.
func (g *Grant) revoke() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ended {
		return false
	}
	g.ended = true
	g.reason = ReasonInterrupted
	return true
}
