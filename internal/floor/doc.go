// Package floor implements the turn-taking core: who may transmit, when, and
// how simultaneous intent is resolved.
//
// # Pieces
//
// [Fabric] is the shared coordination state — per-agent {wants_floor,
// holds_floor} flags behind one mutex. Its [Fabric.Claim] runs the whole
// read-peers-then-claim sequence atomically, which is the invariant the rest
// of the system leans on: no interleaving of two claims can produce two
// holders or two yielders.
//
// [Controller] is the per-agent state machine (idle, intending, talking,
// yielding). Its driver loop makes the probabilistic initiation draws and
// enforces duration-based release; the transmitter enters the same
// acquisition path via [Controller.Acquire].
//
// [Grant] is the scoped handle for one tenure: deadline, release reason,
// idempotent [Grant.Release]. An interrupting peer revokes the holder's
// grant in place; the holder observes that through [Grant.Active] within one
// pacing tick and falls silent.
//
// # Tie-break
//
// Collisions resolve by identity: the agent whose id sorts greater wins
// (see agent.ID.Wins). The rule is symmetric and needs no negotiation, so
// each side decides unilaterally and neither deadlock nor double-grant is
// possible.
package floor
