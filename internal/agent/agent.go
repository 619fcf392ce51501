// Package agent defines agent identity and per-agent parameters.
package agent

import "time"

// ID is an agent's identity: a unique key whose total order decides every
// floor collision. Comparison uses Go string ordering, so "P2" beats "P1".
type ID string

// String returns the id as a plain string.
func (id ID) String() string { return string(id) }

// Wins reports whether this identity beats other in the deterministic
// tie-break. The rule is symmetric: exactly one of a.Wins(b), b.Wins(a) is
// true for distinct ids, so both sides can decide unilaterally without
// negotiation.
func (id ID) Wins(other ID) bool { return id > other }

// Params holds the behavior knobs for one agent. The probability fields are
// per-tick Bernoulli draws; the durations bound a sampled talk tenure.
type Params struct {
	// PK is the probability of seeking the floor per tick while it is free.
	PK float64
	// InterruptProbability is the probability of attempting an interruption
	// per tick while a peer holds the floor.
	InterruptProbability float64
	// ThinkingProbability is the probability of synthesizing a spontaneous
	// thought per thinking tick.
	ThinkingProbability float64
	// TalkingProbability is the probability the transmitter invents a message
	// when its queue has stayed empty for a full pull timeout.
	TalkingProbability float64
	// MinTalk and MaxTalk bound the uniformly sampled duration of one tenure.
	MinTalk time.Duration
	MaxTalk time.Duration
}

// Agent is one conversational participant: an identity plus its parameters.
// Agents are created at startup and live for the whole run; lifecycle state
// (idle, intending, talking, yielding) is owned by the agent's floor
// controller, not stored here.
type Agent struct {
	ID     ID
	Params Params
}

// New creates an Agent.
func New(id ID, params Params) Agent {
	return Agent{ID: id, Params: params}
}
