package floor

// State is one node of the per-agent turn-taking state machine.
type State string

const (
	// StateIdle means the agent neither wants nor holds the floor.
	StateIdle State = "idle"
	// StateIntending means the agent has declared intent and is about to
	// attempt a claim.
	StateIntending State = "intending"
	// StateTalking means the agent holds the floor under an active grant.
	StateTalking State = "talking"
	// StateYielding means the agent lost a claim and is backing off; it
	// returns to idle on the next tick.
	StateYielding State = "yielding"
)

// IsValid reports whether s is one of the defined states.
func (s State) IsValid() bool {
	switch s {
	case StateIdle, StateIntending, StateTalking, StateYielding:
		return true
	}
	return false
}

// String returns the state name.
func (s State) String() string { return string(s) }

// AllStates returns every defined state in lifecycle order.
func AllStates() []State {
	return []State{StateIdle, StateIntending, StateTalking, StateYielding}
}
