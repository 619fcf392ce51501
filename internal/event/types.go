// Package event defines the telemetry events crosstalk components publish
// while a conversation runs. The dashboard, the relay, and tests observe the
// simulation exclusively through these events.
package event

import "time"

// Event type identifiers, "category.action".
const (
	TypeAgentStatus    = "agent.status"
	TypeFloorGranted   = "floor.granted"
	TypeFloorReleased  = "floor.released"
	TypeFloorCollision = "floor.collision"
	TypeMessage        = "conversation.message"
)

// Activity names one of the three concurrent things an agent does.
type Activity string

const (
	ActivityThinking  Activity = "thinking"
	ActivityTalking   Activity = "talking"
	ActivityListening Activity = "listening"
)

// Status qualifies an activity observation.
type Status string

const (
	StatusOn               Status = "on"
	StatusOff              Status = "off"
	StatusMessageSent      Status = "message_sent"
	StatusMessageReceived  Status = "message_received"
	StatusMessageGenerated Status = "message_generated"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "floor.granted", "agent.status")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Agent Status Events
// -----------------------------------------------------------------------------

// StatusEvent is the core telemetry tuple: which agent, doing what, and how
// that changed. Every worker emits these; within one agent and one activity,
// publication order matches the order of occurrence.
type StatusEvent struct {
	baseEvent
	AgentID  string   // Agent the observation is about
	Activity Activity // thinking, talking, or listening
	Status   Status   // on, off, or one of the message_* markers
}

// NewStatusEvent creates a StatusEvent.
func NewStatusEvent(agentID string, activity Activity, status Status) StatusEvent {
	return StatusEvent{
		baseEvent: newBaseEvent(TypeAgentStatus),
		AgentID:   agentID,
		Activity:  activity,
		Status:    status,
	}
}

// -----------------------------------------------------------------------------
// Floor Events
// -----------------------------------------------------------------------------

// FloorGrantedEvent is emitted when an agent acquires the floor.
type FloorGrantedEvent struct {
	baseEvent
	AgentID   string    // New holder
	Interrupt bool      // True when the grant preempted a talking peer
	Deadline  time.Time // Absolute time the holder must release by
}

// NewFloorGrantedEvent creates a FloorGrantedEvent.
func NewFloorGrantedEvent(agentID string, interrupt bool, deadline time.Time) FloorGrantedEvent {
	return FloorGrantedEvent{
		baseEvent: newBaseEvent(TypeFloorGranted),
		AgentID:   agentID,
		Interrupt: interrupt,
		Deadline:  deadline,
	}
}

// FloorReleasedEvent is emitted when an agent's floor tenure ends.
type FloorReleasedEvent struct {
	baseEvent
	AgentID string // Former holder
	Reason  string // Why tenure ended (e.g., "deadline", "stopped", "interrupted")
}

// NewFloorReleasedEvent creates a FloorReleasedEvent.
func NewFloorReleasedEvent(agentID, reason string) FloorReleasedEvent {
	return FloorReleasedEvent{
		baseEvent: newBaseEvent(TypeFloorReleased),
		AgentID:   agentID,
		Reason:    reason,
	}
}

// FloorCollisionEvent is emitted when two agents want the floor at the same
// time and the tie-break picks a winner.
type FloorCollisionEvent struct {
	baseEvent
	Winner string // Agent whose identity sorts greater
	Loser  string // Agent that yields
}

// NewFloorCollisionEvent creates a FloorCollisionEvent.
func NewFloorCollisionEvent(winner, loser string) FloorCollisionEvent {
	return FloorCollisionEvent{
		baseEvent: newBaseEvent(TypeFloorCollision),
		Winner:    winner,
		Loser:     loser,
	}
}

// -----------------------------------------------------------------------------
// Conversation Events
// -----------------------------------------------------------------------------

// MessageEvent is emitted by a Receiver for every delivered message. It is the
// transcript record; StatusEvent carries the per-activity counters.
type MessageEvent struct {
	baseEvent
	From string // Sending agent
	To   string // Receiving agent
	Seq  uint64 // Sender-assigned sequence number
	Text string // Payload
}

// NewMessageEvent creates a MessageEvent.
func NewMessageEvent(from, to string, seq uint64, text string) MessageEvent {
	return MessageEvent{
		baseEvent: newBaseEvent(TypeMessage),
		From:      from,
		To:        to,
		Seq:       seq,
		Text:      text,
	}
}
