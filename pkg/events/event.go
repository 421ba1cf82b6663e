package events

import (
	"time"

	"github.com/google/uuid"
)

// Event type codes published on the bus.
const (
	TypeTurnAccepted    = "TURN_ACCEPTED"
	TypeTurnCompleted   = "TURN_COMPLETED"
	TypeTurnFailed      = "TURN_FAILED"
	TypeArtifactCreated = "ARTIFACT_CREATED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "TURN_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewTurnAccepted marks a turn entering the pipeline.
func NewTurnAccepted(sessionID string, conversationID uuid.UUID) Event {
	return BaseEvent{
		Type: TypeTurnAccepted,
		Data: map[string]interface{}{
			"session_id":      sessionID,
			"conversation_id": conversationID.String(),
		},
		OccurredAt: time.Now(),
	}
}

// NewTurnCompleted marks a turn that produced a reply.
func NewTurnCompleted(sessionID string, conversationID uuid.UUID, agents []string, tokensUsed int) Event {
	return BaseEvent{
		Type: TypeTurnCompleted,
		Data: map[string]interface{}{
			"session_id":      sessionID,
			"conversation_id": conversationID.String(),
			"agents":          agents,
			"tokens_used":     tokensUsed,
		},
		OccurredAt: time.Now(),
	}
}

// NewTurnFailed marks a turn that ended without a usable reply.
func NewTurnFailed(sessionID string, reason string) Event {
	return BaseEvent{
		Type: TypeTurnFailed,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"reason":     reason,
		},
		OccurredAt: time.Now(),
	}
}

// NewArtifactCreated marks a new artifact persisted from a turn.
func NewArtifactCreated(artifactID, conversationID uuid.UUID, source string) Event {
	return BaseEvent{
		Type: TypeArtifactCreated,
		Data: map[string]interface{}{
			"artifact_id":     artifactID.String(),
			"conversation_id": conversationID.String(),
			"source":          source,
		},
		OccurredAt: time.Now(),
	}
}
