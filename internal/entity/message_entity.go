package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

// Message is one work-history turn. Every conversation turn is logged here
// regardless of whether an archive artifact was created for it.
type Message struct {
	Id             uuid.UUID
	ConversationId uuid.UUID
	UserId         uuid.UUID
	Role           string
	Content        string
	AgentsInvolved []string
	TokensUsed     int
	Cost           float64
	Embedding      []float32
	CreatedAt      time.Time
}
