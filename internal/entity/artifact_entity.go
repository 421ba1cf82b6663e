package entity

import (
	"time"

	"github.com/google/uuid"
)

// Artifact is a durably archived knowledge item, distinct from raw work
// history. Created only when the archive-decision signal is true.
type Artifact struct {
	Id             uuid.UUID
	UserId         uuid.UUID
	ConversationId *uuid.UUID
	Title          string
	Content        string
	Tags           []string
	Source         string // "agent_action" | "user_request"
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}

// ArtifactChunk is one embedded slice of an artifact, the unit indexed for
// vector search.
type ArtifactChunk struct {
	Id         uuid.UUID
	ArtifactId uuid.UUID
	Document   string
	ChunkIndex int
	Embedding  []float32
	CreatedAt  time.Time
}
