package workflow

import (
	"time"

	"github.com/google/uuid"

	"ai-companion-be/pkg/agent"
	"ai-companion-be/pkg/memory"
	"ai-companion-be/pkg/retrieval"
)

// Status of a pipeline run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// StageRecord is the trace of one executed stage.
type StageRecord struct {
	Name      string        `json:"name"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`
	Error     string        `json:"error,omitempty"`
}

// RunState is the single mutable document a run threads through its
// stages. It serializes whole for checkpointing, so every field a resumed
// run needs must live here.
type RunState struct {
	SessionID      string    `json:"session_id"`
	UserID         uuid.UUID `json:"user_id"`
	ConversationID uuid.UUID `json:"conversation_id"`

	Input string `json:"input"`
	Audio []byte `json:"audio,omitempty"`
	// Mode is the caller's per-turn agent selection; empty or "auto" leaves
	// the choice to the router.
	Mode string `json:"mode,omitempty"`

	Route       string             `json:"route,omitempty"`
	RouteReason string             `json:"route_reason,omitempty"`
	Memory      *memory.Snapshot   `json:"memory,omitempty"`
	Retrieval   *retrieval.Context `json:"retrieval,omitempty"`
	Output      *agent.Output      `json:"output,omitempty"`

	Response   string    `json:"response"`
	ArtifactID uuid.UUID `json:"artifact_id,omitempty"`

	Status    Status        `json:"status"`
	Stages    []StageRecord `json:"stages"`
	Errors    []string      `json:"errors,omitempty"`
	StartedAt time.Time     `json:"started_at"`

	// failure keeps the typed error of the most recent failed stage so the
	// finalizer can pick a reply matching the error class. Process-local,
	// not checkpointed.
	failure error
}

// NewRunState starts a run for one turn.
func NewRunState(sessionID string, userID, conversationID uuid.UUID, input string, audio []byte, mode string) *RunState {
	return &RunState{
		SessionID:      sessionID,
		UserID:         userID,
		ConversationID: conversationID,
		Input:          input,
		Audio:          audio,
		Mode:           mode,
		Status:         StatusRunning,
		StartedAt:      time.Now(),
	}
}

// RecordError appends a degradation without failing the run.
func (s *RunState) RecordError(stage string, err error) {
	s.Errors = append(s.Errors, stage+": "+err.Error())
}
