package dto

import "github.com/google/uuid"

// TurnRequest is one user turn arriving over the intake subject. Audio is
// base64 on the wire; either Text or Audio must be present. A missing
// SessionId is assigned at intake. Mode forces a persona for this turn;
// empty or "auto" leaves the choice to the router.
type TurnRequest struct {
	SessionId      string    `json:"session_id"`
	UserId         uuid.UUID `json:"user_id" validate:"required"`
	ConversationId uuid.UUID `json:"conversation_id"`
	Text           string    `json:"text"`
	Audio          []byte    `json:"audio,omitempty"`
	Mode           string    `json:"mode,omitempty"`
	ReplySubject   string    `json:"reply_subject,omitempty"`
}

// TurnResponse is the finished turn addressed back to the session.
type TurnResponse struct {
	SessionId      string     `json:"session_id"`
	ConversationId uuid.UUID  `json:"conversation_id"`
	Response       string     `json:"response"`
	Agents         []string   `json:"agents"`
	ArtifactId     *uuid.UUID `json:"artifact_id,omitempty"`
	TokensUsed     int        `json:"tokens_used"`
	Cost           float64    `json:"cost"`
	Status         string     `json:"status"`
	Warnings       []string   `json:"warnings,omitempty"`
}
