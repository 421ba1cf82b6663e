package entity

import (
	"time"

	"github.com/google/uuid"
)

const PreferredAgentAuto = "auto"

type UserPreference struct {
	Id             uuid.UUID
	UserId         uuid.UUID
	PreferredAgent string
	Topics         []string
	UpdatedAt      time.Time
}

// DefaultUserPreference is the record lazily created on first lookup.
func DefaultUserPreference(userId uuid.UUID) *UserPreference {
	return &UserPreference{
		Id:             uuid.New(),
		UserId:         userId,
		PreferredAgent: PreferredAgentAuto,
		Topics:         []string{},
		UpdatedAt:      time.Now(),
	}
}
