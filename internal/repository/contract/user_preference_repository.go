package contract

import (
	"context"

	"github.com/google/uuid"

	"ai-companion-be/internal/entity"
)

type UserPreferenceRepository interface {
	// FindByUserId returns nil, nil when no record exists yet.
	FindByUserId(ctx context.Context, userId uuid.UUID) (*entity.UserPreference, error)
	Save(ctx context.Context, preference *entity.UserPreference) error
}
