package unitofwork

import (
	"context"

	"ai-companion-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ConversationRepository() contract.ConversationRepository
	MessageRepository() contract.MessageRepository
	ArtifactRepository() contract.ArtifactRepository
	ArtifactChunkRepository() contract.ArtifactChunkRepository
	UserPreferenceRepository() contract.UserPreferenceRepository
}
