package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/repository/specification"
	"ai-companion-be/internal/repository/unitofwork"
	"ai-companion-be/pkg/memory"
)

const similarPastThreshold = 0.55

// messageSource adapts the message repository to the memory builder.
type messageSource struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewMessageSource(uowFactory unitofwork.RepositoryFactory) memory.MessageSource {
	return &messageSource{uowFactory: uowFactory}
}

func (s *messageSource) RecentTurns(ctx context.Context, conversationId uuid.UUID, limit int) ([]memory.Turn, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	msgs, err := uow.MessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit},
	)
	if err != nil {
		return nil, err
	}

	// Newest-first from the query, oldest-first for the prompt.
	turns := make([]memory.Turn, len(msgs))
	for i, m := range msgs {
		turns[len(msgs)-1-i] = memory.Turn{
			Role:    m.Role,
			Content: m.Content,
			Agents:  m.AgentsInvolved,
		}
	}
	return turns, nil
}

func (s *messageSource) SimilarPast(ctx context.Context, vector []float32, userId uuid.UUID, excludeConversation uuid.UUID, limit int, window time.Duration) ([]memory.PastReference, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	scored, err := uow.MessageRepository().SearchSimilarWithScore(ctx,
		vector, limit, userId, similarPastThreshold, window, excludeConversation)
	if err != nil {
		return nil, err
	}

	refs := make([]memory.PastReference, 0, len(scored))
	for _, sm := range scored {
		refs = append(refs, memory.PastReference{
			ConversationID: sm.Message.ConversationId,
			Content:        sm.Message.Content,
			Similarity:     sm.Similarity,
			SpokenAt:       sm.Message.CreatedAt,
		})
	}
	return refs, nil
}

// preferenceSource adapts the preference repository to the memory builder,
// lazily creating the default record on first lookup.
type preferenceSource struct {
	uowFactory unitofwork.RepositoryFactory
	log        logger.ILogger
}

func NewPreferenceSource(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) memory.PreferenceSource {
	return &preferenceSource{uowFactory: uowFactory, log: log}
}

func (s *preferenceSource) PreferencesFor(ctx context.Context, userId uuid.UUID) (*entity.UserPreference, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.UserPreferenceRepository()

	pref, err := repo.FindByUserId(ctx, userId)
	if err != nil {
		return nil, err
	}
	if pref != nil {
		return pref, nil
	}

	pref = entity.DefaultUserPreference(userId)
	if err := repo.Save(ctx, pref); err != nil {
		// The defaults still serve this turn; the next lookup retries.
		s.log.Warn("memory", "default preference save failed", map[string]interface{}{
			"user_id": userId.String(), "error": err.Error(),
		})
	}
	return pref, nil
}
