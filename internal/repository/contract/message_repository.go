package contract

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/repository/specification"
)

// ScoredMessage wraps Message with its similarity score
type ScoredMessage struct {
	Message    *entity.Message
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	CreateBulk(ctx context.Context, messages []*entity.Message) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	DeleteByConversationId(ctx context.Context, conversationId uuid.UUID) error

	// SearchSimilarWithScore runs a cosine-similarity query over message
	// embeddings, bounded to the given time window and excluding the given
	// conversation (uuid.Nil disables the exclusion).
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, userId uuid.UUID, threshold float64, window time.Duration, excludeConversation uuid.UUID) ([]*ScoredMessage, error)
}
