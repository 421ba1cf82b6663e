package contract

import (
	"context"

	"github.com/google/uuid"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/repository/specification"
)

// ScoredArtifact wraps Artifact with a full-text rank or tag-overlap score
type ScoredArtifact struct {
	Artifact *entity.Artifact
	Score    float64
}

// ScoredArtifactChunk wraps ArtifactChunk with its similarity score
type ScoredArtifactChunk struct {
	Chunk      *entity.ArtifactChunk
	Similarity float64
}

type ArtifactRepository interface {
	Create(ctx context.Context, artifact *entity.Artifact) error
	Update(ctx context.Context, artifact *entity.Artifact) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Artifact, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Artifact, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// SearchFullText ranks artifacts with a BM25-style ts_rank score.
	SearchFullText(ctx context.Context, query string, limit int, userId uuid.UUID) ([]*ScoredArtifact, error)
	// SearchByTags scores artifacts by tag/topic overlap with the query terms.
	SearchByTags(ctx context.Context, terms []string, limit int, userId uuid.UUID) ([]*ScoredArtifact, error)
}

type ArtifactChunkRepository interface {
	Create(ctx context.Context, chunk *entity.ArtifactChunk) error
	CreateBulk(ctx context.Context, chunks []*entity.ArtifactChunk) error
	DeleteByArtifactId(ctx context.Context, artifactId uuid.UUID) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ArtifactChunk, error)

	// SearchSimilarWithScore returns chunks with their similarity scores,
	// filtered by threshold.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, userId uuid.UUID, threshold float64) ([]*ScoredArtifactChunk, error)
}
