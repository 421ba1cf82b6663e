package implementation

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/mapper"
	"ai-companion-be/internal/model"
	"ai-companion-be/internal/repository/contract"
	"ai-companion-be/internal/repository/specification"
)

type ArtifactChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ArtifactChunkMapper
}

func NewArtifactChunkRepository(db *gorm.DB) contract.ArtifactChunkRepository {
	return &ArtifactChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewArtifactChunkMapper(),
	}
}

func (r *ArtifactChunkRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ArtifactChunkRepositoryImpl) Create(ctx context.Context, chunk *entity.ArtifactChunk) error {
	m := r.mapper.ToModel(chunk)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*chunk = *r.mapper.ToEntity(m)
	return nil
}

func (r *ArtifactChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.ArtifactChunk) error {
	models := make([]*model.ArtifactChunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ToModel(c)
	}

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *ArtifactChunkRepositoryImpl) DeleteByArtifactId(ctx context.Context, artifactId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("artifact_id = ?", artifactId).Delete(&model.ArtifactChunk{}).Error
}

func (r *ArtifactChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ArtifactChunk, error) {
	var models []*model.ArtifactChunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ArtifactChunk, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

// SearchSimilarWithScore returns chunks with similarity scores, filtered by
// threshold. Must join artifacts to filter by user and skip soft-deleted rows.
func (r *ArtifactChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, userId uuid.UUID, threshold float64) ([]*contract.ScoredArtifactChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.ArtifactChunk
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("artifact_chunks").
		Select("artifact_chunks.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Joins("JOIN artifacts ON artifacts.id = artifact_chunks.artifact_id").
		Where("artifacts.user_id = ?", userId).
		Where("artifact_chunks.deleted_at IS NULL").
		Where("artifacts.deleted_at IS NULL").
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredArtifactChunk, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredArtifactChunk{
			Chunk:      r.mapper.ToEntity(&res.ArtifactChunk),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
