package implementation

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/mapper"
	"ai-companion-be/internal/model"
	"ai-companion-be/internal/repository/contract"
	"ai-companion-be/internal/repository/specification"
)

type ArtifactRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ArtifactMapper
}

func NewArtifactRepository(db *gorm.DB) contract.ArtifactRepository {
	return &ArtifactRepositoryImpl{
		db:     db,
		mapper: mapper.NewArtifactMapper(),
	}
}

func (r *ArtifactRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ArtifactRepositoryImpl) Create(ctx context.Context, artifact *entity.Artifact) error {
	m := r.mapper.ToModel(artifact)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*artifact = *r.mapper.ToEntity(m)
	return nil
}

func (r *ArtifactRepositoryImpl) Update(ctx context.Context, artifact *entity.Artifact) error {
	m := r.mapper.ToModel(artifact)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*artifact = *r.mapper.ToEntity(m)
	return nil
}

func (r *ArtifactRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Artifact{}, id).Error
}

func (r *ArtifactRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Artifact, error) {
	var m model.Artifact
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ArtifactRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Artifact, error) {
	var models []*model.Artifact
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ArtifactRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Artifact{}).Count(&count).Error
	return count, err
}

// SearchFullText ranks artifacts against the query using postgres ts_rank
// over title and content.
func (r *ArtifactRepositoryImpl) SearchFullText(ctx context.Context, query string, limit int, userId uuid.UUID) ([]*contract.ScoredArtifact, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.Artifact
		Rank float64
	}
	var results []result

	err := r.db.WithContext(ctx).
		Table("artifacts").
		Select("artifacts.*, ts_rank(to_tsvector('english', title || ' ' || content), plainto_tsquery('english', ?)) as rank", query).
		Where("user_id = ?", userId).
		Where("deleted_at IS NULL").
		Where("to_tsvector('english', title || ' ' || content) @@ plainto_tsquery('english', ?)", query).
		Order("rank DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredArtifact, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredArtifact{
			Artifact: r.mapper.ToEntity(&res.Artifact),
			Score:    res.Rank,
		}
	}
	return scored, nil
}

// SearchByTags scores artifacts by how many of their tags appear in the
// query terms. Zero-overlap rows are excluded.
func (r *ArtifactRepositoryImpl) SearchByTags(ctx context.Context, terms []string, limit int, userId uuid.UUID) ([]*contract.ScoredArtifact, error) {
	if limit <= 0 {
		limit = 5
	}
	if len(terms) == 0 {
		return nil, nil
	}

	type result struct {
		model.Artifact
		Overlap int
	}
	var results []result

	// postgres text[] literal for ANY(); terms are lowercased single words
	termArray := "{" + strings.Join(terms, ",") + "}"

	err := r.db.WithContext(ctx).
		Table("artifacts").
		Select("artifacts.*, (SELECT COUNT(*) FROM jsonb_array_elements_text(artifacts.tags) AS tag WHERE lower(tag) = ANY(?::text[])) as overlap", termArray).
		Where("user_id = ?", userId).
		Where("deleted_at IS NULL").
		Where("(SELECT COUNT(*) FROM jsonb_array_elements_text(artifacts.tags) AS tag WHERE lower(tag) = ANY(?::text[])) > 0", termArray).
		Order("overlap DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredArtifact, len(results))
	for i, res := range results {
		score := float64(res.Overlap) / float64(len(terms))
		if score > 1 {
			score = 1
		}
		scored[i] = &contract.ScoredArtifact{
			Artifact: r.mapper.ToEntity(&res.Artifact),
			Score:    score,
		}
	}
	return scored, nil
}
