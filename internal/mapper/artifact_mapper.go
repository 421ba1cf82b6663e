package mapper

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/model"
)

type ArtifactMapper struct{}

func NewArtifactMapper() *ArtifactMapper {
	return &ArtifactMapper{}
}

func (m *ArtifactMapper) ToEntity(a *model.Artifact) *entity.Artifact {
	if a == nil {
		return nil
	}

	var deletedAt *time.Time
	if a.DeletedAt.Valid {
		t := a.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !a.UpdatedAt.IsZero() {
		t := a.UpdatedAt
		updatedAt = &t
	}

	return &entity.Artifact{
		Id:             a.Id,
		UserId:         a.UserId,
		ConversationId: a.ConversationId,
		Title:          a.Title,
		Content:        a.Content,
		Tags:           jsonToStrings(a.Tags),
		Source:         a.Source,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
		IsDeleted:      a.DeletedAt.Valid,
	}
}

func (m *ArtifactMapper) ToModel(a *entity.Artifact) *model.Artifact {
	if a == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if a.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *a.DeletedAt, Valid: true}
	} else if a.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if a.UpdatedAt != nil {
		updatedAt = *a.UpdatedAt
	}

	return &model.Artifact{
		Id:             a.Id,
		UserId:         a.UserId,
		ConversationId: a.ConversationId,
		Title:          a.Title,
		Content:        a.Content,
		Tags:           stringsToJSON(a.Tags),
		Source:         a.Source,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
	}
}

func (m *ArtifactMapper) ToEntities(artifacts []*model.Artifact) []*entity.Artifact {
	entities := make([]*entity.Artifact, len(artifacts))
	for i, a := range artifacts {
		entities[i] = m.ToEntity(a)
	}
	return entities
}

type ArtifactChunkMapper struct{}

func NewArtifactChunkMapper() *ArtifactChunkMapper {
	return &ArtifactChunkMapper{}
}

func (m *ArtifactChunkMapper) ToEntity(c *model.ArtifactChunk) *entity.ArtifactChunk {
	if c == nil {
		return nil
	}

	return &entity.ArtifactChunk{
		Id:         c.Id,
		ArtifactId: c.ArtifactId,
		Document:   c.Document,
		ChunkIndex: c.ChunkIndex,
		Embedding:  c.EmbeddingValue.Slice(),
		CreatedAt:  c.CreatedAt,
	}
}

func (m *ArtifactChunkMapper) ToModel(c *entity.ArtifactChunk) *model.ArtifactChunk {
	if c == nil {
		return nil
	}

	return &model.ArtifactChunk{
		Id:             c.Id,
		ArtifactId:     c.ArtifactId,
		Document:       c.Document,
		ChunkIndex:     c.ChunkIndex,
		EmbeddingValue: pgvector.NewVector(c.Embedding),
		CreatedAt:      c.CreatedAt,
	}
}
