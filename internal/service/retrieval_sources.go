package service

import (
	"context"

	"github.com/google/uuid"

	"ai-companion-be/internal/repository/specification"
	"ai-companion-be/internal/repository/unitofwork"
	"ai-companion-be/pkg/retrieval"
)

// retrievalSources adapts the artifact repositories to the retrieval
// engine's sub-search contracts. One adapter serves the vector, fulltext
// and graph searches; the web search has its own client.
type retrievalSources struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewRetrievalSources(uowFactory unitofwork.RepositoryFactory) *retrievalSources {
	return &retrievalSources{uowFactory: uowFactory}
}

// SearchVector finds artifact chunks by embedding similarity and resolves
// their parent titles in one batch.
func (s *retrievalSources) SearchVector(ctx context.Context, vector []float32, userId uuid.UUID, limit int, threshold float64) ([]retrieval.ScoredDocument, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	scored, err := uow.ArtifactChunkRepository().SearchSimilarWithScore(ctx, vector, limit, userId, threshold)
	if err != nil {
		return nil, err
	}
	if len(scored) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(scored))
	seen := map[uuid.UUID]struct{}{}
	for _, sc := range scored {
		if _, ok := seen[sc.Chunk.ArtifactId]; ok {
			continue
		}
		seen[sc.Chunk.ArtifactId] = struct{}{}
		ids = append(ids, sc.Chunk.ArtifactId)
	}

	titles := map[uuid.UUID]string{}
	artifacts, err := uow.ArtifactRepository().FindAll(ctx, specification.ByIDs{IDs: ids})
	if err == nil {
		for _, a := range artifacts {
			titles[a.Id] = a.Title
		}
	}

	docs := make([]retrieval.ScoredDocument, 0, len(scored))
	for _, sc := range scored {
		docs = append(docs, retrieval.ScoredDocument{
			SourceID: sc.Chunk.Id.String(),
			Origin:   retrieval.SourceVector,
			Title:    titles[sc.Chunk.ArtifactId],
			Excerpt:  sc.Chunk.Document,
			RawScore: sc.Similarity,
		})
	}
	return docs, nil
}

// SearchFullText ranks whole artifacts by keyword relevance.
func (s *retrievalSources) SearchFullText(ctx context.Context, query string, userId uuid.UUID, limit int) ([]retrieval.ScoredDocument, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	scored, err := uow.ArtifactRepository().SearchFullText(ctx, query, limit, userId)
	if err != nil {
		return nil, err
	}

	docs := make([]retrieval.ScoredDocument, 0, len(scored))
	for _, sa := range scored {
		docs = append(docs, retrieval.ScoredDocument{
			SourceID: sa.Artifact.Id.String(),
			Origin:   retrieval.SourceFullText,
			Title:    sa.Artifact.Title,
			Excerpt:  excerptOf(sa.Artifact.Content),
			RawScore: sa.Score,
		})
	}
	return docs, nil
}

// SearchGraph finds artifacts connected to the query terms through their
// tags and cross references.
func (s *retrievalSources) SearchGraph(ctx context.Context, terms []string, userId uuid.UUID, limit int) ([]retrieval.ScoredDocument, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)

	scored, err := uow.ArtifactRepository().SearchByTags(ctx, terms, limit, userId)
	if err != nil {
		return nil, err
	}

	docs := make([]retrieval.ScoredDocument, 0, len(scored))
	for _, sa := range scored {
		docs = append(docs, retrieval.ScoredDocument{
			SourceID: sa.Artifact.Id.String(),
			Origin:   retrieval.SourceGraph,
			Title:    sa.Artifact.Title,
			Excerpt:  excerptOf(sa.Artifact.Content),
			RawScore: sa.Score,
		})
	}
	return docs, nil
}

const maxExcerptRunes = 600

func excerptOf(content string) string {
	runes := []rune(content)
	if len(runes) <= maxExcerptRunes {
		return content
	}
	return string(runes[:maxExcerptRunes]) + "..."
}
