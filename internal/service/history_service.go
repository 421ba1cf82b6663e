package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/repository/specification"
	"ai-companion-be/internal/repository/unitofwork"
	"ai-companion-be/pkg/cache"
	"ai-companion-be/pkg/chunk"
	"ai-companion-be/pkg/embedding"
	"ai-companion-be/pkg/errs"
	"ai-companion-be/pkg/workflow"
)

var crossRefPattern = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)

// historyService persists turn outcomes: the always-on work history, and
// artifacts when the archive decision fired. It implements the pipeline's
// TurnStore contract.
type historyService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.Provider
	store             cache.Store
	log               logger.ILogger
}

func NewHistoryService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.Provider,
	store cache.Store,
	log logger.ILogger,
) workflow.TurnStore {
	return &historyService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		store:             store,
		log:               log,
	}
}

// EnsureConversation resolves the conversation a turn belongs to, creating
// one titled after the first input when none is given.
func (s *historyService) EnsureConversation(ctx context.Context, userId, conversationId uuid.UUID, firstInput string) (uuid.UUID, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if conversationId != uuid.Nil {
		conv, err := uow.ConversationRepository().FindOne(ctx,
			specification.ByID{ID: conversationId},
			specification.UserOwnedBy{UserID: userId},
		)
		if err != nil {
			return uuid.Nil, errs.Storage("find conversation", err)
		}
		if conv == nil {
			return uuid.Nil, errs.Validation("conversation_id", "conversation not found")
		}
		return conv.Id, nil
	}

	conv := &entity.Conversation{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     conversationTitle(firstInput),
		CreatedAt: time.Now(),
	}
	if err := uow.ConversationRepository().Create(ctx, conv); err != nil {
		return uuid.Nil, errs.Storage("create conversation", err)
	}
	return conv.Id, nil
}

// SaveTurn writes the user and assistant messages of one turn in a single
// transaction. A turn whose agent branch failed still keeps its user
// message; only the assistant half is conditional. The user message is
// embedded so later turns can recall it; an embedding failure only costs
// recall, never the write.
func (s *historyService) SaveTurn(ctx context.Context, rec workflow.TurnRecord) error {
	var userVec []float32
	if emb, err := s.embeddingProvider.Generate(ctx, rec.UserText, embedding.TaskRetrievalDocument); err != nil {
		s.log.Warn("history", "user message embedding failed, saving without", map[string]interface{}{
			"conversation_id": rec.ConversationID.String(), "error": err.Error(),
		})
	} else {
		userVec = emb.Values
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return errs.Storage("begin save turn", err)
	}
	defer uow.Rollback()

	now := time.Now()
	messages := []*entity.Message{
		{
			Id:             uuid.New(),
			ConversationId: rec.ConversationID,
			UserId:         rec.UserID,
			Role:           entity.MessageRoleUser,
			Content:        rec.UserText,
			Embedding:      userVec,
			CreatedAt:      now,
		},
	}
	if rec.ResponseText != "" {
		messages = append(messages, &entity.Message{
			Id:             uuid.New(),
			ConversationId: rec.ConversationID,
			UserId:         rec.UserID,
			Role:           entity.MessageRoleAssistant,
			Content:        rec.ResponseText,
			AgentsInvolved: rec.Agents,
			TokensUsed:     rec.TokensUsed,
			Cost:           rec.Cost,
			CreatedAt:      now,
		})
	}
	if err := uow.MessageRepository().CreateBulk(ctx, messages); err != nil {
		return errs.Storage("save turn messages", err)
	}

	if err := uow.Commit(); err != nil {
		return errs.Storage("commit turn", err)
	}
	return nil
}

// CreateArtifact archives a note from a turn: the artifact row, its
// embedded chunks, and the cross references found in the content as tags.
func (s *historyService) CreateArtifact(ctx context.Context, rec workflow.ArtifactRecord) (uuid.UUID, error) {
	artifact := &entity.Artifact{
		Id:             uuid.New(),
		UserId:         rec.UserID,
		ConversationId: &rec.ConversationID,
		Title:          rec.Title,
		Content:        rec.Content,
		Tags:           ExtractCrossReferences(rec.Content),
		Source:         rec.Source,
		CreatedAt:      time.Now(),
	}

	chunks, err := s.embedChunks(ctx, artifact)
	if err != nil {
		return uuid.Nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return uuid.Nil, errs.Storage("begin create artifact", err)
	}
	defer uow.Rollback()

	if err := uow.ArtifactRepository().Create(ctx, artifact); err != nil {
		return uuid.Nil, errs.Storage("create artifact", err)
	}
	if len(chunks) > 0 {
		if err := uow.ArtifactChunkRepository().CreateBulk(ctx, chunks); err != nil {
			return uuid.Nil, errs.Storage("create artifact chunks", err)
		}
	}

	if err := uow.Commit(); err != nil {
		return uuid.Nil, errs.Storage("commit artifact", err)
	}

	// New content invalidates cached search results.
	if s.store != nil {
		s.store.Clear(ctx, string(cache.NamespaceSearch))
	}

	return artifact.Id, nil
}

func (s *historyService) embedChunks(ctx context.Context, artifact *entity.Artifact) ([]*entity.ArtifactChunk, error) {
	pieces := chunk.Split(artifact.Content, chunk.DefaultConfig())
	chunks := make([]*entity.ArtifactChunk, 0, len(pieces))
	for _, p := range pieces {
		emb, err := s.embeddingProvider.Generate(ctx, p.Text, embedding.TaskRetrievalDocument)
		if err != nil {
			return nil, fmt.Errorf("embed artifact chunk %d: %w", p.Index, err)
		}
		chunks = append(chunks, &entity.ArtifactChunk{
			Id:         uuid.New(),
			ArtifactId: artifact.Id,
			Document:   p.Text,
			ChunkIndex: p.Index,
			Embedding:  emb.Values,
			CreatedAt:  time.Now(),
		})
	}
	return chunks, nil
}

// ExtractCrossReferences pulls [[reference]] links out of artifact content.
func ExtractCrossReferences(content string) []string {
	matches := crossRefPattern.FindAllStringSubmatch(content, -1)
	refs := make([]string, 0, len(matches))
	seen := map[string]struct{}{}
	for _, m := range matches {
		ref := strings.TrimSpace(m[1])
		if ref == "" {
			continue
		}
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}
	return refs
}

func conversationTitle(firstInput string) string {
	title := strings.TrimSpace(firstInput)
	if title == "" {
		return "New conversation"
	}
	if utf8.RuneCountInString(title) > 60 {
		runes := []rune(title)
		title = string(runes[:57]) + "..."
	}
	return title
}
