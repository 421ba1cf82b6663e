package mapper

import (
	"github.com/pgvector/pgvector-go"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/model"
)

type MessageMapper struct{}

func NewMessageMapper() *MessageMapper {
	return &MessageMapper{}
}

func (m *MessageMapper) ToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}

	return &entity.Message{
		Id:             msg.Id,
		ConversationId: msg.ConversationId,
		UserId:         msg.UserId,
		Role:           msg.Role,
		Content:        msg.Content,
		AgentsInvolved: jsonToStrings(msg.AgentsInvolved),
		TokensUsed:     msg.TokensUsed,
		Cost:           msg.Cost,
		Embedding:      msg.Embedding.Slice(),
		CreatedAt:      msg.CreatedAt,
	}
}

func (m *MessageMapper) ToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}

	return &model.Message{
		Id:             msg.Id,
		ConversationId: msg.ConversationId,
		UserId:         msg.UserId,
		Role:           msg.Role,
		Content:        msg.Content,
		AgentsInvolved: stringsToJSON(msg.AgentsInvolved),
		TokensUsed:     msg.TokensUsed,
		Cost:           msg.Cost,
		Embedding:      pgvector.NewVector(msg.Embedding),
		CreatedAt:      msg.CreatedAt,
	}
}

func (m *MessageMapper) ToEntities(messages []*model.Message) []*entity.Message {
	entities := make([]*entity.Message, len(messages))
	for i, msg := range messages {
		entities[i] = m.ToEntity(msg)
	}
	return entities
}
