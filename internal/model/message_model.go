package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type Message struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationId uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserId         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Role           string          `gorm:"type:varchar(16);not null"`
	Content        string          `gorm:"type:text"`
	AgentsInvolved datatypes.JSON  `gorm:"type:jsonb"`
	TokensUsed     int             `gorm:"default:0"`
	Cost           float64         `gorm:"default:0"`
	Embedding      pgvector.Vector `gorm:"type:vector(768)"` // nomic-embed-text dimension
	CreatedAt      time.Time       `gorm:"autoCreateTime;index"`
}

func (Message) TableName() string {
	return "messages"
}
