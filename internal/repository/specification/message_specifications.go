package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByConversationID filters messages by conversation
type ByConversationID struct {
	ConversationID uuid.UUID
}

func (s ByConversationID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("conversation_id = ?", s.ConversationID)
}

// ExcludeConversation drops rows belonging to the given conversation.
// Used by long-term memory search so the current conversation does not
// retrieve itself.
type ExcludeConversation struct {
	ConversationID uuid.UUID
}

func (s ExcludeConversation) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("conversation_id <> ?", s.ConversationID)
}

// ByRole filters messages by author role
type ByRole struct {
	Role string
}

func (s ByRole) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("role = ?", s.Role)
}
