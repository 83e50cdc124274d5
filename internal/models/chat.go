// Package models contains data structures for the application's domain models.
package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Conversation represents a chat conversation (1-on-1 or group).
type Conversation struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `json:"name"` // For group chats
	IsGroup      bool           `gorm:"default:false" json:"is_group"`
	Avatar       string         `json:"avatar"`
	CreatedBy    uint           `json:"created_by"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Participants []User         `gorm:"many2many:conversation_participants;" json:"participants,omitempty"`
	Messages     []Message      `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
	UnreadCount  int            `gorm:"->;-:migration" json:"unread_count"`
}

// ConversationParticipant is the join table tracking membership.
// A participant with LeftAt set has departed: messages are no longer visible
// to them, and the row is kept so history access can be audited.
type ConversationParticipant struct {
	ConversationID uint       `gorm:"primaryKey" json:"conversation_id"`
	UserID         uint       `gorm:"primaryKey" json:"user_id"`
	JoinedAt       time.Time  `gorm:"autoCreateTime" json:"joined_at"`
	LeftAt         *time.Time `json:"left_at,omitempty"`
	LastReadAt     time.Time  `json:"last_read_at"`
	UnreadCount    int        `gorm:"default:0" json:"unread_count"`
}

// Message represents a chat message. Delivered/read flags are
// client-observable state, not consistency-critical.
type Message struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	ConversationID uint              `gorm:"not null;index" json:"conversation_id"`
	Conversation   *Conversation     `gorm:"foreignKey:ConversationID" json:"conversation,omitempty"`
	SenderID       uint              `gorm:"not null;index" json:"sender_id"`
	Sender         *User             `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Content        string            `gorm:"type:text;not null" json:"content"`
	MessageType    string            `gorm:"default:'text'" json:"message_type"`  // text, image, sticker, audio
	Metadata       json.RawMessage   `gorm:"type:json" json:"metadata,omitempty"` // For media URLs, sticker refs
	IsRead         bool              `gorm:"default:false" json:"is_read"`
	ReadAt         *time.Time        `json:"read_at,omitempty"`
	Reactions      []MessageReaction `gorm:"foreignKey:MessageID" json:"reactions,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	DeletedAt      gorm.DeletedAt    `gorm:"index" json:"-"`
}

// MessageReaction is an emoji reaction on a message, unique per
// (message, user, emoji).
type MessageReaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MessageID uint      `gorm:"not null;uniqueIndex:idx_msg_user_emoji" json:"message_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_msg_user_emoji" json:"user_id"`
	Emoji     string    `gorm:"type:varchar(16);not null;uniqueIndex:idx_msg_user_emoji" json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}
