package models

import "time"

type Conversation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	// PairKey is set for two-party conversations so each pair has at most one.
	PairKey   *string   `gorm:"size:41;uniqueIndex" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Participants []ConversationParticipant `gorm:"foreignKey:ConversationID" json:"-"`
}

func (Conversation) TableName() string {
	return "conversations"
}

type ConversationParticipant struct {
	ConversationID uint      `gorm:"primaryKey" json:"conversationId"`
	UserID         uint      `gorm:"primaryKey;index" json:"userId"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (ConversationParticipant) TableName() string {
	return "conversation_participants"
}

// Message is a direct message. ReadAt is nil until the recipient reads it.
type Message struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ConversationID uint       `gorm:"not null;index:idx_messages_conversation" json:"conversationId"`
	SenderID       uint       `gorm:"not null;index" json:"senderId"`
	Content        string     `gorm:"type:text" json:"content"`
	CreatedAt      time.Time  `json:"createdAt"`
	ReadAt         *time.Time `gorm:"index" json:"readAt"`
}

func (Message) TableName() string {
	return "messages"
}

type LastMessage struct {
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// ConversationView is the per-viewer summary of a conversation. ID is empty for a friend
// the viewer has not started a conversation with yet.
type ConversationView struct {
	ID            string        `json:"id"`
	Participants  []UserSummary `json:"participants"`
	LastMessage   *LastMessage  `json:"lastMessage"`
	LastMessageAt *time.Time    `json:"lastMessageAt"`
	UnreadCount   int64         `json:"unreadCount"`
}
