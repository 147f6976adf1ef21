package models

import "time"

type Notification struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RecipientID uint      `gorm:"not null;index:idx_notifications_recipient_read" json:"recipientId"`
	ActorID     uint      `gorm:"not null;index" json:"actorId"`
	Type        string    `gorm:"size:50;not null" json:"type"`
	Message     string    `gorm:"size:512" json:"message"`
	PostID      *uint     `gorm:"index" json:"postId,omitempty"`
	IsRead      bool      `gorm:"not null;default:false;index:idx_notifications_recipient_read" json:"read"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`

	Actor User `gorm:"foreignKey:ActorID" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}

// NotificationView is the client-facing shape shared by pushed and fetched notifications,
// so clients can merge both by id.
type NotificationView struct {
	ID        uint        `json:"id"`
	Type      string      `json:"type"`
	Message   string      `json:"message"`
	From      UserSummary `json:"from"`
	PostID    *uint       `json:"postId,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	Read      bool        `json:"read"`
}

// View renders n with actor as the "from" summary.
func (n *Notification) View(actor UserSummary) NotificationView {
	return NotificationView{
		ID:        n.ID,
		Type:      n.Type,
		Message:   n.Message,
		From:      actor,
		PostID:    n.PostID,
		CreatedAt: n.CreatedAt,
		Read:      n.IsRead,
	}
}
