package models

import (
	"time"

	"infinity/internal/domain"

	"gorm.io/gorm"
)

type User struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	Username             string         `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email                string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash         string         `gorm:"size:255" json:"-"`
	DisplayName          string         `gorm:"size:128" json:"displayName"`
	AvatarURL            string         `gorm:"size:512" json:"avatarUrl"`
	Bio                  string         `gorm:"type:text" json:"bio"`
	Verified             bool           `gorm:"not null;default:false" json:"verified"`
	VerificationToken    *string        `gorm:"uniqueIndex;size:64" json:"-"`
	VerificationIssuedAt *time.Time     `json:"-"`
	Reputation           int            `gorm:"not null;default:0" json:"reputation"`
	FCMToken             string         `gorm:"size:512" json:"-"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// VerificationState derives the account's position in the verification flow.
func (u *User) VerificationState() string {
	switch {
	case u.Verified:
		return domain.VerificationVerified
	case u.VerificationToken != nil && *u.VerificationToken != "":
		return domain.VerificationPending
	default:
		return domain.VerificationUnverified
	}
}

// UserSummary is the public projection of a user embedded in notifications,
// conversations and suggestions.
type UserSummary struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}
