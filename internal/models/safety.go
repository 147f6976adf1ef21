package models

import "time"

type Block struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BlockerID uint      `gorm:"not null;uniqueIndex:idx_block_pair" json:"blockerId"`
	BlockedID uint      `gorm:"not null;uniqueIndex:idx_block_pair;index" json:"blockedId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Block) TableName() string {
	return "blocks"
}

// SuggestionDismissal records that UserID does not want CandidateID suggested again.
type SuggestionDismissal struct {
	UserID      uint      `gorm:"primaryKey" json:"userId"`
	CandidateID uint      `gorm:"primaryKey" json:"candidateId"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (SuggestionDismissal) TableName() string {
	return "suggestion_dismissals"
}
