package models

import (
	"time"

	"gorm.io/gorm"
)

// Friendship is a directed request that becomes a symmetric edge once accepted.
type Friendship struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RequesterID uint      `gorm:"not null;index" json:"requesterId"`
	AddresseeID uint      `gorm:"not null;index" json:"addresseeId"`
	// PairKey allows one row per pair whichever side asked first.
	PairKey     string    `gorm:"size:41;not null;uniqueIndex" json:"-"`
	Status      string    `gorm:"size:20;not null;index" json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Requester User `gorm:"foreignKey:RequesterID" json:"-"`
	Addressee User `gorm:"foreignKey:AddresseeID" json:"-"`
}

func (Friendship) TableName() string {
	return "friendships"
}

func (f *Friendship) BeforeCreate(*gorm.DB) error {
	f.PairKey = PairKey(f.RequesterID, f.AddresseeID)
	return nil
}

// Other returns the endpoint that is not userID.
func (f *Friendship) Other(userID uint) uint {
	if f.RequesterID == userID {
		return f.AddresseeID
	}
	return f.RequesterID
}
