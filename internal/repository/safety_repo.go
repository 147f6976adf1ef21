package repository

import (
	"context"

	"infinity/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BlockRepository struct {
	db *gorm.DB
}

func NewBlockRepository(db *gorm.DB) *BlockRepository {
	return &BlockRepository{db: db}
}

func (r *BlockRepository) Create(ctx context.Context, b *models.Block) error {
	return storeErr(r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(b).Error)
}

func (r *BlockRepository) Delete(ctx context.Context, blockerID, blockedID uint) error {
	err := r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.Block{}).Error
	return storeErr(err)
}

// BlockedPeerIDs returns users that userID blocked or was blocked by.
func (r *BlockRepository) BlockedPeerIDs(ctx context.Context, userID uint) ([]uint, error) {
	var rows []models.Block
	err := r.db.WithContext(ctx).
		Where("blocker_id = ? OR blocked_id = ?", userID, userID).
		Find(&rows).Error
	if err != nil {
		return nil, storeErr(err)
	}
	ids := make([]uint, 0, len(rows))
	for _, b := range rows {
		if b.BlockerID == userID {
			ids = append(ids, b.BlockedID)
		} else {
			ids = append(ids, b.BlockerID)
		}
	}
	return ids, nil
}

func (r *BlockRepository) IsBlockedEither(ctx context.Context, a, b uint) (bool, error) {
	var c int64
	err := r.db.WithContext(ctx).Model(&models.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&c).Error
	return c > 0, storeErr(err)
}

type DismissalRepository struct {
	db *gorm.DB
}

func NewDismissalRepository(db *gorm.DB) *DismissalRepository {
	return &DismissalRepository{db: db}
}

// Dismiss is idempotent.
func (r *DismissalRepository) Dismiss(ctx context.Context, userID, candidateID uint) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.SuggestionDismissal{UserID: userID, CandidateID: candidateID}).Error
	return storeErr(err)
}

func (r *DismissalRepository) DismissedIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.SuggestionDismissal{}).
		Where("user_id = ?", userID).
		Pluck("candidate_id", &ids).Error
	return ids, storeErr(err)
}
