package repository

import (
	"context"

	"infinity/internal/domain"
	"infinity/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return storeErr(r.db.WithContext(ctx).Create(n).Error)
}

// ListByRecipient returns newest first with the actor preloaded.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.WithContext(ctx).
		Preload("Actor").
		Where("recipient_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, storeErr(err)
}

func (r *NotificationRepository) CountByRecipient(ctx context.Context, userID uint) (int64, error) {
	var c int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ?", userID).Count(&c).Error
	return c, storeErr(err)
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var c int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&c).Error
	return c, storeErr(err)
}

// MarkRead flips one notification owned by userID. changed is false when it was already read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID uint) (changed bool, err error) {
	db := r.db.WithContext(ctx)
	res := db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ? AND is_read = ?", id, userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return false, storeErr(res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	var c int64
	if err := db.Model(&models.Notification{}).Where("id = ? AND recipient_id = ?", id, userID).Count(&c).Error; err != nil {
		return false, storeErr(err)
	}
	if c == 0 {
		return false, domain.ErrNotFound
	}
	return false, nil
}

// MaxID is the highest notification id of userID, 0 when there are none.
func (r *NotificationRepository) MaxID(ctx context.Context, userID uint) (uint, error) {
	var id uint
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Select("COALESCE(MAX(id), 0)").
		Where("recipient_id = ?", userID).
		Scan(&id).Error
	return id, storeErr(err)
}

// MarkAllReadUpTo flips unread rows of userID with id <= upTo.
func (r *NotificationRepository) MarkAllReadUpTo(ctx context.Context, userID, upTo uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ? AND id <= ?", userID, false, upTo).
		Update("is_read", true)
	return res.RowsAffected, storeErr(res.Error)
}

func (r *NotificationRepository) Delete(ctx context.Context, id, userID uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND recipient_id = ?", id, userID).Delete(&models.Notification{})
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
