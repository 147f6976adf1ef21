package repository

import (
	"context"

	"infinity/internal/domain"
	"infinity/internal/models"

	"gorm.io/gorm"
)

type FriendshipRepository struct {
	db *gorm.DB
}

func NewFriendshipRepository(db *gorm.DB) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

func (r *FriendshipRepository) Create(ctx context.Context, f *models.Friendship) error {
	return storeErr(r.db.WithContext(ctx).Create(f).Error)
}

func (r *FriendshipRepository) GetByID(ctx context.Context, id uint) (*models.Friendship, error) {
	var f models.Friendship
	if err := r.db.WithContext(ctx).First(&f, id).Error; err != nil {
		return nil, storeErr(err)
	}
	return &f, nil
}

// FindBetween returns the friendship row linking a and b in either direction.
func (r *FriendshipRepository) FindBetween(ctx context.Context, a, b uint) (*models.Friendship, error) {
	var f models.Friendship
	err := r.db.WithContext(ctx).
		Where("(requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)", a, b, b, a).
		First(&f).Error
	if err != nil {
		return nil, storeErr(err)
	}
	return &f, nil
}

// Accept flips a pending request addressed to addresseeID.
func (r *FriendshipRepository) Accept(ctx context.Context, id, addresseeID uint) error {
	res := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("id = ? AND addressee_id = ? AND status = ?", id, addresseeID, domain.FriendshipPending).
		Update("status", domain.FriendshipAccepted)
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a request or friendship that userID is an endpoint of.
func (r *FriendshipRepository) Delete(ctx context.Context, id, userID uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND (requester_id = ? OR addressee_id = ?)", id, userID, userID).
		Delete(&models.Friendship{})
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FriendIDs returns the accepted friends of userID.
func (r *FriendshipRepository) FriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	return r.peerIDs(ctx, userID, domain.FriendshipAccepted)
}

// PendingPeerIDs returns users with a pending request to or from userID.
func (r *FriendshipRepository) PendingPeerIDs(ctx context.Context, userID uint) ([]uint, error) {
	return r.peerIDs(ctx, userID, domain.FriendshipPending)
}

func (r *FriendshipRepository) peerIDs(ctx context.Context, userID uint, status string) ([]uint, error) {
	var rows []models.Friendship
	err := r.db.WithContext(ctx).
		Select("requester_id", "addressee_id").
		Where("(requester_id = ? OR addressee_id = ?) AND status = ?", userID, userID, status).
		Find(&rows).Error
	if err != nil {
		return nil, storeErr(err)
	}
	ids := make([]uint, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].Other(userID))
	}
	return ids, nil
}

// AcceptedEdges returns every accepted friendship touching any of ids.
func (r *FriendshipRepository) AcceptedEdges(ctx context.Context, ids []uint) ([]models.Friendship, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Friendship
	err := r.db.WithContext(ctx).
		Select("requester_id", "addressee_id").
		Where("status = ? AND (requester_id IN ? OR addressee_id IN ?)", domain.FriendshipAccepted, ids, ids).
		Find(&rows).Error
	return rows, storeErr(err)
}

// CountFriends returns the accepted friend count of each id.
func (r *FriendshipRepository) CountFriends(ctx context.Context, ids []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	edges, err := r.AcceptedEdges(ctx, ids)
	if err != nil {
		return nil, err
	}
	want := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
		out[id] = 0
	}
	for _, e := range edges {
		if _, ok := want[e.RequesterID]; ok {
			out[e.RequesterID]++
		}
		if _, ok := want[e.AddresseeID]; ok {
			out[e.AddresseeID]++
		}
	}
	return out, nil
}

func (r *FriendshipRepository) Friends(ctx context.Context, userID uint) ([]models.User, error) {
	ids, err := r.FriendIDs(ctx, userID)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	var users []models.User
	err = r.db.WithContext(ctx).Where("id IN ?", ids).Order("username").Find(&users).Error
	return users, storeErr(err)
}

// PendingIncoming lists requests waiting for userID to answer.
func (r *FriendshipRepository) PendingIncoming(ctx context.Context, userID uint) ([]models.Friendship, error) {
	var rows []models.Friendship
	err := r.db.WithContext(ctx).
		Preload("Requester").
		Where("addressee_id = ? AND status = ?", userID, domain.FriendshipPending).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, storeErr(err)
}
