package repository

import (
	"context"
	"errors"
	"time"

	"infinity/internal/domain"
	"infinity/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	return storeErr(r.db.WithContext(ctx).Create(u).Error)
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, storeErr(err)
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, storeErr(err)
	}
	return &u, nil
}

func (r *UserRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var c int64
	err := r.db.WithContext(ctx).Unscoped().Model(&models.User{}).Where("username = ?", username).Count(&c).Error
	return c > 0, storeErr(err)
}

func (r *UserRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var c int64
	err := r.db.WithContext(ctx).Unscoped().Model(&models.User{}).Where("email = ?", email).Count(&c).Error
	return c > 0, storeErr(err)
}

// Summaries loads the public projection of every id that exists.
func (r *UserRepository) Summaries(ctx context.Context, ids []uint) (map[uint]models.UserSummary, error) {
	out := make(map[uint]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	err := r.db.WithContext(ctx).
		Select("id", "username", "display_name", "avatar_url").
		Where("id IN ?", ids).
		Find(&users).Error
	if err != nil {
		return nil, storeErr(err)
	}
	for i := range users {
		out[users[i].ID] = users[i].Summary()
	}
	return out, nil
}

// IncrementReputation applies delta in a single UPDATE so concurrent events never lose updates.
func (r *UserRepository) IncrementReputation(ctx context.Context, id uint, delta int) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("reputation", gorm.Expr("reputation + ?", delta))
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetVerificationToken stores token on an unverified user, replacing any previous one.
func (r *UserRepository) SetVerificationToken(ctx context.Context, id uint, token string, issuedAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND verified = ?", id, false).
		UpdateColumns(map[string]interface{}{
			"verification_token":     token,
			"verification_issued_at": issuedAt,
		})
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u.Verified {
		return domain.ErrConflict
	}
	return nil
}

// ConsumeVerificationToken clears token and marks its owner verified. The conditional UPDATE
// lets exactly one caller win; a zero issuedAfter disables the age check.
func (r *UserRepository) ConsumeVerificationToken(ctx context.Context, token string, issuedAfter time.Time) (uint, error) {
	if token == "" {
		return 0, domain.ErrInvalidToken
	}
	var u models.User
	err := r.db.WithContext(ctx).Select("id").Where("verification_token = ?", token).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, domain.ErrInvalidToken
	}
	if err != nil {
		return 0, storeErr(err)
	}
	q := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND verification_token = ?", u.ID, token)
	if !issuedAfter.IsZero() {
		q = q.Where("verification_issued_at >= ?", issuedAfter)
	}
	res := q.UpdateColumns(map[string]interface{}{
		"verified":               true,
		"verification_token":     nil,
		"verification_issued_at": nil,
	})
	if res.Error != nil {
		return 0, storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, domain.ErrInvalidToken
	}
	return u.ID, nil
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id uint, url string) error {
	return r.updateColumn(ctx, id, "avatar_url", url)
}

func (r *UserRepository) UpdateFCMToken(ctx context.Context, id uint, token string) error {
	return r.updateColumn(ctx, id, "fcm_token", token)
}

func (r *UserRepository) updateColumn(ctx context.Context, id uint, column string, value interface{}) error {
	db := r.db.WithContext(ctx)
	res := db.Model(&models.User{}).Where("id = ?", id).UpdateColumn(column, value)
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	// MySQL reports changed rows, so an unchanged value also lands here.
	var c int64
	if err := db.Model(&models.User{}).Where("id = ?", id).Count(&c).Error; err != nil {
		return storeErr(err)
	}
	if c == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RandomIDs samples up to limit user ids not in exclude.
func (r *UserRepository) RandomIDs(ctx context.Context, exclude []uint, limit int) ([]uint, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})
	if len(exclude) > 0 {
		q = q.Where("id NOT IN ?", exclude)
	}
	var ids []uint
	err := q.Order(randomOrder(r.db)).Limit(limit).Pluck("id", &ids).Error
	return ids, storeErr(err)
}

func randomOrder(db *gorm.DB) string {
	if db.Dialector.Name() == "mysql" {
		return "RAND()"
	}
	return "RANDOM()"
}
