package repository

import (
	"context"
	"errors"

	"infinity/internal/models"

	"gorm.io/gorm"
)

// LikeOutcome reports what a like toggle did.
type LikeOutcome int

const (
	LikeAdded LikeOutcome = iota
	LikeRemoved
	LikeChanged
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, p *models.Post) error {
	return storeErr(r.db.WithContext(ctx).Create(p).Error)
}

func (r *PostRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var p models.Post
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, storeErr(err)
	}
	return &p, nil
}

// ToggleLike removes a like of the same type, switches a like of another type, or adds one.
func (r *PostRepository) ToggleLike(ctx context.Context, postID, userID uint, kind string) (LikeOutcome, error) {
	var outcome LikeOutcome
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Like
		err := tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			outcome = LikeAdded
			return tx.Create(&models.Like{PostID: postID, UserID: userID, Type: kind}).Error
		case err != nil:
			return err
		case existing.Type == kind:
			outcome = LikeRemoved
			return tx.Delete(&existing).Error
		default:
			outcome = LikeChanged
			return tx.Model(&existing).Update("type", kind).Error
		}
	})
	return outcome, storeErr(err)
}

func (r *PostRepository) CountLikes(ctx context.Context, postID uint) (int64, error) {
	var c int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).Where("post_id = ?", postID).Count(&c).Error
	return c, storeErr(err)
}

func (r *PostRepository) CreateComment(ctx context.Context, c *models.Comment) error {
	return storeErr(r.db.WithContext(ctx).Create(c).Error)
}

func (r *PostRepository) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	var c models.Comment
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, storeErr(err)
	}
	return &c, nil
}

// ToggleCommentLike adds or removes userID's like on a comment. added reports which.
func (r *PostRepository) ToggleCommentLike(ctx context.Context, commentID, userID uint, kind string) (added bool, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).Delete(&models.CommentLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		added = true
		return tx.Create(&models.CommentLike{CommentID: commentID, UserID: userID, Type: kind}).Error
	})
	return added, storeErr(err)
}
