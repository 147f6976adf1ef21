package service

import (
	"context"
	"fmt"
	"strings"

	"infinity/internal/domain"
	"infinity/internal/models"
	"infinity/internal/repository"

	"github.com/rs/zerolog/log"
)

type postStore interface {
	Create(ctx context.Context, p *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	ToggleLike(ctx context.Context, postID, userID uint, kind string) (repository.LikeOutcome, error)
	CountLikes(ctx context.Context, postID uint) (int64, error)
	CreateComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, id uint) (*models.Comment, error)
	ToggleCommentLike(ctx context.Context, commentID, userID uint, kind string) (bool, error)
}

// ReputationCrediter is the consumer view of ReputationService.
type ReputationCrediter interface {
	ApplyAsync(userID uint, kind domain.ReputationKind)
}

type LikeResult struct {
	Liked bool   `json:"liked"`
	Type  string `json:"type,omitempty"`
	// Likes is the post's reaction count after the toggle; unset for comments.
	Likes *int64 `json:"likes,omitempty"`
}

// PostService runs post, like and comment actions and their reputation and notification side effects.
type PostService struct {
	posts      postStore
	reputation ReputationCrediter
	notifier   Notifier
}

func NewPostService(posts postStore, reputation ReputationCrediter, notifier Notifier) *PostService {
	return &PostService{posts: posts, reputation: reputation, notifier: notifier}
}

func (s *PostService) Create(ctx context.Context, authorID uint, content string) (*models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: post is empty", domain.ErrValidation)
	}
	p := &models.Post{AuthorID: authorID, Content: content}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, err
	}
	s.reputation.ApplyAsync(authorID, domain.CreatePost)
	return p, nil
}

// ToggleLike reacts to a post. A new reaction notifies the author and credits RECEIVE_LIKE to
// them; removing or switching a reaction does neither.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint, kind string) (*LikeResult, error) {
	kind = reactionOrDefault(kind)
	if !domain.IsReaction(kind) {
		return nil, fmt.Errorf("%w: unknown reaction %q", domain.ErrValidation, kind)
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	outcome, err := s.posts.ToggleLike(ctx, postID, userID, kind)
	if err != nil {
		return nil, err
	}
	res := &LikeResult{Liked: outcome != repository.LikeRemoved}
	if res.Liked {
		res.Type = kind
	}
	if n, err := s.posts.CountLikes(ctx, post.ID); err != nil {
		log.Warn().Err(err).Uint("post_id", post.ID).Msg("posts: count likes")
	} else {
		res.Likes = &n
	}
	if outcome != repository.LikeAdded {
		return res, nil
	}

	if post.AuthorID != userID {
		pid := post.ID
		s.notify(ctx, Notice{
			RecipientID: post.AuthorID,
			ActorID:     userID,
			Type:        domain.NotificationLike,
			Message:     fmt.Sprintf("reacted with %s to your post", kind),
			PostID:      &pid,
		})
		s.reputation.ApplyAsync(post.AuthorID, domain.ReceiveLike)
	}
	return res, nil
}

// AddComment credits CREATE_COMMENT to the commenter and RECEIVE_COMMENT to the post author,
// then notifies the author and, for replies, the parent comment's author.
func (s *PostService) AddComment(ctx context.Context, userID, postID uint, content string, parentID *uint) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment is empty", domain.ErrValidation)
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	var parent *models.Comment
	if parentID != nil {
		parent, err = s.posts.GetComment(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != postID {
			return nil, fmt.Errorf("%w: parent comment belongs to another post", domain.ErrValidation)
		}
	}

	c := &models.Comment{PostID: postID, UserID: userID, ParentID: parentID, Content: content}
	if err := s.posts.CreateComment(ctx, c); err != nil {
		return nil, err
	}

	s.reputation.ApplyAsync(userID, domain.CreateComment)
	pid := post.ID
	if post.AuthorID != userID {
		s.reputation.ApplyAsync(post.AuthorID, domain.ReceiveComment)
		s.notify(ctx, Notice{
			RecipientID: post.AuthorID,
			ActorID:     userID,
			Type:        domain.NotificationComment,
			Message:     "commented on your post",
			PostID:      &pid,
		})
	}
	if parent != nil && parent.UserID != userID && parent.UserID != post.AuthorID {
		s.notify(ctx, Notice{
			RecipientID: parent.UserID,
			ActorID:     userID,
			Type:        domain.NotificationComment,
			Message:     "replied to your comment",
			PostID:      &pid,
		})
	}
	return c, nil
}

// ToggleCommentLike notifies the comment author on a new like. Comment likes carry no reputation.
func (s *PostService) ToggleCommentLike(ctx context.Context, userID, commentID uint, kind string) (*LikeResult, error) {
	kind = reactionOrDefault(kind)
	if !domain.IsReaction(kind) {
		return nil, fmt.Errorf("%w: unknown reaction %q", domain.ErrValidation, kind)
	}
	comment, err := s.posts.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	added, err := s.posts.ToggleCommentLike(ctx, commentID, userID, kind)
	if err != nil {
		return nil, err
	}
	if !added {
		return &LikeResult{Liked: false}, nil
	}
	if comment.UserID != userID {
		pid := comment.PostID
		s.notify(ctx, Notice{
			RecipientID: comment.UserID,
			ActorID:     userID,
			Type:        domain.NotificationLikeComment,
			Message:     "liked your comment",
			PostID:      &pid,
		})
	}
	return &LikeResult{Liked: true, Type: kind}, nil
}

func reactionOrDefault(kind string) string {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		return "like"
	}
	return kind
}

func (s *PostService) notify(ctx context.Context, n Notice) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Notify(ctx, n); err != nil {
		log.Error().Err(err).Uint("recipient_id", n.RecipientID).Str("type", n.Type).Msg("posts: notify")
	}
}
