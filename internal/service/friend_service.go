package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"infinity/internal/domain"
	"infinity/internal/models"

	"github.com/rs/zerolog/log"
)

type friendshipStore interface {
	Create(ctx context.Context, f *models.Friendship) error
	GetByID(ctx context.Context, id uint) (*models.Friendship, error)
	FindBetween(ctx context.Context, a, b uint) (*models.Friendship, error)
	Accept(ctx context.Context, id, addresseeID uint) error
	Delete(ctx context.Context, id, userID uint) error
	Friends(ctx context.Context, userID uint) ([]models.User, error)
	PendingIncoming(ctx context.Context, userID uint) ([]models.Friendship, error)
}

type blockStore interface {
	Create(ctx context.Context, b *models.Block) error
	Delete(ctx context.Context, blockerID, blockedID uint) error
	IsBlockedEither(ctx context.Context, a, b uint) (bool, error)
}

// Notifier is the consumer view of NotificationService.
type Notifier interface {
	Notify(ctx context.Context, n Notice) (*models.NotificationView, error)
}

type conversationOpener interface {
	GetOrCreate(ctx context.Context, a, b uint) (uint, error)
}

type FriendRequestView struct {
	ID        uint               `json:"id"`
	From      models.UserSummary `json:"from"`
	CreatedAt time.Time          `json:"createdAt"`
}

type FriendService struct {
	friendships   friendshipStore
	blocks        blockStore
	users         userDirectory
	notifier      Notifier
	conversations conversationOpener
}

func NewFriendService(friendships friendshipStore, blocks blockStore, users userDirectory, notifier Notifier, conversations conversationOpener) *FriendService {
	return &FriendService{friendships: friendships, blocks: blocks, users: users, notifier: notifier, conversations: conversations}
}

// SendRequest creates a pending request from requesterID to addresseeID and notifies the addressee.
func (s *FriendService) SendRequest(ctx context.Context, requesterID, addresseeID uint) (*models.Friendship, error) {
	if requesterID == addresseeID {
		return nil, fmt.Errorf("%w: cannot befriend yourself", domain.ErrValidation)
	}
	if _, err := s.users.GetByID(ctx, addresseeID); err != nil {
		return nil, err
	}
	blocked, err := s.blocks.IsBlockedEither(ctx, requesterID, addresseeID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, fmt.Errorf("%w: user unavailable", domain.ErrForbidden)
	}
	existing, err := s.friendships.FindBetween(ctx, requesterID, addresseeID)
	switch {
	case err == nil && existing.Status == domain.FriendshipAccepted:
		return nil, fmt.Errorf("%w: already friends", domain.ErrConflict)
	case err == nil:
		return nil, fmt.Errorf("%w: friend request already exists", domain.ErrConflict)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	f := &models.Friendship{RequesterID: requesterID, AddresseeID: addresseeID, Status: domain.FriendshipPending}
	if err := s.friendships.Create(ctx, f); err != nil {
		return nil, err
	}
	s.notify(ctx, Notice{
		RecipientID: addresseeID,
		ActorID:     requesterID,
		Type:        domain.NotificationFriendRequest,
		Message:     "sent you a friend request",
	})
	return f, nil
}

// Accept turns a pending request addressed to userID into a friendship, opens a conversation
// between the two and notifies the requester. It returns the conversation id, or 0 when the
// conversation could not be opened; the friendship stands either way.
func (s *FriendService) Accept(ctx context.Context, userID, requestID uint) (uint, error) {
	f, err := s.friendships.GetByID(ctx, requestID)
	if err != nil {
		return 0, err
	}
	if err := s.friendships.Accept(ctx, requestID, userID); err != nil {
		return 0, err
	}
	convID, err := s.conversations.GetOrCreate(ctx, f.RequesterID, f.AddresseeID)
	if err != nil {
		log.Error().Err(err).
			Uint("request_id", requestID).
			Uint("requester_id", f.RequesterID).
			Uint("addressee_id", f.AddresseeID).
			Msg("friends: open conversation on accept")
		convID = 0
	}
	s.notify(ctx, Notice{
		RecipientID: f.RequesterID,
		ActorID:     userID,
		Type:        domain.NotificationFriendAccept,
		Message:     "accepted your friend request",
	})
	return convID, nil
}

// Remove rejects, cancels or ends a friendship userID takes part in.
func (s *FriendService) Remove(ctx context.Context, userID, requestID uint) error {
	return s.friendships.Delete(ctx, requestID, userID)
}

func (s *FriendService) Friends(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	users, err := s.friendships.Friends(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, nil
}

func (s *FriendService) PendingRequests(ctx context.Context, userID uint) ([]FriendRequestView, error) {
	rows, err := s.friendships.PendingIncoming(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]FriendRequestView, 0, len(rows))
	for i := range rows {
		out = append(out, FriendRequestView{ID: rows[i].ID, From: rows[i].Requester.Summary(), CreatedAt: rows[i].CreatedAt})
	}
	return out, nil
}

// Block hides the two users from each other and drops any friendship between them.
func (s *FriendService) Block(ctx context.Context, userID, targetID uint) error {
	if userID == targetID {
		return fmt.Errorf("%w: cannot block yourself", domain.ErrValidation)
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return err
	}
	if err := s.blocks.Create(ctx, &models.Block{BlockerID: userID, BlockedID: targetID}); err != nil {
		return err
	}
	f, err := s.friendships.FindBetween(ctx, userID, targetID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.friendships.Delete(ctx, f.ID, userID)
}

func (s *FriendService) Unblock(ctx context.Context, userID, targetID uint) error {
	return s.blocks.Delete(ctx, userID, targetID)
}

// notify delivers n without failing the action that triggered it.
func (s *FriendService) notify(ctx context.Context, n Notice) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Notify(ctx, n); err != nil {
		log.Error().Err(err).Uint("recipient_id", n.RecipientID).Str("type", n.Type).Msg("friends: notify")
	}
}
