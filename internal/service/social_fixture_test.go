package service

import (
	"context"
	"testing"
	"time"

	"infinity/config"
	"infinity/internal/database/testdb"
	"infinity/internal/models"
	"infinity/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// socialFixture wires the real repositories over a sqlite database with a recording pusher.
type socialFixture struct {
	db            *gorm.DB
	pusher        *fakePusher
	users         []models.User
	notifications *NotificationService
	reputation    *ReputationService
	conversations *ConversationService
	friends       *FriendService
	posts         *PostService
}

func newSocialFixture(t *testing.T, n int) *socialFixture {
	t.Helper()
	db := testdb.Open(t)
	users := testdb.SeedUsers(t, db, n)
	pusher := newFakePusher()

	userRepo := repository.NewUserRepository(db)
	friendRepo := repository.NewFriendshipRepository(db)
	blockRepo := repository.NewBlockRepository(db)

	notifications := NewNotificationService(repository.NewNotificationRepository(db), userRepo, pusher, nil)
	reputation := NewReputationService(userRepo, config.ReputationConfig{MaxRetries: 1, BaseDelay: time.Millisecond, Timeout: time.Second})
	conversations := NewConversationService(repository.NewConversationRepository(db), friendRepo, blockRepo, userRepo, pusher)

	return &socialFixture{
		db:            db,
		pusher:        pusher,
		users:         users,
		notifications: notifications,
		reputation:    reputation,
		conversations: conversations,
		friends:       NewFriendService(friendRepo, blockRepo, userRepo, notifications, conversations),
		posts:         NewPostService(repository.NewPostRepository(db), reputation, notifications),
	}
}

func (f *socialFixture) reputationOf(t *testing.T, userID uint) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.reputation.Drain(ctx))
	var u models.User
	require.NoError(t, f.db.First(&u, userID).Error)
	return u.Reputation
}

func (f *socialFixture) unread(t *testing.T, userID uint) int64 {
	t.Helper()
	n, err := f.notifications.UnreadCount(context.Background(), userID)
	require.NoError(t, err)
	return n
}
