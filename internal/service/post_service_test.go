package service

import (
	"context"
	"testing"

	"infinity/internal/domain"
	"infinity/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleLike_NotifiesAndCreditsAuthor(t *testing.T) {
	f := newSocialFixture(t, 2)
	ctx := context.Background()
	author, liker := f.users[0].ID, f.users[1].ID
	f.pusher.sessions[author] = 1

	post, err := f.posts.Create(ctx, author, "first post")
	require.NoError(t, err)
	assert.Equal(t, 5, f.reputationOf(t, author))

	res, err := f.posts.ToggleLike(ctx, liker, post.ID, "")
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, "like", res.Type)
	require.NotNil(t, res.Likes)
	assert.EqualValues(t, 1, *res.Likes)

	assert.Equal(t, 6, f.reputationOf(t, author))
	assert.Equal(t, 0, f.reputationOf(t, liker))
	assert.EqualValues(t, 1, f.unread(t, author))
	assert.EqualValues(t, 0, f.unread(t, liker))

	events := f.pusher.eventsFor(author, domain.EventNotification)
	require.Len(t, events, 1)
	view := events[0].Data.(models.NotificationView)
	assert.Equal(t, domain.NotificationLike, view.Type)
	assert.Equal(t, liker, view.From.ID)
	require.NotNil(t, view.PostID)
	assert.Equal(t, post.ID, *view.PostID)
	assert.False(t, view.Read)
}

func TestToggleLike_SwitchAndRemoveAreQuiet(t *testing.T) {
	f := newSocialFixture(t, 2)
	ctx := context.Background()
	author, liker := f.users[0].ID, f.users[1].ID

	post, err := f.posts.Create(ctx, author, "hello")
	require.NoError(t, err)

	_, err = f.posts.ToggleLike(ctx, liker, post.ID, "like")
	require.NoError(t, err)

	res, err := f.posts.ToggleLike(ctx, liker, post.ID, "LOVE")
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, "love", res.Type)
	require.NotNil(t, res.Likes)
	assert.EqualValues(t, 1, *res.Likes)

	res, err = f.posts.ToggleLike(ctx, liker, post.ID, "love")
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Empty(t, res.Type)
	require.NotNil(t, res.Likes)
	assert.EqualValues(t, 0, *res.Likes)

	assert.EqualValues(t, 1, f.unread(t, author))
	assert.Equal(t, 6, f.reputationOf(t, author))

	_, err = f.posts.ToggleLike(ctx, liker, post.ID, "meh")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.posts.ToggleLike(ctx, liker, 404, "like")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestToggleLike_OwnPostIsNotNotified(t *testing.T) {
	f := newSocialFixture(t, 1)
	ctx := context.Background()
	author := f.users[0].ID

	post, err := f.posts.Create(ctx, author, "me")
	require.NoError(t, err)
	_, err = f.posts.ToggleLike(ctx, author, post.ID, "like")
	require.NoError(t, err)

	assert.EqualValues(t, 0, f.unread(t, author))
	assert.Equal(t, 5, f.reputationOf(t, author))
}

func TestAddComment_CreditsBothSidesAndNotifiesParent(t *testing.T) {
	f := newSocialFixture(t, 3)
	ctx := context.Background()
	author, first, second := f.users[0].ID, f.users[1].ID, f.users[2].ID

	post, err := f.posts.Create(ctx, author, "discuss")
	require.NoError(t, err)

	top, err := f.posts.AddComment(ctx, first, post.ID, "  nice  ", nil)
	require.NoError(t, err)
	assert.Equal(t, "nice", top.Content)

	reply, err := f.posts.AddComment(ctx, second, post.ID, "agreed", &top.ID)
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)

	assert.Equal(t, 5+2+2, f.reputationOf(t, author))
	assert.Equal(t, 1, f.reputationOf(t, first))
	assert.Equal(t, 1, f.reputationOf(t, second))

	assert.EqualValues(t, 2, f.unread(t, author))
	assert.EqualValues(t, 1, f.unread(t, first))
	assert.EqualValues(t, 0, f.unread(t, second))

	_, err = f.posts.AddComment(ctx, first, post.ID, "   ", nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	missing := uint(999)
	_, err = f.posts.AddComment(ctx, first, post.ID, "reply", &missing)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestToggleCommentLike(t *testing.T) {
	f := newSocialFixture(t, 2)
	ctx := context.Background()
	author, fan := f.users[0].ID, f.users[1].ID

	post, err := f.posts.Create(ctx, author, "p")
	require.NoError(t, err)
	c, err := f.posts.AddComment(ctx, author, post.ID, "my own comment", nil)
	require.NoError(t, err)

	res, err := f.posts.ToggleCommentLike(ctx, fan, c.ID, "")
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.EqualValues(t, 1, f.unread(t, author))

	res, err = f.posts.ToggleCommentLike(ctx, fan, c.ID, "")
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.EqualValues(t, 1, f.unread(t, author))

	// Comment likes carry no reputation: 5 for the post, 1 for commenting.
	assert.Equal(t, 6, f.reputationOf(t, author))
}
