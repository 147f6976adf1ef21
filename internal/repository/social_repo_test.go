package repository

import (
	"context"
	"testing"

	"infinity/internal/database/testdb"
	"infinity/internal/domain"
	"infinity/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFriendshipRepository_GraphQueries(t *testing.T) {
	db := testdb.Open(t)
	u := testdb.SeedUsers(t, db, 5)
	repo := NewFriendshipRepository(db)
	ctx := context.Background()

	testdb.Befriend(t, db, u[0].ID, u[1].ID)
	testdb.Befriend(t, db, u[2].ID, u[0].ID)
	testdb.Befriend(t, db, u[1].ID, u[3].ID)
	require.NoError(t, repo.Create(ctx, &models.Friendship{RequesterID: u[4].ID, AddresseeID: u[0].ID, Status: domain.FriendshipPending}))

	friends, err := repo.FriendIDs(ctx, u[0].ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{u[1].ID, u[2].ID}, friends)

	pending, err := repo.PendingPeerIDs(ctx, u[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{u[4].ID}, pending)

	edges, err := repo.AcceptedEdges(ctx, []uint{u[1].ID})
	require.NoError(t, err)
	assert.Len(t, edges, 2)

	counts, err := repo.CountFriends(ctx, []uint{u[0].ID, u[3].ID, u[4].ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, counts[u[0].ID])
	assert.EqualValues(t, 1, counts[u[3].ID])
	assert.Zero(t, counts[u[4].ID])

	f, err := repo.FindBetween(ctx, u[0].ID, u[2].ID)
	require.NoError(t, err)
	assert.Equal(t, u[2].ID, f.Other(u[0].ID))

	_, err = repo.FindBetween(ctx, u[3].ID, u[4].ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBlockAndDismissal_Idempotent(t *testing.T) {
	db := testdb.Open(t)
	u := testdb.SeedUsers(t, db, 3)
	blocks := NewBlockRepository(db)
	dismissals := NewDismissalRepository(db)
	ctx := context.Background()

	require.NoError(t, blocks.Create(ctx, &models.Block{BlockerID: u[0].ID, BlockedID: u[1].ID}))
	require.NoError(t, blocks.Create(ctx, &models.Block{BlockerID: u[0].ID, BlockedID: u[1].ID}))

	blocked, err := blocks.IsBlockedEither(ctx, u[1].ID, u[0].ID)
	require.NoError(t, err)
	assert.True(t, blocked)

	peers, err := blocks.BlockedPeerIDs(ctx, u[1].ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{u[0].ID}, peers)

	require.NoError(t, dismissals.Dismiss(ctx, u[0].ID, u[2].ID))
	require.NoError(t, dismissals.Dismiss(ctx, u[0].ID, u[2].ID))
	ids, err := dismissals.DismissedIDs(ctx, u[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{u[2].ID}, ids)

	require.NoError(t, blocks.Delete(ctx, u[0].ID, u[1].ID))
	blocked, err = blocks.IsBlockedEither(ctx, u[0].ID, u[1].ID)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestPairKeys_OneRowPerPair(t *testing.T) {
	db := testdb.Open(t)
	u := testdb.SeedUsers(t, db, 3)
	friendships := NewFriendshipRepository(db)
	conversations := NewConversationRepository(db)
	ctx := context.Background()

	require.NoError(t, friendships.Create(ctx, &models.Friendship{RequesterID: u[0].ID, AddresseeID: u[1].ID, Status: domain.FriendshipPending}))
	err := friendships.Create(ctx, &models.Friendship{RequesterID: u[1].ID, AddresseeID: u[0].ID, Status: domain.FriendshipPending})
	assert.ErrorIs(t, err, domain.ErrConflict)
	require.NoError(t, friendships.Create(ctx, &models.Friendship{RequesterID: u[1].ID, AddresseeID: u[2].ID, Status: domain.FriendshipPending}))

	conv, err := conversations.CreateDirect(ctx, u[0].ID, u[1].ID)
	require.NoError(t, err)
	_, err = conversations.CreateDirect(ctx, u[1].ID, u[0].ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	id, err := conversations.FindDirect(ctx, u[1].ID, u[0].ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, id)
}

func TestPostRepository_ToggleLikeOutcomes(t *testing.T) {
	db := testdb.Open(t)
	u := testdb.SeedUsers(t, db, 2)
	repo := NewPostRepository(db)
	ctx := context.Background()

	post := &models.Post{AuthorID: u[0].ID, Content: "x"}
	require.NoError(t, repo.Create(ctx, post))

	out, err := repo.ToggleLike(ctx, post.ID, u[1].ID, "like")
	require.NoError(t, err)
	assert.Equal(t, LikeAdded, out)

	out, err = repo.ToggleLike(ctx, post.ID, u[1].ID, "wow")
	require.NoError(t, err)
	assert.Equal(t, LikeChanged, out)

	count, err := repo.CountLikes(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	out, err = repo.ToggleLike(ctx, post.ID, u[1].ID, "wow")
	require.NoError(t, err)
	assert.Equal(t, LikeRemoved, out)

	count, err = repo.CountLikes(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = repo.GetComment(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
