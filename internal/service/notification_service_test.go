package service

import (
	"context"
	"errors"
	"testing"

	"infinity/internal/domain"
	"infinity/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notificationFixture struct {
	svc    *NotificationService
	store  *fakeNotificationStore
	pusher *fakePusher
	device *fakeDevice
}

func newNotificationFixture() *notificationFixture {
	f := &notificationFixture{
		store:  &fakeNotificationStore{},
		pusher: newFakePusher(),
		device: &fakeDevice{},
	}
	users := newFakeUsers(
		models.User{ID: 1, Username: "alice", DisplayName: "Alice"},
		models.User{ID: 2, Username: "bob", FCMToken: "bob-device"},
		models.User{ID: 3, Username: "carol"},
	)
	f.svc = NewNotificationService(f.store, users, f.pusher, f.device)
	return f
}

func (f *notificationFixture) notify(t *testing.T, recipient, actor uint) *models.NotificationView {
	t.Helper()
	v, err := f.svc.Notify(context.Background(), Notice{RecipientID: recipient, ActorID: actor, Type: domain.NotificationLike, Message: "liked your post"})
	require.NoError(t, err)
	return v
}

func TestNotify_PersistsAndPushesToEverySession(t *testing.T) {
	f := newNotificationFixture()
	f.pusher.sessions[2] = 2
	ctx := context.Background()

	before, err := f.svc.UnreadCount(ctx, 2)
	require.NoError(t, err)

	view := f.notify(t, 2, 1)
	require.NotNil(t, view)

	after, _ := f.svc.UnreadCount(ctx, 2)
	assert.Equal(t, before+1, after)

	assert.False(t, view.Read)
	assert.Equal(t, "alice", view.From.Username)
	assert.Equal(t, "Alice", view.From.DisplayName)

	pushes := f.pusher.eventsFor(2, domain.EventNotification)
	require.Len(t, pushes, 1)
	assert.Equal(t, view.ID, pushes[0].Data.(models.NotificationView).ID)
	assert.Empty(t, f.device.sent, "live sessions took it, no device push")

	page, err := f.svc.List(ctx, 2, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Notifications, 1)
	assert.Equal(t, view.ID, page.Notifications[0].ID, "fetched and pushed objects share identity")
}

func TestNotify_FallsBackToDeviceWhenOffline(t *testing.T) {
	f := newNotificationFixture()

	f.notify(t, 2, 1)

	assert.Equal(t, []string{"bob-device:like"}, f.device.sent)
}

func TestNotify_DeviceFailureDoesNotFail(t *testing.T) {
	f := newNotificationFixture()
	f.device.err = errors.New("fcm down")

	view := f.notify(t, 2, 1)

	assert.NotNil(t, view)
	n, _ := f.svc.UnreadCount(context.Background(), 2)
	assert.Equal(t, int64(1), n)
}

func TestNotify_SkipsSelf(t *testing.T) {
	f := newNotificationFixture()
	f.pusher.sessions[1] = 1

	view, err := f.svc.Notify(context.Background(), Notice{RecipientID: 1, ActorID: 1, Type: domain.NotificationLike})

	require.NoError(t, err)
	assert.Nil(t, view)
	assert.Empty(t, f.store.rows)
	assert.Empty(t, f.pusher.events)
}

func TestNotify_PersistFailureReturned(t *testing.T) {
	f := newNotificationFixture()
	f.pusher.sessions[2] = 1
	f.store.err = domain.ErrStoreUnavailable

	_, err := f.svc.Notify(context.Background(), Notice{RecipientID: 2, ActorID: 1, Type: domain.NotificationLike})

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Empty(t, f.pusher.events)
}

func TestNotify_Validation(t *testing.T) {
	f := newNotificationFixture()
	_, err := f.svc.Notify(context.Background(), Notice{RecipientID: 2, ActorID: 1})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNotifications_UnreadInvariant(t *testing.T) {
	f := newNotificationFixture()
	ctx := context.Background()
	var ids []uint
	for i := 0; i < 5; i++ {
		ids = append(ids, f.notify(t, 2, 1).ID)
	}
	f.notify(t, 3, 1)

	require.NoError(t, f.svc.MarkRead(ctx, 2, ids[0]))
	require.NoError(t, f.svc.MarkRead(ctx, 2, ids[3]))

	page, err := f.svc.List(ctx, 2, 1, 50)
	require.NoError(t, err)
	var unreadRows int64
	for _, n := range page.Notifications {
		if !n.Read {
			unreadRows++
		}
	}
	assert.Equal(t, unreadRows, page.UnreadCount)
	assert.Equal(t, int64(3), page.UnreadCount)
}

func TestNotifications_MarkReadIdempotent(t *testing.T) {
	f := newNotificationFixture()
	f.pusher.sessions[2] = 1
	ctx := context.Background()
	id := f.notify(t, 2, 1).ID

	require.NoError(t, f.svc.MarkRead(ctx, 2, id))
	require.NoError(t, f.svc.MarkRead(ctx, 2, id))

	n, _ := f.svc.UnreadCount(ctx, 2)
	assert.Equal(t, int64(0), n)
	reads := f.pusher.eventsFor(2, domain.EventNotificationsRead)
	require.Len(t, reads, 1, "only the first call changes state")
	assert.Equal(t, map[string]int64{"unreadCount": 0}, reads[0].Data)
}

func TestNotifications_MarkReadNotOwned(t *testing.T) {
	f := newNotificationFixture()
	id := f.notify(t, 2, 1).ID

	assert.ErrorIs(t, f.svc.MarkRead(context.Background(), 3, id), domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.MarkRead(context.Background(), 2, 999), domain.ErrNotFound)
}

func TestNotifications_MarkAllRead(t *testing.T) {
	f := newNotificationFixture()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		f.notify(t, 2, 1)
	}
	f.notify(t, 3, 1)

	n, err := f.svc.MarkAllRead(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = f.svc.MarkAllRead(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	unread, _ := f.svc.UnreadCount(ctx, 2)
	assert.Equal(t, int64(0), unread)
	other, _ := f.svc.UnreadCount(ctx, 3)
	assert.Equal(t, int64(1), other)
}

func TestNotifications_MarkAllReadHonorsClientWatermark(t *testing.T) {
	f := newNotificationFixture()
	ctx := context.Background()
	seen := f.notify(t, 2, 1).ID
	f.notify(t, 2, 3)

	n, err := f.svc.MarkAllRead(ctx, 2, seen)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	unread, _ := f.svc.UnreadCount(ctx, 2)
	assert.Equal(t, int64(1), unread, "the notification the client had not seen stays unread")
}

func TestNotifications_ListPagination(t *testing.T) {
	f := newNotificationFixture()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		f.notify(t, 2, 1)
	}

	page, err := f.svc.List(ctx, 2, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Notifications, 2)
	assert.Greater(t, page.Notifications[0].ID, page.Notifications[1].ID)

	page, err = f.svc.List(ctx, 2, 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, maxNotificationLimit, page.Limit)
}

func TestNotifications_Delete(t *testing.T) {
	f := newNotificationFixture()
	ctx := context.Background()
	id := f.notify(t, 2, 1).ID

	assert.ErrorIs(t, f.svc.Delete(ctx, 3, id), domain.ErrNotFound)
	require.NoError(t, f.svc.Delete(ctx, 2, id))

	n, _ := f.svc.UnreadCount(ctx, 2)
	assert.Equal(t, int64(0), n)
}
