package service

import (
	"context"
	"fmt"
	"strings"

	"infinity/internal/domain"
	"infinity/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 50
)

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByRecipient(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error)
	CountByRecipient(ctx context.Context, userID uint) (int64, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, id, userID uint) (bool, error)
	MaxID(ctx context.Context, userID uint) (uint, error)
	MarkAllReadUpTo(ctx context.Context, userID, upTo uint) (int64, error)
	Delete(ctx context.Context, id, userID uint) error
}

type userDirectory interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	Summaries(ctx context.Context, ids []uint) (map[uint]models.UserSummary, error)
}

// Pusher delivers live events to the open sessions of a user and reports how many took it.
type Pusher interface {
	PushToUser(userID uint, event string, data any) int
}

// DevicePusher delivers a push to a mobile device token.
type DevicePusher interface {
	SendToUser(ctx context.Context, fcmToken, notifType, title, body string, data map[string]interface{}) error
}

// Notice is one notification to deliver.
type Notice struct {
	RecipientID uint
	Type        string
	ActorID     uint
	Message     string
	PostID      *uint
}

type NotificationPage struct {
	Notifications []models.NotificationView `json:"notifications"`
	UnreadCount   int64                     `json:"unreadCount"`
	Page          int                       `json:"page"`
	Limit         int                       `json:"limit"`
	Total         int64                     `json:"total"`
	TotalPages    int                       `json:"totalPages"`
}

type NotificationService struct {
	repo   notificationStore
	users  userDirectory
	pusher Pusher
	device DevicePusher
}

func NewNotificationService(repo notificationStore, users userDirectory, pusher Pusher, device DevicePusher) *NotificationService {
	return &NotificationService{repo: repo, users: users, pusher: pusher, device: device}
}

// Notify persists n and pushes it to the recipient's live sessions, falling back to a device
// push when none are open. Only the persist step can fail the call. A notice from a user to
// themself is skipped and returns nil.
func (s *NotificationService) Notify(ctx context.Context, n Notice) (*models.NotificationView, error) {
	if n.RecipientID == 0 || n.ActorID == 0 || strings.TrimSpace(n.Type) == "" {
		return nil, fmt.Errorf("%w: recipient, actor and type are required", domain.ErrValidation)
	}
	if n.RecipientID == n.ActorID {
		return nil, nil
	}

	row := &models.Notification{
		RecipientID: n.RecipientID,
		ActorID:     n.ActorID,
		Type:        n.Type,
		Message:     n.Message,
		PostID:      n.PostID,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}

	actor := models.UserSummary{ID: n.ActorID}
	if sums, err := s.users.Summaries(ctx, []uint{n.ActorID}); err != nil {
		log.Warn().Err(err).Uint("actor_id", n.ActorID).Msg("notification: load actor")
	} else if sum, ok := sums[n.ActorID]; ok {
		actor = sum
	}
	view := row.View(actor)

	delivered := 0
	if s.pusher != nil {
		delivered = s.pusher.PushToUser(n.RecipientID, domain.EventNotification, view)
	}
	if delivered == 0 {
		s.pushDevice(ctx, view, n.RecipientID)
	}
	return &view, nil
}

func (s *NotificationService) pushDevice(ctx context.Context, view models.NotificationView, recipientID uint) {
	if s.device == nil {
		return
	}
	u, err := s.users.GetByID(ctx, recipientID)
	if err != nil || u.FCMToken == "" {
		return
	}
	from := view.From.DisplayName
	if from == "" {
		from = view.From.Username
	}
	data := map[string]interface{}{"notification_id": view.ID, "from_user_id": view.From.ID}
	if view.PostID != nil {
		data["post_id"] = *view.PostID
	}
	if err := s.device.SendToUser(ctx, u.FCMToken, view.Type, from, view.Message, data); err != nil {
		log.Warn().Err(err).Uint("user_id", recipientID).Uint("notification_id", view.ID).Msg("notification: device push failed")
	}
}

// List returns one page of userID's notifications, newest first, with unread and total counts.
func (s *NotificationService) List(ctx context.Context, userID uint, page, limit int) (*NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}

	var (
		rows   []models.Notification
		total  int64
		unread int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		rows, err = s.repo.ListByRecipient(gctx, userID, limit, (page-1)*limit)
		return err
	})
	g.Go(func() (err error) {
		total, err = s.repo.CountByRecipient(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		unread, err = s.repo.CountUnread(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	views := make([]models.NotificationView, 0, len(rows))
	for i := range rows {
		actor := rows[i].Actor.Summary()
		if actor.ID == 0 {
			actor.ID = rows[i].ActorID
		}
		views = append(views, rows[i].View(actor))
	}
	return &NotificationPage{
		Notifications: views,
		UnreadCount:   unread,
		Page:          page,
		Limit:         limit,
		Total:         total,
		TotalPages:    int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

// MarkRead is idempotent. It fails with ErrNotFound when id is not userID's.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	changed, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if changed {
		s.publishUnread(ctx, userID)
	}
	return nil
}

// MarkAllRead marks every notification that existed when the sweep started. Rows inserted
// afterwards stay unread. A non-zero upTo narrows the sweep to ids <= upTo.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID, upTo uint) (int64, error) {
	watermark, err := s.repo.MaxID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if upTo > 0 && upTo < watermark {
		watermark = upTo
	}
	if watermark == 0 {
		return 0, nil
	}
	n, err := s.repo.MarkAllReadUpTo(ctx, userID, watermark)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.publishUnread(ctx, userID)
	}
	return n, nil
}

func (s *NotificationService) Delete(ctx context.Context, userID, id uint) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}
	s.publishUnread(ctx, userID)
	return nil
}

// publishUnread tells every session of userID the current unread count so devices converge.
func (s *NotificationService) publishUnread(ctx context.Context, userID uint) {
	if s.pusher == nil {
		return
	}
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Uint("user_id", userID).Msg("notification: count unread for push")
		return
	}
	s.pusher.PushToUser(userID, domain.EventNotificationsRead, map[string]int64{"unreadCount": n})
}
