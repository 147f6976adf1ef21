package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"infinity/internal/domain"
	"infinity/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	maxMessageLength    = 5000
	defaultMessageLimit = 50
	maxMessageLimit     = 100
)

type conversationStore interface {
	FindDirect(ctx context.Context, a, b uint) (uint, error)
	CreateDirect(ctx context.Context, a, b uint) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Conversation, error)
	Participants(ctx context.Context, conversationIDs []uint) ([]models.ConversationParticipant, error)
	LastMessages(ctx context.Context, conversationIDs []uint) (map[uint]models.Message, error)
	UnreadCounts(ctx context.Context, viewerID uint, conversationIDs []uint) (map[uint]int64, error)
	IsParticipant(ctx context.Context, conversationID, userID uint) (bool, error)
	ParticipantIDs(ctx context.Context, conversationID uint) ([]uint, error)
	CreateMessage(ctx context.Context, m *models.Message) error
	ListMessages(ctx context.Context, conversationID uint, limit int, beforeID uint) ([]models.Message, error)
	MarkMessagesRead(ctx context.Context, conversationID, viewerID uint, at time.Time) (int64, error)
}

type friendLister interface {
	FriendIDs(ctx context.Context, userID uint) ([]uint, error)
}

type blockChecker interface {
	IsBlockedEither(ctx context.Context, a, b uint) (bool, error)
}

// MessageView is a message as pushed and fetched.
type MessageView struct {
	ID             uint               `json:"id"`
	ConversationID uint               `json:"conversationId"`
	Sender         models.UserSummary `json:"sender"`
	Content        string             `json:"content"`
	CreatedAt      time.Time          `json:"createdAt"`
	ReadAt         *time.Time         `json:"readAt"`
}

type ConversationService struct {
	store   conversationStore
	friends friendLister
	blocks  blockChecker
	users   userDirectory
	pusher  Pusher
	now     func() time.Time
}

func NewConversationService(store conversationStore, friends friendLister, blocks blockChecker, users userDirectory, pusher Pusher) *ConversationService {
	return &ConversationService{store: store, friends: friends, blocks: blocks, users: users, pusher: pusher, now: time.Now}
}

type listedConversation struct {
	view      models.ConversationView
	id        uint
	createdAt time.Time
	sortName  string
}

// ListConversations summarizes every conversation of userID and appends accepted friends
// without one under an empty id. Order: newest message first, then conversations with no
// messages by creation, then friends by username.
func (s *ConversationService) ListConversations(ctx context.Context, userID uint) ([]models.ConversationView, error) {
	var (
		convs   []models.Conversation
		friends []uint
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		convs, err = s.store.ListForUser(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		friends, err = s.friends.FriendIDs(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(convs))
	for _, c := range convs {
		ids = append(ids, c.ID)
	}

	var (
		parts  []models.ConversationParticipant
		last   map[uint]models.Message
		unread map[uint]int64
	)
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		parts, err = s.store.Participants(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		last, err = s.store.LastMessages(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		unread, err = s.store.UnreadCounts(gctx, userID, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	others := make(map[uint][]uint, len(convs))
	talkedTo := make(map[uint]struct{})
	userIDs := make([]uint, 0, len(parts)+len(friends))
	for _, p := range parts {
		if p.UserID == userID {
			continue
		}
		others[p.ConversationID] = append(others[p.ConversationID], p.UserID)
		talkedTo[p.UserID] = struct{}{}
		userIDs = append(userIDs, p.UserID)
	}
	var lonely []uint
	for _, f := range friends {
		if _, ok := talkedTo[f]; !ok {
			lonely = append(lonely, f)
			userIDs = append(userIDs, f)
		}
	}

	sums, err := s.users.Summaries(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	items := make([]listedConversation, 0, len(convs)+len(lonely))
	for _, c := range convs {
		v := models.ConversationView{
			ID:           strconv.FormatUint(uint64(c.ID), 10),
			Participants: []models.UserSummary{},
			UnreadCount:  unread[c.ID],
		}
		pids := others[c.ID]
		sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })
		for _, pid := range pids {
			if sum, ok := sums[pid]; ok {
				v.Participants = append(v.Participants, sum)
			}
		}
		if m, ok := last[c.ID]; ok {
			at := m.CreatedAt
			v.LastMessage = &models.LastMessage{Content: m.Content, CreatedAt: m.CreatedAt}
			v.LastMessageAt = &at
		}
		items = append(items, listedConversation{view: v, id: c.ID, createdAt: c.CreatedAt})
	}
	for _, f := range lonely {
		sum, ok := sums[f]
		if !ok {
			continue
		}
		items = append(items, listedConversation{
			view: models.ConversationView{
				ID:           "",
				Participants: []models.UserSummary{sum},
			},
			id:       f,
			sortName: strings.ToLower(sum.Username),
		})
	}

	sort.SliceStable(items, func(i, j int) bool { return conversationLess(items[i], items[j]) })

	out := make([]models.ConversationView, 0, len(items))
	for _, it := range items {
		out = append(out, it.view)
	}
	return out, nil
}

func conversationRank(it listedConversation) int {
	switch {
	case it.view.ID == "":
		return 2
	case it.view.LastMessageAt == nil:
		return 1
	default:
		return 0
	}
}

func conversationLess(a, b listedConversation) bool {
	ra, rb := conversationRank(a), conversationRank(b)
	if ra != rb {
		return ra < rb
	}
	switch ra {
	case 0:
		if !a.view.LastMessageAt.Equal(*b.view.LastMessageAt) {
			return a.view.LastMessageAt.After(*b.view.LastMessageAt)
		}
	case 1:
		if !a.createdAt.Equal(b.createdAt) {
			return a.createdAt.After(b.createdAt)
		}
	case 2:
		if a.sortName != b.sortName {
			return a.sortName < b.sortName
		}
	}
	return a.id < b.id
}

// GetOrCreate returns the two-party conversation of a and b, creating it on first use.
func (s *ConversationService) GetOrCreate(ctx context.Context, a, b uint) (uint, error) {
	if a == 0 || b == 0 || a == b {
		return 0, fmt.Errorf("%w: a conversation needs two different users", domain.ErrValidation)
	}
	id, err := s.store.FindDirect(ctx, a, b)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return 0, err
	}
	conv, err := s.store.CreateDirect(ctx, a, b)
	if errors.Is(err, domain.ErrConflict) {
		// Lost the race to a concurrent opener; theirs is the conversation.
		return s.store.FindDirect(ctx, a, b)
	}
	if err != nil {
		return 0, err
	}
	return conv.ID, nil
}

// Start opens (or reuses) a conversation between userID and otherID.
func (s *ConversationService) Start(ctx context.Context, userID, otherID uint) (uint, error) {
	if otherID == userID {
		return 0, fmt.Errorf("%w: cannot message yourself", domain.ErrValidation)
	}
	if _, err := s.users.GetByID(ctx, otherID); err != nil {
		return 0, err
	}
	blocked, err := s.blocks.IsBlockedEither(ctx, userID, otherID)
	if err != nil {
		return 0, err
	}
	if blocked {
		return 0, fmt.Errorf("%w: user unavailable", domain.ErrForbidden)
	}
	return s.GetOrCreate(ctx, userID, otherID)
}

func (s *ConversationService) IsParticipant(ctx context.Context, userID, conversationID uint) (bool, error) {
	return s.store.IsParticipant(ctx, conversationID, userID)
}

func (s *ConversationService) requireParticipant(ctx context.Context, userID, conversationID uint) error {
	ok, err := s.store.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

// SendMessage stores a message and pushes it to every session of every participant.
func (s *ConversationService) SendMessage(ctx context.Context, senderID, conversationID uint, content string) (*MessageView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: message is empty", domain.ErrValidation)
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return nil, fmt.Errorf("%w: message is too long", domain.ErrValidation)
	}
	if err := s.requireParticipant(ctx, senderID, conversationID); err != nil {
		return nil, err
	}
	participants, err := s.store.ParticipantIDs(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	for _, p := range participants {
		if p == senderID {
			continue
		}
		blocked, err := s.blocks.IsBlockedEither(ctx, senderID, p)
		if err != nil {
			return nil, err
		}
		if blocked {
			return nil, fmt.Errorf("%w: user unavailable", domain.ErrForbidden)
		}
	}

	m := &models.Message{ConversationID: conversationID, SenderID: senderID, Content: content}
	if err := s.store.CreateMessage(ctx, m); err != nil {
		return nil, err
	}

	sender := models.UserSummary{ID: senderID}
	if sums, err := s.users.Summaries(ctx, []uint{senderID}); err != nil {
		log.Warn().Err(err).Uint("user_id", senderID).Msg("conversation: load sender")
	} else if sum, ok := sums[senderID]; ok {
		sender = sum
	}
	view := &MessageView{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         sender,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
	if s.pusher != nil {
		for _, p := range participants {
			s.pusher.PushToUser(p, domain.EventNewMessage, view)
		}
	}
	return view, nil
}

// ListMessages pages backwards from beforeID (0 = newest). Messages come oldest first.
func (s *ConversationService) ListMessages(ctx context.Context, userID, conversationID uint, limit int, beforeID uint) ([]MessageView, error) {
	if err := s.requireParticipant(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = defaultMessageLimit
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}
	msgs, err := s.store.ListMessages(ctx, conversationID, limit, beforeID)
	if err != nil {
		return nil, err
	}
	senders := make([]uint, 0, 2)
	seen := map[uint]struct{}{}
	for _, m := range msgs {
		if _, ok := seen[m.SenderID]; !ok {
			seen[m.SenderID] = struct{}{}
			senders = append(senders, m.SenderID)
		}
	}
	sums, err := s.users.Summaries(ctx, senders)
	if err != nil {
		return nil, err
	}
	out := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		sender, ok := sums[m.SenderID]
		if !ok {
			sender = models.UserSummary{ID: m.SenderID}
		}
		out = append(out, MessageView{
			ID:             m.ID,
			ConversationID: m.ConversationID,
			Sender:         sender,
			Content:        m.Content,
			CreatedAt:      m.CreatedAt,
			ReadAt:         m.ReadAt,
		})
	}
	return out, nil
}

// MarkRead stamps every message addressed to userID in the conversation. Repeating it is a no-op.
func (s *ConversationService) MarkRead(ctx context.Context, userID, conversationID uint) (int64, error) {
	if err := s.requireParticipant(ctx, userID, conversationID); err != nil {
		return 0, err
	}
	return s.store.MarkMessagesRead(ctx, conversationID, userID, s.now().UTC())
}
