package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"infinity/internal/domain"
	"infinity/internal/models"
)

type pushed struct {
	UserID uint
	Event  string
	Data   any
}

// fakePusher records pushes. sessions maps a user to its number of open sessions.
type fakePusher struct {
	mu       sync.Mutex
	sessions map[uint]int
	events   []pushed
}

func newFakePusher() *fakePusher {
	return &fakePusher{sessions: map[uint]int{}}
}

func (p *fakePusher) PushToUser(userID uint, event string, data any) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.sessions[userID]
	if n > 0 {
		p.events = append(p.events, pushed{UserID: userID, Event: event, Data: data})
	}
	return n
}

func (p *fakePusher) eventsFor(userID uint, event string) []pushed {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []pushed
	for _, e := range p.events {
		if e.UserID == userID && e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

type fakeDevice struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (d *fakeDevice) SendToUser(_ context.Context, token, notifType, _, _ string, _ map[string]interface{}) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, token+":"+notifType)
	return nil
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[uint]*models.User
}

func newFakeUsers(users ...models.User) *fakeUsers {
	f := &fakeUsers{users: map[uint]*models.User{}}
	for i := range users {
		u := users[i]
		f.users[u.ID] = &u
	}
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) Summaries(_ context.Context, ids []uint) (map[uint]models.UserSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[uint]models.UserSummary{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out[id] = u.Summary()
		}
	}
	return out, nil
}

type fakeNotificationStore struct {
	mu     sync.Mutex
	nextID uint
	rows   []*models.Notification
	err    error
}

func (f *fakeNotificationStore) Create(_ context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.nextID++
	n.ID = f.nextID
	n.CreatedAt = time.Now()
	cp := *n
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeNotificationStore) ListByRecipient(_ context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for _, n := range f.rows {
		if n.RecipientID == userID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeNotificationStore) CountByRecipient(_ context.Context, userID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var c int64
	for _, n := range f.rows {
		if n.RecipientID == userID {
			c++
		}
	}
	return c, nil
}

func (f *fakeNotificationStore) CountUnread(_ context.Context, userID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var c int64
	for _, n := range f.rows {
		if n.RecipientID == userID && !n.IsRead {
			c++
		}
	}
	return c, nil
}

func (f *fakeNotificationStore) MarkRead(_ context.Context, id, userID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.rows {
		if n.ID == id && n.RecipientID == userID {
			changed := !n.IsRead
			n.IsRead = true
			return changed, nil
		}
	}
	return false, domain.ErrNotFound
}

func (f *fakeNotificationStore) MaxID(_ context.Context, userID uint) (uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var max uint
	for _, n := range f.rows {
		if n.RecipientID == userID && n.ID > max {
			max = n.ID
		}
	}
	return max, nil
}

func (f *fakeNotificationStore) MarkAllReadUpTo(_ context.Context, userID, upTo uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var c int64
	for _, n := range f.rows {
		if n.RecipientID == userID && !n.IsRead && n.ID <= upTo {
			n.IsRead = true
			c++
		}
	}
	return c, nil
}

func (f *fakeNotificationStore) Delete(_ context.Context, id, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.rows {
		if n.ID == id && n.RecipientID == userID {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}
