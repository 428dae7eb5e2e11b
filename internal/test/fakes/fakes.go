// Package fakes provides in-memory fakes for service dependencies so unit
// tests can run without a database or message broker.
package fakes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tidechat/tidechat/internal/adapter/blob"
	"github.com/tidechat/tidechat/internal/domain/event"
	"github.com/tidechat/tidechat/internal/domain/model"
	"github.com/tidechat/tidechat/internal/domain/registry"
	"github.com/tidechat/tidechat/internal/service"
)

// Interface guards
var (
	_ service.UserStore      = (*UserStore)(nil)
	_ service.MessageStore   = (*MessageStore)(nil)
	_ service.EventPublisher = (*Publisher)(nil)
	_ registry.Connector     = (*Connector)(nil)
	_ blob.Uploader          = (*Uploader)(nil)
)

// Uploader is a blob.Uploader that returns a canned URL.
type Uploader struct {
	mu       sync.Mutex
	URL      string
	FailWith error
	Uploads  []string
}

func NewUploader(url string) *Uploader { return &Uploader{URL: url} }

func (u *Uploader) Upload(_ context.Context, imageData string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.FailWith != nil {
		return "", u.FailWith
	}
	u.Uploads = append(u.Uploads, imageData)
	return u.URL, nil
}

// UserStore is a map-backed service.UserStore.
type UserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[uuid.UUID]*model.User)}
}

func (s *UserStore) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return service.ErrUserExists
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *UserStore) ByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *UserStore) ByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, service.ErrNotFound
}

func (s *UserStore) AllExcept(_ context.Context, exclude uuid.UUID) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.User
	for _, u := range s.users {
		if u.ID == exclude {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *UserStore) UpdateProfilePic(_ context.Context, id uuid.UUID, url string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	u.ProfilePic = url
	cp := *u
	return &cp, nil
}

// Overwrite replaces the stored record unconditionally. Test helper for
// mutating account state the public interface does not expose.
func (s *UserStore) Overwrite(user *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	s.users[user.ID] = &cp
}

func (s *UserStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, u := range s.users {
		if u.Expired(now) {
			delete(s.users, id)
			n++
		}
	}
	return n, nil
}

// MessageStore is a map-backed service.MessageStore. Insertion order stands
// in for the created_at ordering of the real store.
type MessageStore struct {
	mu       sync.Mutex
	messages map[uuid.UUID]*model.Message
	order    map[uuid.UUID]int
	seq      int
}

func NewMessageStore() *MessageStore {
	return &MessageStore{
		messages: make(map[uuid.UUID]*model.Message),
		order:    make(map[uuid.UUID]int),
	}
}

func (s *MessageStore) Create(_ context.Context, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *msg
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	s.messages[msg.ID] = &cp
	s.seq++
	s.order[msg.ID] = s.seq
	return nil
}

func (s *MessageStore) ByID(_ context.Context, id uuid.UUID) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return nil, service.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *MessageStore) Between(_ context.Context, a, b uuid.UUID) ([]*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Message
	for _, m := range s.messages {
		if (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.order[out[i].ID] < s.order[out[j].ID] })
	return out, nil
}

func (s *MessageStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[id]; !ok {
		return service.ErrNotFound
	}
	delete(s.messages, id)
	return nil
}

func (s *MessageStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, m := range s.messages {
		if m.ExpiresAt != nil && !m.ExpiresAt.After(now) {
			delete(s.messages, id)
			n++
		}
	}
	return n, nil
}

// Publisher records published mutations instead of handing them to a broker.
type Publisher struct {
	mu       sync.Mutex
	Created  []*model.Message
	Deleted  []uuid.UUID
	FailWith error
}

func NewPublisher() *Publisher { return &Publisher{} }

func (p *Publisher) MessageCreated(_ context.Context, msg *model.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailWith != nil {
		return p.FailWith
	}
	cp := *msg
	p.Created = append(p.Created, &cp)
	return nil
}

func (p *Publisher) MessageDeleted(_ context.Context, messageID, _ uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailWith != nil {
		return p.FailWith
	}
	p.Deleted = append(p.Deleted, messageID)
	return nil
}

// CreatedCount is safe to call while the service is publishing concurrently.
func (p *Publisher) CreatedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Created)
}

// Connector is a controllable registry.Connector for hub and router tests.
type Connector struct {
	ID     uuid.UUID
	UserID uuid.UUID

	mu      sync.Mutex
	sent    []event.Eventer
	refuse  bool
	dropped uint64

	done      chan struct{}
	closeOnce sync.Once
}

func NewConnector(userID uuid.UUID) *Connector {
	return &Connector{
		ID:     uuid.New(),
		UserID: userID,
		done:   make(chan struct{}),
	}
}

func (c *Connector) GetID() uuid.UUID     { return c.ID }
func (c *Connector) GetUserID() uuid.UUID { return c.UserID }

func (c *Connector) Send(ev event.Eventer, _ time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refuse {
		c.dropped++
		return false
	}
	c.sent = append(c.sent, ev)
	return true
}

func (c *Connector) Recv() <-chan event.Eventer { return nil }
func (c *Connector) Done() <-chan struct{}      { return c.done }

func (c *Connector) Dropped() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

func (c *Connector) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Refuse makes every subsequent Send fail, simulating a saturated mailbox.
func (c *Connector) Refuse() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refuse = true
}

// Sent snapshots the events accepted so far.
func (c *Connector) Sent() []event.Eventer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]event.Eventer(nil), c.sent...)
}
