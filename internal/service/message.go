package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tidechat/tidechat/internal/adapter/blob"
	"github.com/tidechat/tidechat/internal/domain/model"
	"golang.org/x/sync/errgroup"
)

const (
	// VolatileMessageTTL is the fixed lifetime of a message involving a
	// guest account.
	VolatileMessageTTL = 90 * time.Minute
)

var (
	// ErrEmptyMessage is returned when a send carries neither text nor image.
	ErrEmptyMessage = errors.New("message must contain text or an image")
	// ErrNotSender is returned when someone other than the sender attempts
	// a delete.
	ErrNotSender = errors.New("only the sender may delete a message")
)

// Messenger is the high-level contract for conversation CRUD.
type Messenger interface {
	Contacts(ctx context.Context, selfID uuid.UUID) ([]*model.User, error)
	History(ctx context.Context, selfID, otherID uuid.UUID) ([]*model.Message, error)
	Send(ctx context.Context, senderID, recipientID uuid.UUID, text, imageData string) (*model.Message, error)
	Delete(ctx context.Context, actorID, messageID uuid.UUID) error
}

// MessageService owns the send/delete control path: blob upload, guest
// checks, persistence write, then hand-off to the delivery pipeline.
type MessageService struct {
	users    UserStore
	messages MessageStore
	blobs    blob.Uploader
	bus      EventPublisher
	logger   *slog.Logger

	// [HOT_PATH] Guest-flag lookups run on every send; cache "hot"
	// identities to keep the send path off the database.
	cache *lru.Cache[string, *model.User]
}

func NewMessageService(users UserStore, messages MessageStore, blobs blob.Uploader, bus EventPublisher, logger *slog.Logger) *MessageService {
	cache, _ := lru.New[string, *model.User](4096)
	return &MessageService{
		users:    users,
		messages: messages,
		blobs:    blobs,
		bus:      bus,
		logger:   logger,
		cache:    cache,
	}
}

// Contacts lists every account except the caller's own, passwords stripped
// by the model's marshalling contract.
func (s *MessageService) Contacts(ctx context.Context, selfID uuid.UUID) ([]*model.User, error) {
	return s.users.AllExcept(ctx, selfID)
}

// History returns the full two-way conversation in chronological order.
func (s *MessageService) History(ctx context.Context, selfID, otherID uuid.UUID) ([]*model.Message, error) {
	return s.messages.Between(ctx, selfID, otherID)
}

// Send persists a new message and hands it to the delivery pipeline.
// The message is volatile when either party is a guest; volatile messages
// expire VolatileMessageTTL after creation.
func (s *MessageService) Send(ctx context.Context, senderID, recipientID uuid.UUID, text, imageData string) (*model.Message, error) {
	msg := &model.Message{
		ID:          uuid.New(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Text:        text,
	}

	if imageData != "" {
		url, err := s.blobs.Upload(ctx, imageData)
		if err != nil {
			return nil, fmt.Errorf("image upload: %w", err)
		}
		msg.ImageURL = url
	}

	if msg.Empty() {
		return nil, ErrEmptyMessage
	}

	volatile, err := s.anyGuest(ctx, senderID, recipientID)
	if err != nil {
		return nil, err
	}
	if volatile {
		msg.IsVolatile = true
		expires := time.Now().Add(VolatileMessageTTL)
		msg.ExpiresAt = &expires
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}

	// The sender's success response is sealed by the persistence write;
	// delivery beyond this point is best-effort.
	if err := s.bus.MessageCreated(ctx, msg); err != nil {
		s.logger.Warn("message.created publish failed", "msg_id", msg.ID, "err", err)
	}

	return msg, nil
}

// Delete removes a message. Only the sender may delete; the recipient is
// notified through the delivery pipeline.
func (s *MessageService) Delete(ctx context.Context, actorID, messageID uuid.UUID) error {
	msg, err := s.messages.ByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != actorID {
		return ErrNotSender
	}

	if err := s.messages.Delete(ctx, messageID); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}

	if err := s.bus.MessageDeleted(ctx, messageID, msg.RecipientID); err != nil {
		s.logger.Warn("message.deleted publish failed", "msg_id", messageID, "err", err)
	}

	return nil
}

// anyGuest resolves both parties concurrently and reports whether either is
// a guest account.
func (s *MessageService) anyGuest(ctx context.Context, senderID, recipientID uuid.UUID) (bool, error) {
	var sender, recipient *model.User
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		sender, err = s.userByID(gCtx, senderID)
		return err
	})
	g.Go(func() error {
		var err error
		recipient, err = s.userByID(gCtx, recipientID)
		return err
	})

	if err := g.Wait(); err != nil {
		return false, fmt.Errorf("resolve participants: %w", err)
	}

	return sender.IsGuest || recipient.IsGuest, nil
}

func (s *MessageService) userByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	key := id.String()
	if cached, ok := s.cache.Get(key); ok {
		// A cached guest is only valid until its lifetime runs out; past
		// that the store is authoritative, because the janitor may already
		// have reclaimed the account.
		if !cached.Expired(time.Now()) {
			return cached, nil
		}
		s.cache.Remove(key)
	}

	user, err := s.users.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.Add(key, user)
	return user, nil
}
