package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tidechat/tidechat/internal/domain/model"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrUserExists is returned when a username is already taken.
	ErrUserExists = errors.New("username already exists")
)

// UserStore is the durable record storage for accounts.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	ByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	ByUsername(ctx context.Context, username string) (*model.User, error)
	AllExcept(ctx context.Context, exclude uuid.UUID) ([]*model.User, error)
	UpdateProfilePic(ctx context.Context, id uuid.UUID, url string) (*model.User, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// MessageStore is the durable record storage for messages.
type MessageStore interface {
	Create(ctx context.Context, msg *model.Message) error
	ByID(ctx context.Context, id uuid.UUID) (*model.Message, error)
	Between(ctx context.Context, a, b uuid.UUID) ([]*model.Message, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// EventPublisher hands persisted mutations to the delivery pipeline.
type EventPublisher interface {
	MessageCreated(ctx context.Context, msg *model.Message) error
	MessageDeleted(ctx context.Context, messageID, recipientID uuid.UUID) error
}
