package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tidechat/tidechat/internal/domain/model"
	"github.com/tidechat/tidechat/internal/service"
	"gorm.io/gorm"
)

// Interface guard
var _ service.MessageStore = (*MessageRepository)(nil)

// MessageRepository provides access to message storage.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

func (r *MessageRepository) ByID(ctx context.Context, id uuid.UUID) (*model.Message, error) {
	var msg model.Message
	if err := r.db.WithContext(ctx).First(&msg, "id = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, fmt.Errorf("find message: %w", err)
	}
	return &msg, nil
}

// Between returns the two-way conversation in chronological order.
func (r *MessageRepository) Between(ctx context.Context, a, b uuid.UUID) ([]*model.Message, error) {
	var msgs []*model.Message
	if err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			a.String(), b.String(), b.String(), a.String()).
		Order("created_at asc").
		Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}
	return msgs, nil
}

func (r *MessageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Message{}, "id = ?", id.String())
	if err := result.Error; err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if result.RowsAffected == 0 {
		return service.ErrNotFound
	}
	return nil
}

// DeleteExpired reclaims volatile messages past their lifetime. No push
// event accompanies expiry; live viewers see the removal on the next fetch.
func (r *MessageRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Delete(&model.Message{})
	if err := result.Error; err != nil {
		return 0, fmt.Errorf("delete expired messages: %w", err)
	}
	return result.RowsAffected, nil
}
