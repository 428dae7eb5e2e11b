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
var _ service.UserStore = (*UserRepository)(nil)

// UserRepository provides access to account storage.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return service.ErrUserExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) ByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) ByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, fmt.Errorf("find user by name: %w", err)
	}
	return &user, nil
}

// AllExcept lists every account except the excluded one, for the contact
// sidebar.
func (r *UserRepository) AllExcept(ctx context.Context, exclude uuid.UUID) ([]*model.User, error) {
	var users []*model.User
	if err := r.db.WithContext(ctx).
		Where("id <> ?", exclude.String()).
		Order("username asc").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) UpdateProfilePic(ctx context.Context, id uuid.UUID, url string) (*model.User, error) {
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id.String()).
		Update("profile_pic", url)
	if err := result.Error; err != nil {
		return nil, fmt.Errorf("update profile pic: %w", err)
	}
	if result.RowsAffected == 0 {
		return nil, service.ErrNotFound
	}
	return r.ByID(ctx, id)
}

// DeleteExpired reclaims guest accounts past their lifetime.
func (r *UserRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Delete(&model.User{})
	if err := result.Error; err != nil {
		return 0, fmt.Errorf("delete expired users: %w", err)
	}
	return result.RowsAffected, nil
}
