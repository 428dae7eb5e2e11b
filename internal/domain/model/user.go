package model

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. Guest accounts are time-limited: they carry
// an ExpiresAt and are reclaimed by the storage janitor.
type User struct {
	ID         uuid.UUID  `json:"_id" gorm:"type:text;primaryKey"`
	Username   string     `json:"username" gorm:"uniqueIndex;not null"`
	Password   string     `json:"-" gorm:"not null"`
	ProfilePic string     `json:"profilePic"`
	IsGuest    bool       `json:"isGuest"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty" gorm:"index"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Expired reports whether a guest account has passed its lifetime.
func (u *User) Expired(now time.Time) bool {
	return u.ExpiresAt != nil && u.ExpiresAt.Before(now)
}
