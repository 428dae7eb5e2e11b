package model

import (
	"time"

	"github.com/google/uuid"
)

// [MESSAGE] CORE ENTITY REPRESENTING A CONVERSATION ELEMENT
//
// A message is volatile when either party is a guest account. Volatile
// messages carry an ExpiresAt and are removed by the storage janitor;
// no push event is emitted on expiry (the recipient sees the removal on
// the next full fetch).
type Message struct {
	ID          uuid.UUID  `json:"_id" gorm:"type:text;primaryKey"`
	SenderID    uuid.UUID  `json:"senderId" gorm:"type:text;index;not null"`
	RecipientID uuid.UUID  `json:"recipientId" gorm:"type:text;index;not null"`
	Text        string     `json:"text,omitempty"`
	ImageURL    string     `json:"image,omitempty"`
	IsVolatile  bool       `json:"isVolatile"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty" gorm:"index"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Empty reports whether the message carries neither text nor media.
func (m *Message) Empty() bool {
	return m.Text == "" && m.ImageURL == ""
}
