package client

import "time"

// User mirrors the server's account shape on the wire.
type User struct {
	ID         string     `json:"_id"`
	Username   string     `json:"username"`
	ProfilePic string     `json:"profilePic"`
	IsGuest    bool       `json:"isGuest"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Message mirrors the server's message shape on the wire.
type Message struct {
	ID          string     `json:"_id"`
	SenderID    string     `json:"senderId"`
	RecipientID string     `json:"recipientId"`
	Text        string     `json:"text,omitempty"`
	ImageURL    string     `json:"image,omitempty"`
	IsVolatile  bool       `json:"isVolatile"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Event names fixed by the wire contract.
const (
	EventNewMessage    = "newMessage"
	EventDeleteMessage = "deleteMessage"
	EventOnlineUsers   = "getOnlineUsers"
	EventConnected     = "connected"
)
