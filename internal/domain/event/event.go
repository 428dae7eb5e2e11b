package event

import "github.com/google/uuid"

type Kind int16

const (
	Connected     Kind = iota + 1 // [SYSTEM]
	MessageCreated                // [BUSINESS]
	MessageDeleted                // [BUSINESS]
	OnlineUsers                   // [SYSTEM] broadcast to every live connection
)

type Priority int32

const (
	PriorityLow    Priority = 10
	PriorityNormal Priority = 20
	PriorityHigh   Priority = 30
)

// Eventer defines the contract for all data packets flowing through the Hub.
type Eventer interface {
	GetID() string
	GetKind() Kind
	GetUserID() uuid.UUID
	GetPriority() Priority
	GetOccurredAt() int64
	GetPayload() any
}
