package event

import (
	"github.com/google/uuid"
	"github.com/tidechat/tidechat/internal/domain/model"
)

var (
	_ Eventer = (*MessageCreatedEvent)(nil)
	_ Eventer = (*MessageDeletedEvent)(nil)
)

// MessageCreatedEvent carries a freshly persisted message to the recipient's
// live connection.
//
// [STRATEGY]
// It distinguishes between:
//   - [BUSINESS_PEERS] (message.SenderID/RecipientID): the logical participants.
//   - [ROUTING_TARGET] (UserID): the physical recipient of this event instance.
type MessageCreatedEvent struct {
	ID      uuid.UUID      `json:"id"`
	Message *model.Message `json:"message"`
	UserID  uuid.UUID      `json:"user_id"`
}

// NewMessageCreatedEvent binds a persisted message to its routing target.
func NewMessageCreatedEvent(msg *model.Message, userID uuid.UUID) *MessageCreatedEvent {
	return &MessageCreatedEvent{
		ID:      uuid.New(),
		Message: msg,
		UserID:  userID,
	}
}

func (e *MessageCreatedEvent) GetID() string          { return e.ID.String() }
func (e *MessageCreatedEvent) GetPayload() any        { return e.Message }
func (e *MessageCreatedEvent) GetUserID() uuid.UUID   { return e.UserID }
func (e *MessageCreatedEvent) GetOccurredAt() int64   { return e.Message.CreatedAt.UnixMilli() }
func (e *MessageCreatedEvent) GetKind() Kind          { return MessageCreated }
func (e *MessageCreatedEvent) GetPriority() Priority  { return PriorityHigh }

// MessageDeletedEvent tells the recipient to drop a message from view.
// The payload is the bare message id.
type MessageDeletedEvent struct {
	ID         uuid.UUID `json:"id"`
	MessageID  uuid.UUID `json:"message_id"`
	UserID     uuid.UUID `json:"user_id"`
	OccurredAt int64     `json:"occurred_at"`
}

func NewMessageDeletedEvent(messageID, userID uuid.UUID, occurredAt int64) *MessageDeletedEvent {
	return &MessageDeletedEvent{
		ID:         uuid.New(),
		MessageID:  messageID,
		UserID:     userID,
		OccurredAt: occurredAt,
	}
}

func (e *MessageDeletedEvent) GetID() string         { return e.ID.String() }
func (e *MessageDeletedEvent) GetPayload() any       { return e.MessageID.String() }
func (e *MessageDeletedEvent) GetUserID() uuid.UUID  { return e.UserID }
func (e *MessageDeletedEvent) GetOccurredAt() int64  { return e.OccurredAt }
func (e *MessageDeletedEvent) GetKind() Kind         { return MessageDeleted }
func (e *MessageDeletedEvent) GetPriority() Priority { return PriorityHigh }
