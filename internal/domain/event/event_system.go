package event

import (
	"time"

	"github.com/google/uuid"
)

// [GUARD] Ensure compliance with the Eventer interface.
var _ Eventer = (*SystemEvent)(nil)

// SystemEvent is a generic envelope for internal signals and domain
// notifications, such as the online-set broadcast.
type SystemEvent struct {
	id         string
	userID     uuid.UUID
	kind       Kind
	priority   Priority
	occurredAt int64
	payload    any
}

func (e *SystemEvent) GetID() string        { return e.id }
func (e *SystemEvent) GetKind() Kind        { return e.kind }
func (e *SystemEvent) GetUserID() uuid.UUID { return e.userID }
func (e *SystemEvent) GetPriority() Priority {
	return e.priority
}
func (e *SystemEvent) GetOccurredAt() int64 { return e.occurredAt }
func (e *SystemEvent) GetPayload() any      { return e.payload }

// NewSystemEvent is a universal factory for creating any signal.
func NewSystemEvent(userID uuid.UUID, kind Kind, priority Priority, payload any) *SystemEvent {
	return &SystemEvent{
		id:         uuid.NewString(),
		userID:     userID,
		kind:       kind,
		priority:   priority,
		occurredAt: time.Now().UnixMilli(),
		payload:    payload,
	}
}

// NewConnectedEvent acknowledges a freshly established session to its owner.
// The payload carries the connection ID so clients can surface it in
// diagnostics.
func NewConnectedEvent(userID, connID uuid.UUID) *SystemEvent {
	return NewSystemEvent(userID, Connected, PriorityNormal, connID.String())
}

// NewOnlineUsersEvent snapshots the current online set for broadcast.
// Online-set updates are droppable under backpressure: a fresher snapshot
// always follows.
func NewOnlineUsersEvent(userIDs []uuid.UUID) *SystemEvent {
	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		ids = append(ids, id.String())
	}
	return NewSystemEvent(uuid.Nil, OnlineUsers, PriorityLow, ids)
}
