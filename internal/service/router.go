package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tidechat/tidechat/internal/domain/event"
	"github.com/tidechat/tidechat/internal/domain/model"
	"github.com/tidechat/tidechat/internal/domain/registry"
)

// Router delivers freshly persisted message mutations to the recipient's
// live connection. It runs strictly after the persistence write succeeded;
// its only failure mode is push delivery, which is non-fatal by contract.
// Authorization (only the sender may delete) is enforced by the caller.
type Router interface {
	// RouteNewMessage pushes the message to the recipient if online.
	// Fire-and-forget: the result is advisory and never surfaced to the
	// sender.
	RouteNewMessage(ctx context.Context, msg *model.Message) bool
	// RouteDeletedMessage pushes a bare-id removal notice to the recipient
	// if online.
	RouteDeletedMessage(ctx context.Context, messageID, recipientID uuid.UUID) bool
}

type MessageRouter struct {
	hub registry.Hubber
}

func NewMessageRouter(hub registry.Hubber) *MessageRouter {
	return &MessageRouter{hub: hub}
}

func (r *MessageRouter) RouteNewMessage(_ context.Context, msg *model.Message) bool {
	ev := event.NewMessageCreatedEvent(msg, msg.RecipientID)
	return r.hub.Push(msg.RecipientID, ev)
}

func (r *MessageRouter) RouteDeletedMessage(_ context.Context, messageID, recipientID uuid.UUID) bool {
	ev := event.NewMessageDeletedEvent(messageID, recipientID, time.Now().UnixMilli())
	return r.hub.Push(recipientID, ev)
}
