// Package pubsub carries persisted message mutations from the request path
// to the delivery pipeline over an in-process watermill bus.
//
// Created and deleted mutations share one topic with a single sequential
// consumer, so events for a recipient always arrive in persistence-commit
// order.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/tidechat/tidechat/internal/domain/model"
)

const (
	// TopicMessageEvents is the single ordered stream of message mutations.
	TopicMessageEvents = "im.message.events.v1"

	// KindMetadataKey tags each bus message with its mutation kind.
	KindMetadataKey = "event_kind"

	KindMessageCreated = "message.created.v1"
	KindMessageDeleted = "message.deleted.v1"
)

// Envelope is the wire shape of a message mutation on the bus.
type Envelope struct {
	Kind        string         `json:"kind"`
	Message     *model.Message `json:"message,omitempty"`
	MessageID   uuid.UUID      `json:"message_id"`
	RecipientID uuid.UUID      `json:"recipient_id"`
	OccurredAt  int64          `json:"occurred_at"`
}

// EventDispatcher defines the high-level contract for outgoing events.
// This keeps the services agnostic of the transport implementation.
type EventDispatcher interface {
	MessageCreated(ctx context.Context, msg *model.Message) error
	MessageDeleted(ctx context.Context, messageID, recipientID uuid.UUID) error
}

// eventDispatcher is the concrete implementation (private).
type eventDispatcher struct {
	publisher message.Publisher
}

// NewEventDispatcher returns the interface instead of the pointer to the struct.
func NewEventDispatcher(pub message.Publisher) EventDispatcher {
	return &eventDispatcher{publisher: pub}
}

func (d *eventDispatcher) MessageCreated(ctx context.Context, msg *model.Message) error {
	if msg == nil {
		return fmt.Errorf("event dispatcher: cannot publish nil message")
	}
	return d.publish(ctx, &Envelope{
		Kind:        KindMessageCreated,
		Message:     msg,
		MessageID:   msg.ID,
		RecipientID: msg.RecipientID,
		OccurredAt:  msg.CreatedAt.UnixMilli(),
	})
}

func (d *eventDispatcher) MessageDeleted(ctx context.Context, messageID, recipientID uuid.UUID) error {
	return d.publish(ctx, &Envelope{
		Kind:        KindMessageDeleted,
		MessageID:   messageID,
		RecipientID: recipientID,
		OccurredAt:  time.Now().UnixMilli(),
	})
}

func (d *eventDispatcher) publish(ctx context.Context, env *Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("event dispatcher: marshal failure: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(KindMetadataKey, env.Kind)

	if err := d.publisher.Publish(TopicMessageEvents, msg); err != nil {
		return fmt.Errorf("event dispatcher: failed to publish to topic %s: %w", TopicMessageEvents, err)
	}
	return nil
}
