// Package events binds the in-process message-events stream to the Message
// Router. It is the delivery half of the control path: the REST handlers
// publish persisted mutations, this handler pushes them to live recipients.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/tidechat/tidechat/internal/adapter/pubsub"
	"github.com/tidechat/tidechat/internal/service"
)

const (
	handlerName = "ON_MESSAGE_EVENT"

	// DeliveryPoisonTopic collects frames that repeatedly fail decoding or
	// routing.
	DeliveryPoisonTopic = "im.message.events.v1.poison"
)

func NewWatermillRouter(wmLogger watermill.LoggerAdapter) (*message.Router, error) {
	return message.NewRouter(message.RouterConfig{}, wmLogger)
}

// DeliveryHandler consumes the ordered mutation stream and hands each
// mutation to the Message Router.
type DeliveryHandler struct {
	router service.Router
	logger *slog.Logger
}

func NewDeliveryHandler(router service.Router, logger *slog.Logger) *DeliveryHandler {
	return &DeliveryHandler{
		router: router,
		logger: logger,
	}
}

// RegisterHandlers wires the single sequential consumer. One handler for
// both mutation kinds keeps per-recipient delivery in publish order.
func (h *DeliveryHandler) RegisterHandlers(router *message.Router, sub message.Subscriber, pub message.Publisher) error {
	poison, err := middleware.PoisonQueue(pub, DeliveryPoisonTopic)
	if err != nil {
		return fmt.Errorf("poison queue setup: %w", err)
	}

	router.AddConsumerHandler(
		handlerName,
		pubsub.TopicMessageEvents,
		sub,
		h.OnMessageEvent,
	).AddMiddleware(
		LoggingMiddleware(h.logger),
		middleware.Retry{
			MaxRetries:      2,
			InitialInterval: 100 * time.Millisecond,
		}.Middleware,
		poison,
		middleware.Timeout(10*time.Second),
	)

	h.logger.Info("delivery pipeline ready", "topic", pubsub.TopicMessageEvents)
	return nil
}

// OnMessageEvent dispatches one mutation. All outcomes ACK: push delivery
// is fire-and-forget and an offline recipient is a normal miss.
func (h *DeliveryHandler) OnMessageEvent(msg *message.Message) error {
	// [PANIC_RECOVERY] Keep the consumer alive across handler bugs.
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("delivery handler panic",
				"err", r,
				"stack", string(debug.Stack()),
				"msg_id", msg.UUID)
		}
	}()

	var env pubsub.Envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		h.logger.Error("envelope decode failed", "err", err, "msg_id", msg.UUID)
		return nil // ACK: poison-pill protection.
	}

	switch env.Kind {
	case pubsub.KindMessageCreated:
		if env.Message == nil {
			h.logger.Warn("created envelope without message", "msg_id", msg.UUID)
			return nil
		}
		h.router.RouteNewMessage(msg.Context(), env.Message)

	case pubsub.KindMessageDeleted:
		h.router.RouteDeletedMessage(msg.Context(), env.MessageID, env.RecipientID)

	default:
		h.logger.Warn("unknown envelope kind", "kind", env.Kind, "msg_id", msg.UUID)
	}

	return nil
}
