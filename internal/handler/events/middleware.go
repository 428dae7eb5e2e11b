package events

import (
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/tidechat/tidechat/internal/adapter/pubsub"
)

// LoggingMiddleware records each consumed frame with its kind and latency.
func LoggingMiddleware(logger *slog.Logger) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			start := time.Now()
			produced, err := h(msg)

			attrs := []any{
				"msg_id", msg.UUID,
				"kind", msg.Metadata.Get(pubsub.KindMetadataKey),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err != nil {
				logger.Error("event handling failed", append(attrs, "err", err)...)
			} else {
				logger.Debug("event handled", attrs...)
			}

			return produced, err
		}
	}
}
