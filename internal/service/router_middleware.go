package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tidechat/tidechat/internal/domain/model"
)

// RouterMiddleware implements [DECORATOR_PATTERN] to add observability to
// routing decisions without touching business logic.
type RouterMiddleware struct {
	Next   Router
	Logger *slog.Logger
}

func NewRouterMiddleware(next Router, logger *slog.Logger) Router {
	return &RouterMiddleware{
		Next:   next,
		Logger: logger,
	}
}

func (m *RouterMiddleware) RouteNewMessage(ctx context.Context, msg *model.Message) bool {
	delivered := m.Next.RouteNewMessage(ctx, msg)
	m.Logger.Debug("ROUTE_NEW_MESSAGE",
		"msg_id", msg.ID,
		"recipient_id", msg.RecipientID,
		"delivered", delivered,
	)
	return delivered
}

func (m *RouterMiddleware) RouteDeletedMessage(ctx context.Context, messageID, recipientID uuid.UUID) bool {
	delivered := m.Next.RouteDeletedMessage(ctx, messageID, recipientID)
	m.Logger.Debug("ROUTE_DELETED_MESSAGE",
		"msg_id", messageID,
		"recipient_id", recipientID,
		"delivered", delivered,
	)
	return delivered
}
