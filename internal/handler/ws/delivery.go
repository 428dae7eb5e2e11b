// Package ws is the push transport: one WebSocket per signed-in client.
// The connect handshake carries the session; presence registration and the
// online-set broadcast happen through the delivery service.
package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	wsmarshaller "github.com/tidechat/tidechat/internal/handler/marshaller/ws"
	"github.com/tidechat/tidechat/internal/handler/rest"
	"github.com/tidechat/tidechat/internal/service"
)

const writeWait = 10 * time.Second

type WSHandler struct {
	logger    *slog.Logger
	deliverer service.Deliverer
	upgrader  websocket.Upgrader
}

func NewWSHandler(logger *slog.Logger, deliverer service.Deliverer) *WSHandler {
	return &WSHandler{
		logger:    logger,
		deliverer: deliverer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool { return true }, // Security: adjust for production
		},
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 1. IDENTITY: resolved by the auth middleware from the session cookie.
	user, ok := rest.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// 2. UPGRADE TO WEBSOCKET
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// 3. REGISTER PRESENCE
	sub, err := h.deliverer.Subscribe(r.Context(), user.ID)
	if err != nil {
		return
	}
	defer h.deliverer.Unsubscribe(sub.GetID())

	h.logger.Info("ws opened", "user_id", user.ID, "conn_id", sub.GetID())

	// 4. READ LOOP: the client never writes payloads; reading only detects
	// disconnect and keeps control frames flowing.
	go func() {
		defer sub.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// 5. WRITE PUMP
	for {
		select {
		case <-sub.Done():
			return
		case ev := <-sub.Recv():
			if ev == nil {
				continue
			}

			data, err := wsmarshaller.MarshallDeliveryEvent(ev)
			if err != nil {
				h.logger.Error("failed to marshal ws event", "error", err)
				continue
			}

			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Warn("ws send failed", "error", err)
				return
			}
		}
	}
}
