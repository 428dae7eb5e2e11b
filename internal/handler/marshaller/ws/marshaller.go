// Package wsmarshaller maps domain events to their fixed wire shapes.
// Event names are an interop contract with existing clients and must not
// change: "newMessage", "deleteMessage", "getOnlineUsers".
package wsmarshaller

import (
	"encoding/json"
	"fmt"

	"github.com/tidechat/tidechat/internal/domain/event"
)

const (
	EventNewMessage    = "newMessage"
	EventDeleteMessage = "deleteMessage"
	EventOnlineUsers   = "getOnlineUsers"
	EventConnected     = "connected"
)

// WSEvent is the generic envelope for WebSocket frames.
type WSEvent struct {
	Event   string `json:"event"`
	ID      string `json:"id"`
	SentAt  int64  `json:"sent_at"`
	Payload any    `json:"payload"`
}

// MarshallDeliveryEvent prepares a domain event for WebSocket transmission.
func MarshallDeliveryEvent(ev event.Eventer) ([]byte, error) {
	res := &WSEvent{
		ID:      ev.GetID(),
		SentAt:  ev.GetOccurredAt(),
		Payload: ev.GetPayload(),
	}

	switch ev.GetKind() {
	case event.MessageCreated:
		res.Event = EventNewMessage
	case event.MessageDeleted:
		res.Event = EventDeleteMessage
	case event.OnlineUsers:
		res.Event = EventOnlineUsers
	case event.Connected:
		res.Event = EventConnected
	default:
		return nil, fmt.Errorf("unknown event kind %d", ev.GetKind())
	}

	return json.Marshal(res)
}
