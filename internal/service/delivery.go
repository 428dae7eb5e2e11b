package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/tidechat/tidechat/internal/domain/event"
	"github.com/tidechat/tidechat/internal/domain/registry"
)

// [DELIVERY_SERVICE] PRIMARY INTERFACE FOR TRANSPORT HANDLERS
type Deliverer interface {
	Subscribe(ctx context.Context, userID uuid.UUID) (registry.Connector, error)
	Unsubscribe(connID uuid.UUID)
}

// [IMPLEMENTATION] PRIVATE TO ENFORCE INTERFACE USAGE
type DeliveryService struct {
	hub registry.Hubber

	// announceMu orders each presence mutation with its own broadcast.
	// Without it, two concurrent subscribes can announce out of order and
	// leave every client holding the earlier, incomplete snapshot until the
	// next presence change. Holding it across BroadcastAll cannot stall:
	// online-set events are PriorityLow and are shed, never waited for, on
	// a full mailbox.
	announceMu sync.Mutex
}

// NewDeliveryService returns a production-ready instance of the service.
func NewDeliveryService(hub registry.Hubber) *DeliveryService {
	return &DeliveryService{
		hub: hub,
	}
}

// Subscribe records presence for the user and announces the updated online
// set to every live connection, the new one included.
func (s *DeliveryService) Subscribe(ctx context.Context, userID uuid.UUID) (registry.Connector, error) {
	const defaultBufferSize = 256

	conn := registry.NewConnector(ctx, userID, defaultBufferSize)

	// Handshake ack goes first, ahead of any presence broadcast. The mailbox
	// is empty at this point so the send cannot fail.
	conn.Send(event.NewConnectedEvent(userID, conn.GetID()), 0)

	s.announceMu.Lock()
	online := s.hub.Register(conn)
	s.hub.BroadcastAll(event.NewOnlineUsersEvent(online))
	s.announceMu.Unlock()

	return conn, nil
}

// Unsubscribe removes presence for the connection. A stale disconnect (the
// user already reconnected on a newer socket) changes nothing and triggers
// no broadcast.
func (s *DeliveryService) Unsubscribe(connID uuid.UUID) {
	s.announceMu.Lock()
	defer s.announceMu.Unlock()

	online, changed := s.hub.Unregister(connID)
	if !changed {
		return
	}
	s.hub.BroadcastAll(event.NewOnlineUsersEvent(online))
}
