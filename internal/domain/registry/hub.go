// Package registry implements the presence registry: a process-wide mapping
// from durable user identity to the single currently-active live connection
// for that user.
//
// Invariants:
//   - At most one connection per user. A new connection for an already-present
//     user silently replaces the old mapping (last-connect-wins).
//   - Unregister is keyed by connection identity and only removes the mapping
//     if it is still the current one, so a stale disconnect can never evict a
//     fresher session.
//   - Register/Unregister/online-set snapshot form one critical section.
package registry

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tidechat/tidechat/internal/domain/event"
	"github.com/tidechat/tidechat/internal/domain/model"
)

// Hubber defines the gateway for user session management and event routing.
type Hubber interface {
	Register(conn Connector) []uuid.UUID
	Unregister(connID uuid.UUID) ([]uuid.UUID, bool)
	Lookup(userID uuid.UUID) (Connector, bool)
	IsConnected(userID uuid.UUID) bool
	OnlineUsers() []uuid.UUID
	Push(userID uuid.UUID, ev event.Eventer) bool
	BroadcastAll(ev event.Eventer)
	Stats() model.HubStats
	Shutdown()
}

// Hub owns the presence map. All mutations run under one mutex; the map is
// never exposed.
type Hub struct {
	mu sync.RWMutex
	// sessions maps userID -> live connection. byConn is the reverse index
	// used by Unregister.
	sessions map[uuid.UUID]Connector
	byConn   map[uuid.UUID]uuid.UUID

	startedAt time.Time
	delivered uint64
	dropped   uint64

	config hubConfig
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		sessions:  make(map[uuid.UUID]Connector),
		byConn:    make(map[uuid.UUID]uuid.UUID),
		startedAt: time.Now(),
		config: hubConfig{
			sendTimeout: 500 * time.Millisecond,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register unconditionally overwrites any existing mapping for the
// connection's user and returns the resulting online set. The replaced
// connection, if any, is not closed here; its own disconnect arrives later
// and is ignored as stale.
func (h *Hub) Register(conn Connector) []uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()

	userID := conn.GetUserID()
	if old, ok := h.sessions[userID]; ok {
		delete(h.byConn, old.GetID())
	}
	h.sessions[userID] = conn
	h.byConn[conn.GetID()] = userID

	return h.onlineLocked()
}

// Unregister removes the mapping owned by connID. It reports whether the
// registry changed; a disconnect of a replaced connection is a no-op.
func (h *Hub) Unregister(connID uuid.UUID) ([]uuid.UUID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userID, ok := h.byConn[connID]
	if !ok {
		return nil, false
	}
	delete(h.byConn, connID)
	delete(h.sessions, userID)

	return h.onlineLocked(), true
}

// Lookup is a side-effect-free read of the current mapping.
func (h *Hub) Lookup(userID uuid.UUID) (Connector, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conn, ok := h.sessions[userID]
	return conn, ok
}

func (h *Hub) IsConnected(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.sessions[userID]
	return ok
}

// OnlineUsers snapshots the current key set.
func (h *Hub) OnlineUsers() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.onlineLocked()
}

func (h *Hub) onlineLocked() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Push delivers an event to the user's live connection, if any. Best-effort:
// returns false on a presence miss or a saturated session, and neither is an
// error.
func (h *Hub) Push(userID uuid.UUID, ev event.Eventer) bool {
	conn, ok := h.Lookup(userID)
	if !ok {
		return false
	}
	if conn.Send(ev, h.config.sendTimeout) {
		atomic.AddUint64(&h.delivered, 1)
		return true
	}
	atomic.AddUint64(&h.dropped, 1)
	return false
}

// BroadcastAll fans an event out to every live connection.
func (h *Hub) BroadcastAll(ev event.Eventer) {
	h.mu.RLock()
	conns := make([]Connector, 0, len(h.sessions))
	for _, conn := range h.sessions {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	// Sends happen outside the lock; a slow session must not stall the
	// registry.
	for _, conn := range conns {
		if conn.Send(ev, h.config.sendTimeout) {
			atomic.AddUint64(&h.delivered, 1)
		} else {
			atomic.AddUint64(&h.dropped, 1)
		}
	}
}

func (h *Hub) Stats() model.HubStats {
	h.mu.RLock()
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id.String())
	}
	h.mu.RUnlock()

	return model.HubStats{
		OnlineUsers: len(ids),
		OnlineIDs:   ids,
		Delivered:   atomic.LoadUint64(&h.delivered),
		Dropped:     atomic.LoadUint64(&h.dropped),
		Uptime:      time.Since(h.startedAt),
	}
}

// Shutdown performs [GRACEFUL_RECLAMATION] of every live connection.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conn := range h.sessions {
		conn.Close()
		delete(h.byConn, conn.GetID())
		delete(h.sessions, userID)
	}
}
