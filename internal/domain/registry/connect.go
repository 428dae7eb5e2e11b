package registry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tidechat/tidechat/internal/domain/event"
)

// Interface guard
var _ Connector = (*connect)(nil)

// [CONNECTOR] THE INTERFACE FOR EXTERNAL LAYERS (REGISTRY/HUB)
// This allows mocking and decoupling from the concrete implementation
type Connector interface {
	GetID() uuid.UUID
	GetUserID() uuid.UUID
	Send(ev event.Eventer, timeout time.Duration) bool // Thread-safe send, never blocks past timeout
	Recv() <-chan event.Eventer
	Done() <-chan struct{} // Closed when the connection is terminated
	Dropped() uint64
	Close() // Terminate connection and release resources
}

// [METADATA] EXPORTED FOR TRANSPORT AND ANALYTICS LAYERS
type ConnectMetadata struct {
	RemoteIP  string
	UserAgent string
}

// [CONNECT] CONCRETE IMPLEMENTATION (UNEXPORTED TO FORCE INTERFACE USAGE)
type connect struct {
	id        uuid.UUID
	userID    uuid.UUID
	metadata  ConnectMetadata
	createdAt time.Time
	ctx       context.Context
	cancelFn  context.CancelFunc
	sendCh    chan event.Eventer
	closeOnce sync.Once // [PROTECTION]

	// [ATOMIC_FIELDS]
	lastActivityAt int64
	droppedCount   uint64
}

// NewConnector builds a live-connection identity for a user. Connection IDs
// are unique per instance and never reused.
func NewConnector(ctx context.Context, userID uuid.UUID, bufferSize int) Connector {
	childCtx, cancel := context.WithCancel(ctx)
	return &connect{
		id:             uuid.New(),
		userID:         userID,
		createdAt:      time.Now(),
		ctx:            childCtx,
		cancelFn:       cancel,
		sendCh:         make(chan event.Eventer, bufferSize),
		lastActivityAt: time.Now().UnixNano(),
	}
}

// --- IMPLEMENTATION OF CONNECTOR INTERFACE ---

func (c *connect) GetID() uuid.UUID     { return c.id }
func (c *connect) GetUserID() uuid.UUID { return c.userID }
func (c *connect) Dropped() uint64      { return atomic.LoadUint64(&c.droppedCount) }

// Send attempts to push an event into the session mailbox.
// Delivery is best-effort: a dead transport or a buffer that stays
// saturated for the whole timeout window drops the event.
func (c *connect) Send(ev event.Eventer, timeout time.Duration) bool {
	atomic.StoreInt64(&c.lastActivityAt, time.Now().UnixNano())

	select {
	// 1. [LIFECYCLE_GATE] Abort if the underlying transport is already dead.
	case <-c.ctx.Done():
		return false
	case c.sendCh <- ev:
		return true
	default:
		// Buffer full, shed low-priority traffic immediately.
		return c.handleBackpressure(ev, timeout)
	}
}

// handleBackpressure manages full buffers by dropping low-priority events.
func (c *connect) handleBackpressure(ev event.Eventer, timeout time.Duration) bool {
	if ev.GetPriority() <= event.PriorityLow {
		atomic.AddUint64(&c.droppedCount, 1)
		return false
	}

	// High-priority events wait out transient congestion up to the timeout.
	select {
	case <-c.ctx.Done():
	case c.sendCh <- ev:
		return true
	case <-time.After(timeout):
	}

	atomic.AddUint64(&c.droppedCount, 1)
	return false
}

func (c *connect) Recv() <-chan event.Eventer { return c.sendCh }
func (c *connect) Done() <-chan struct{}      { return c.ctx.Done() }

// Close terminates the session and releases resources.
//
// The mailbox channel is deliberately left open: concurrent Send calls race
// with teardown, and they bail out on the cancelled context instead of
// panicking on a closed channel. Transport pumps watch Done() to exit.
func (c *connect) Close() {
	// [IDEMPOTENCY_SHIELD]
	// Teardown runs exactly once even when called concurrently by the Hub
	// (replacement), the transport handler (defer) and shutdown.
	c.closeOnce.Do(func() {
		c.cancelFn()
	})
}
