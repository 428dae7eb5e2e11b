package registry

import "time"

type hubConfig struct {
	sendTimeout time.Duration
}

// Option defines a functional configuration type for the Hub.
type Option func(*Hub)

// WithSendTimeout bounds how long a high-priority push may wait on a
// saturated session mailbox before the event is dropped.
func WithSendTimeout(d time.Duration) Option {
	return func(h *Hub) {
		h.config.sendTimeout = d
	}
}
