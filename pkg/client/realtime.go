package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// envelope is the wire format of every server-pushed frame.
type envelope struct {
	Event   string          `json:"event"`
	ID      string          `json:"id"`
	SentAt  int64           `json:"sent_at"`
	Payload json.RawMessage `json:"payload"`
}

// Handler consumes the raw payload of one pushed event.
type Handler func(payload json.RawMessage)

// Subscription identifies one installed handler so it can be removed.
type Subscription struct {
	event string
	id    int
}

// Socket is a live push channel. Handlers are installed per event name and
// dispatched from a single read loop; installation and removal are safe
// from any goroutine.
type Socket struct {
	conn *websocket.Conn

	mu       sync.Mutex
	handlers map[string]map[int]Handler
	nextID   int
	online   []string
	closed   bool

	done    chan struct{}
	onError func(error)
}

// Connect dials the push channel using the client's session.
func (c *Client) Connect(ctx context.Context) (*Socket, error) {
	cookies, err := c.sessionCookies()
	if err != nil {
		return nil, err
	}

	wsURL := *c.baseURL
	switch wsURL.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}
	wsURL.Path = "/ws"

	header := http.Header{}
	for _, cookie := range cookies {
		header.Add("Cookie", cookie.String())
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial ws: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial ws: %w", err)
	}

	s := &Socket{
		conn:     conn,
		handlers: make(map[string]map[int]Handler),
		done:     make(chan struct{}),
	}

	// Track the online set for the lifetime of the socket, like any other
	// subscriber.
	s.On(EventOnlineUsers, func(payload json.RawMessage) {
		var ids []string
		if err := json.Unmarshal(payload, &ids); err != nil {
			return
		}
		s.mu.Lock()
		s.online = ids
		s.mu.Unlock()
	})

	go s.readLoop()
	return s, nil
}

// On installs a handler for an event name. The returned subscription is the
// only way to remove exactly this handler.
func (s *Socket) On(event string, h Handler) Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handlers[event] == nil {
		s.handlers[event] = make(map[int]Handler)
	}
	s.nextID++
	s.handlers[event][s.nextID] = h
	return Subscription{event: event, id: s.nextID}
}

// Off removes a previously installed handler. Removing an already-removed
// subscription is a no-op.
func (s *Socket) Off(sub Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if hs, ok := s.handlers[sub.event]; ok {
		delete(hs, sub.id)
	}
}

// OnlineUsers returns the latest broadcast online set.
func (s *Socket) OnlineUsers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.online...)
}

// OnError installs an optional callback for read-loop failures.
func (s *Socket) OnError(fn func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = fn
}

// Done is closed when the socket terminates.
func (s *Socket) Done() <-chan struct{} {
	return s.done
}

// Close terminates the push channel.
func (s *Socket) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	return s.conn.Close()
}

func (s *Socket) readLoop() {
	defer close(s.done)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			onError := s.onError
			s.mu.Unlock()
			if !closed && onError != nil {
				onError(err)
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}

		s.dispatch(&env)
	}
}

func (s *Socket) dispatch(env *envelope) {
	s.mu.Lock()
	hs := make([]Handler, 0, len(s.handlers[env.Event]))
	for _, h := range s.handlers[env.Event] {
		hs = append(hs, h)
	}
	s.mu.Unlock()

	// Handlers run on the read loop; they must not block.
	for _, h := range hs {
		h(env.Payload)
	}
}
