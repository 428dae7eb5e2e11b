package client

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
)

// EventSource is the subset of Socket the synchronizer needs.
type EventSource interface {
	On(event string, h Handler) Subscription
	Off(sub Subscription)
}

// HistoryFetcher is the subset of Client the synchronizer needs.
type HistoryFetcher interface {
	History(ctx context.Context, counterpartID string) ([]Message, error)
}

// Conversation keeps the message list for the currently open counterpart
// consistent with server pushes.
//
// State machine: Unsubscribed until a counterpart is selected; Select
// installs handlers synchronously (so no push can be missed) and fetches
// history asynchronously; changing or clearing the selection always tears
// the old handlers down before installing new ones. Events from a previous
// selection are filtered out by sender identity.
type Conversation struct {
	fetcher HistoryFetcher
	source  EventSource

	mu       sync.Mutex
	selected string
	messages []Message
	fetchErr error
	loading  bool
	// epoch invalidates in-flight history fetches on selection change.
	epoch int
	subs  []Subscription
}

func NewConversation(fetcher HistoryFetcher, source EventSource) *Conversation {
	return &Conversation{
		fetcher: fetcher,
		source:  source,
	}
}

// Select opens the conversation with the given counterpart. Handlers for
// the new selection are live before this returns; the history fetch runs
// in the background and merges under the same selection epoch.
func (c *Conversation) Select(ctx context.Context, counterpartID string) {
	c.mu.Lock()
	c.teardownLocked()

	c.selected = counterpartID
	c.messages = nil
	c.fetchErr = nil
	c.loading = true
	c.epoch++
	epoch := c.epoch

	c.subs = append(c.subs,
		c.source.On(EventNewMessage, c.onNewMessage),
		c.source.On(EventDeleteMessage, c.onDeleteMessage),
	)
	c.mu.Unlock()

	go c.fetchHistory(ctx, counterpartID, epoch)
}

// Clear closes the open conversation and removes all handlers.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	c.selected = ""
	c.messages = nil
	c.fetchErr = nil
	c.loading = false
	c.epoch++
}

// Close releases the subscription on every path, including abrupt teardown.
func (c *Conversation) Close() {
	c.Clear()
}

// Selected returns the currently open counterpart, if any.
func (c *Conversation) Selected() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected, c.selected != ""
}

// Messages snapshots the local ordered message list.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

// Err reports the history-fetch failure, if any. The list stays empty on
// failure; there is no automatic retry.
func (c *Conversation) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetchErr
}

// Loading reports whether a history fetch is in flight.
func (c *Conversation) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Conversation) teardownLocked() {
	for _, sub := range c.subs {
		c.source.Off(sub)
	}
	c.subs = nil
}

func (c *Conversation) fetchHistory(ctx context.Context, counterpartID string, epoch int) {
	history, err := c.fetcher.History(ctx, counterpartID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		// Selection changed while the fetch was in flight.
		return
	}

	c.loading = false
	if err != nil {
		c.fetchErr = err
		return
	}

	// Pushes may have landed while history was in flight; merge and keep
	// chronological order without duplicates.
	seen := make(map[string]struct{}, len(history))
	for _, m := range history {
		seen[m.ID] = struct{}{}
	}
	for _, m := range c.messages {
		if _, dup := seen[m.ID]; !dup {
			history = append(history, m)
		}
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].CreatedAt.Before(history[j].CreatedAt)
	})
	c.messages = history
}

func (c *Conversation) onNewMessage(payload json.RawMessage) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Filter by sender: an event for a different, no-longer-open
	// conversation can arrive after a fast switch.
	if c.selected == "" || msg.SenderID != c.selected {
		return
	}
	c.messages = append(c.messages, msg)
}

func (c *Conversation) onDeleteMessage(payload json.RawMessage) {
	var messageID string
	if err := json.Unmarshal(payload, &messageID); err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// No-op when absent: already removed or never shown.
	for i, m := range c.messages {
		if m.ID == messageID {
			c.messages = append(c.messages[:i], c.messages[i+1:]...)
			return
		}
	}
}
