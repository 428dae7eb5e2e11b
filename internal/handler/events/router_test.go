package events_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidechat/tidechat/internal/adapter/pubsub"
	"github.com/tidechat/tidechat/internal/domain/model"
	"github.com/tidechat/tidechat/internal/handler/events"
)

// recordingRouter captures routing calls in arrival order.
type recordingRouter struct {
	mu      sync.Mutex
	created []*model.Message
	deleted []uuid.UUID
}

func (r *recordingRouter) RouteNewMessage(_ context.Context, msg *model.Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, msg)
	return true
}

func (r *recordingRouter) RouteDeletedMessage(_ context.Context, messageID, _ uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, messageID)
	return true
}

func newHandler(router *recordingRouter) *events.DeliveryHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return events.NewDeliveryHandler(router, logger)
}

func frame(t *testing.T, env pubsub.Envelope) *message.Message {
	t.Helper()
	payload, err := json.Marshal(env)
	require.NoError(t, err)
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(pubsub.KindMetadataKey, env.Kind)
	return msg
}

func TestOnMessageEvent_Created(t *testing.T) {
	router := &recordingRouter{}
	h := newHandler(router)

	msg := &model.Message{
		ID:          uuid.New(),
		SenderID:    uuid.New(),
		RecipientID: uuid.New(),
		Text:        "hi",
		CreatedAt:   time.Now(),
	}
	err := h.OnMessageEvent(frame(t, pubsub.Envelope{
		Kind:        pubsub.KindMessageCreated,
		Message:     msg,
		MessageID:   msg.ID,
		RecipientID: msg.RecipientID,
	}))
	require.NoError(t, err)

	require.Len(t, router.created, 1)
	assert.Equal(t, msg.ID, router.created[0].ID)
}

func TestOnMessageEvent_Deleted(t *testing.T) {
	router := &recordingRouter{}
	h := newHandler(router)

	messageID := uuid.New()
	err := h.OnMessageEvent(frame(t, pubsub.Envelope{
		Kind:        pubsub.KindMessageDeleted,
		MessageID:   messageID,
		RecipientID: uuid.New(),
	}))
	require.NoError(t, err)

	require.Len(t, router.deleted, 1)
	assert.Equal(t, messageID, router.deleted[0])
}

func TestOnMessageEvent_PreservesArrivalOrder(t *testing.T) {
	router := &recordingRouter{}
	h := newHandler(router)

	recipient := uuid.New()
	first := &model.Message{ID: uuid.New(), SenderID: uuid.New(), RecipientID: recipient, Text: "m1"}
	second := &model.Message{ID: uuid.New(), SenderID: first.SenderID, RecipientID: recipient, Text: "m2"}

	for _, m := range []*model.Message{first, second} {
		require.NoError(t, h.OnMessageEvent(frame(t, pubsub.Envelope{
			Kind: pubsub.KindMessageCreated, Message: m, MessageID: m.ID, RecipientID: recipient,
		})))
	}

	require.Len(t, router.created, 2)
	assert.Equal(t, first.ID, router.created[0].ID)
	assert.Equal(t, second.ID, router.created[1].ID)
}

func TestOnMessageEvent_MalformedPayloadACKs(t *testing.T) {
	router := &recordingRouter{}
	h := newHandler(router)

	msg := message.NewMessage(watermill.NewUUID(), []byte("{not json"))
	assert.NoError(t, h.OnMessageEvent(msg), "poison frames must ACK, not wedge the stream")
	assert.Empty(t, router.created)
}

func TestOnMessageEvent_UnknownKindACKs(t *testing.T) {
	router := &recordingRouter{}
	h := newHandler(router)

	err := h.OnMessageEvent(frame(t, pubsub.Envelope{Kind: "message.exploded.v9"}))
	assert.NoError(t, err)
	assert.Empty(t, router.created)
	assert.Empty(t, router.deleted)
}

func TestOnMessageEvent_CreatedWithoutBodyACKs(t *testing.T) {
	router := &recordingRouter{}
	h := newHandler(router)

	err := h.OnMessageEvent(frame(t, pubsub.Envelope{Kind: pubsub.KindMessageCreated}))
	assert.NoError(t, err)
	assert.Empty(t, router.created)
}
