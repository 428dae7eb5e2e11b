package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidechat/tidechat/internal/domain/event"
	"github.com/tidechat/tidechat/internal/domain/model"
	"github.com/tidechat/tidechat/internal/domain/registry"
	"github.com/tidechat/tidechat/internal/service"
	"github.com/tidechat/tidechat/internal/test/fakes"
)

func TestMessageRouter_RecipientOffline(t *testing.T) {
	hub := registry.NewHub()
	router := service.NewMessageRouter(hub)

	msg := &model.Message{
		ID:          uuid.New(),
		SenderID:    uuid.New(),
		RecipientID: uuid.New(),
		Text:        "hello",
		CreatedAt:   time.Now(),
	}

	// Nobody is online: routing reports a miss and nothing else happens.
	assert.False(t, router.RouteNewMessage(context.Background(), msg))
	assert.False(t, router.RouteDeletedMessage(context.Background(), msg.ID, msg.RecipientID))
	assert.Zero(t, hub.Stats().Delivered)
}

func TestMessageRouter_RecipientOnline(t *testing.T) {
	hub := registry.NewHub()
	router := service.NewMessageRouter(hub)

	recipientID := uuid.New()
	conn := fakes.NewConnector(recipientID)
	hub.Register(conn)

	msg := &model.Message{
		ID:          uuid.New(),
		SenderID:    uuid.New(),
		RecipientID: recipientID,
		Text:        "hello",
		CreatedAt:   time.Now(),
	}
	require.True(t, router.RouteNewMessage(context.Background(), msg))

	sent := conn.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, event.MessageCreated, sent[0].GetKind())
	assert.Equal(t, recipientID, sent[0].GetUserID())
	assert.Equal(t, msg, sent[0].GetPayload())
}

func TestMessageRouter_SenderConnectionUntouched(t *testing.T) {
	hub := registry.NewHub()
	router := service.NewMessageRouter(hub)

	senderID, recipientID := uuid.New(), uuid.New()
	senderConn := fakes.NewConnector(senderID)
	recipientConn := fakes.NewConnector(recipientID)
	hub.Register(senderConn)
	hub.Register(recipientConn)

	msg := &model.Message{
		ID:          uuid.New(),
		SenderID:    senderID,
		RecipientID: recipientID,
		Text:        "hi",
		CreatedAt:   time.Now(),
	}
	router.RouteNewMessage(context.Background(), msg)

	// The sender already has the message from the request response.
	assert.Empty(t, senderConn.Sent())
	assert.Len(t, recipientConn.Sent(), 1)
}

func TestMessageRouter_DeleteCarriesBareID(t *testing.T) {
	hub := registry.NewHub()
	router := service.NewMessageRouter(hub)

	recipientID := uuid.New()
	conn := fakes.NewConnector(recipientID)
	hub.Register(conn)

	messageID := uuid.New()
	require.True(t, router.RouteDeletedMessage(context.Background(), messageID, recipientID))

	sent := conn.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, event.MessageDeleted, sent[0].GetKind())
	assert.Equal(t, messageID.String(), sent[0].GetPayload())
}

func TestMessageRouter_PerRecipientOrdering(t *testing.T) {
	hub := registry.NewHub()
	router := service.NewMessageRouter(hub)

	recipientID := uuid.New()
	conn := fakes.NewConnector(recipientID)
	hub.Register(conn)

	first := &model.Message{ID: uuid.New(), SenderID: uuid.New(), RecipientID: recipientID, Text: "m1", CreatedAt: time.Now()}
	second := &model.Message{ID: uuid.New(), SenderID: first.SenderID, RecipientID: recipientID, Text: "m2", CreatedAt: time.Now()}

	router.RouteNewMessage(context.Background(), first)
	router.RouteNewMessage(context.Background(), second)

	sent := conn.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, first, sent[0].GetPayload())
	assert.Equal(t, second, sent[1].GetPayload())
}
