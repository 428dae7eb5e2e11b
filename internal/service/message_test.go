package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidechat/tidechat/internal/domain/model"
	"github.com/tidechat/tidechat/internal/service"
	"github.com/tidechat/tidechat/internal/test/fakes"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type messageFixture struct {
	users    *fakes.UserStore
	messages *fakes.MessageStore
	uploader *fakes.Uploader
	bus      *fakes.Publisher
	svc      *service.MessageService

	sender    *model.User
	recipient *model.User
}

func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()
	f := &messageFixture{
		users:    fakes.NewUserStore(),
		messages: fakes.NewMessageStore(),
		uploader: fakes.NewUploader("https://blobs.example/pic.png"),
		bus:      fakes.NewPublisher(),
	}
	f.svc = service.NewMessageService(f.users, f.messages, f.uploader, f.bus, discardLogger())

	f.sender = &model.User{ID: uuid.New(), Username: "alice", Password: "x"}
	f.recipient = &model.User{ID: uuid.New(), Username: "bob", Password: "x"}
	require.NoError(t, f.users.Create(context.Background(), f.sender))
	require.NoError(t, f.users.Create(context.Background(), f.recipient))
	return f
}

func TestMessageService_SendPersistsAndPublishes(t *testing.T) {
	f := newMessageFixture(t)

	msg, err := f.svc.Send(context.Background(), f.sender.ID, f.recipient.ID, "hello", "")
	require.NoError(t, err)
	assert.False(t, msg.IsVolatile)
	assert.Nil(t, msg.ExpiresAt)

	stored, err := f.messages.ByID(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", stored.Text)

	require.Len(t, f.bus.Created, 1)
	assert.Equal(t, msg.ID, f.bus.Created[0].ID)
}

func TestMessageService_SendRejectsEmpty(t *testing.T) {
	f := newMessageFixture(t)

	_, err := f.svc.Send(context.Background(), f.sender.ID, f.recipient.ID, "", "")
	assert.ErrorIs(t, err, service.ErrEmptyMessage)
	assert.Empty(t, f.bus.Created)
}

func TestMessageService_SendUploadsImage(t *testing.T) {
	f := newMessageFixture(t)

	msg, err := f.svc.Send(context.Background(), f.sender.ID, f.recipient.ID, "", "data:image/png;base64,aGk=")
	require.NoError(t, err)
	assert.Equal(t, "https://blobs.example/pic.png", msg.ImageURL)
	assert.Len(t, f.uploader.Uploads, 1)
}

func TestMessageService_GuestConversationIsVolatile(t *testing.T) {
	f := newMessageFixture(t)

	expires := time.Now().Add(service.GuestAccountTTL)
	guest := &model.User{ID: uuid.New(), Username: "Guest_abc123", Password: "x", IsGuest: true, ExpiresAt: &expires}
	require.NoError(t, f.users.Create(context.Background(), guest))

	before := time.Now()
	msg, err := f.svc.Send(context.Background(), f.sender.ID, guest.ID, "hi guest", "")
	require.NoError(t, err)

	assert.True(t, msg.IsVolatile)
	require.NotNil(t, msg.ExpiresAt)
	lifetime := msg.ExpiresAt.Sub(before)
	assert.InDelta(t, service.VolatileMessageTTL.Seconds(), lifetime.Seconds(), 5)
}

func TestMessageService_ReclaimedGuestNotServedFromCache(t *testing.T) {
	f := newMessageFixture(t)

	// A guest whose lifetime has already run out but whom the janitor has
	// not swept yet.
	expired := time.Now().Add(-time.Minute)
	guest := &model.User{ID: uuid.New(), Username: "Guest_abc123", Password: "x", IsGuest: true, ExpiresAt: &expired}
	require.NoError(t, f.users.Create(context.Background(), guest))

	// The first send warms the identity cache with the guest record.
	_, err := f.svc.Send(context.Background(), f.sender.ID, guest.ID, "hi", "")
	require.NoError(t, err)

	// The janitor reclaims the account; the cached copy must not keep the
	// guest sendable past its lifetime.
	swept, err := f.users.DeleteExpired(context.Background(), time.Now())
	require.NoError(t, err)
	require.EqualValues(t, 1, swept)

	_, err = f.svc.Send(context.Background(), f.sender.ID, guest.ID, "still there?", "")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestMessageService_SendUnknownParticipant(t *testing.T) {
	f := newMessageFixture(t)

	_, err := f.svc.Send(context.Background(), f.sender.ID, uuid.New(), "hi", "")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestMessageService_PublishFailureIsNonFatal(t *testing.T) {
	f := newMessageFixture(t)
	f.bus.FailWith = errors.New("broker down")

	// Persistence seals the sender's success; delivery is best-effort.
	msg, err := f.svc.Send(context.Background(), f.sender.ID, f.recipient.ID, "hello", "")
	require.NoError(t, err)

	_, err = f.messages.ByID(context.Background(), msg.ID)
	assert.NoError(t, err)
}

func TestMessageService_DeleteOnlyBySender(t *testing.T) {
	f := newMessageFixture(t)

	msg, err := f.svc.Send(context.Background(), f.sender.ID, f.recipient.ID, "secret", "")
	require.NoError(t, err)

	err = f.svc.Delete(context.Background(), f.recipient.ID, msg.ID)
	assert.ErrorIs(t, err, service.ErrNotSender)

	require.NoError(t, f.svc.Delete(context.Background(), f.sender.ID, msg.ID))
	_, err = f.messages.ByID(context.Background(), msg.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	require.Len(t, f.bus.Deleted, 1)
	assert.Equal(t, msg.ID, f.bus.Deleted[0])
}

func TestMessageService_DeleteMissingMessage(t *testing.T) {
	f := newMessageFixture(t)

	err := f.svc.Delete(context.Background(), f.sender.ID, uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestMessageService_HistoryIsChronologicalBothWays(t *testing.T) {
	f := newMessageFixture(t)

	m1, err := f.svc.Send(context.Background(), f.sender.ID, f.recipient.ID, "one", "")
	require.NoError(t, err)
	m2, err := f.svc.Send(context.Background(), f.recipient.ID, f.sender.ID, "two", "")
	require.NoError(t, err)

	history, err := f.svc.History(context.Background(), f.sender.ID, f.recipient.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, m1.ID, history[0].ID)
	assert.Equal(t, m2.ID, history[1].ID)
}

func TestMessageService_ContactsExcludesSelf(t *testing.T) {
	f := newMessageFixture(t)

	contacts, err := f.svc.Contacts(context.Background(), f.sender.ID)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, f.recipient.ID, contacts[0].ID)
}
