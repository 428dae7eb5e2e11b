package storage_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidechat/tidechat/internal/domain/model"
	"github.com/tidechat/tidechat/internal/service"
	"github.com/tidechat/tidechat/internal/storage"
)

func openTestDB(t *testing.T) (*storage.UserRepository, *storage.MessageRepository) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "tidechat.db"))
	require.NoError(t, err)
	return storage.NewUserRepository(db), storage.NewMessageRepository(db)
}

func newUser(username string) *model.User {
	return &model.User{ID: uuid.New(), Username: username, Password: "hash"}
}

func TestUserRepository_CreateAndLookup(t *testing.T) {
	users, _ := openTestDB(t)
	ctx := context.Background()

	alice := newUser("alice")
	require.NoError(t, users.Create(ctx, alice))

	byID, err := users.ByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byName, err := users.ByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)

	_, err = users.ByID(ctx, uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	users, _ := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, newUser("alice")))
	err := users.Create(ctx, newUser("alice"))
	assert.ErrorIs(t, err, service.ErrUserExists)
}

func TestUserRepository_AllExceptOrdersByUsername(t *testing.T) {
	users, _ := openTestDB(t)
	ctx := context.Background()

	self := newUser("self")
	require.NoError(t, users.Create(ctx, self))
	require.NoError(t, users.Create(ctx, newUser("bob")))
	require.NoError(t, users.Create(ctx, newUser("alice")))

	contacts, err := users.AllExcept(ctx, self.ID)
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "alice", contacts[0].Username)
	assert.Equal(t, "bob", contacts[1].Username)
}

func TestUserRepository_UpdateProfilePic(t *testing.T) {
	users, _ := openTestDB(t)
	ctx := context.Background()

	alice := newUser("alice")
	require.NoError(t, users.Create(ctx, alice))

	updated, err := users.UpdateProfilePic(ctx, alice.ID, "https://blobs.example/a.png")
	require.NoError(t, err)
	assert.Equal(t, "https://blobs.example/a.png", updated.ProfilePic)

	_, err = users.UpdateProfilePic(ctx, uuid.New(), "x")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUserRepository_DeleteExpiredReclaimsGuestsOnly(t *testing.T) {
	users, _ := openTestDB(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	expired := newUser("Guest_dead")
	expired.IsGuest = true
	expired.ExpiresAt = &past
	alive := newUser("Guest_alive")
	alive.IsGuest = true
	alive.ExpiresAt = &future
	durable := newUser("alice")

	for _, u := range []*model.User{expired, alive, durable} {
		require.NoError(t, users.Create(ctx, u))
	}

	n, err := users.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = users.ByID(ctx, expired.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = users.ByID(ctx, alive.ID)
	assert.NoError(t, err)
	_, err = users.ByID(ctx, durable.ID)
	assert.NoError(t, err)
}

func TestMessageRepository_BetweenIsTwoWayChronological(t *testing.T) {
	users, messages := openTestDB(t)
	ctx := context.Background()

	alice, bob, carol := newUser("alice"), newUser("bob"), newUser("carol")
	for _, u := range []*model.User{alice, bob, carol} {
		require.NoError(t, users.Create(ctx, u))
	}

	base := time.Now().Add(-time.Hour)
	mk := func(from, to *model.User, text string, offset time.Duration) *model.Message {
		m := &model.Message{
			ID:          uuid.New(),
			SenderID:    from.ID,
			RecipientID: to.ID,
			Text:        text,
			CreatedAt:   base.Add(offset),
		}
		require.NoError(t, messages.Create(ctx, m))
		return m
	}

	m1 := mk(alice, bob, "one", time.Minute)
	m2 := mk(bob, alice, "two", 2*time.Minute)
	mk(alice, carol, "off-topic", 3*time.Minute)

	convo, err := messages.Between(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, convo, 2)
	assert.Equal(t, m1.ID, convo[0].ID)
	assert.Equal(t, m2.ID, convo[1].ID)
}

func TestMessageRepository_Delete(t *testing.T) {
	_, messages := openTestDB(t)
	ctx := context.Background()

	msg := &model.Message{ID: uuid.New(), SenderID: uuid.New(), RecipientID: uuid.New(), Text: "x"}
	require.NoError(t, messages.Create(ctx, msg))
	require.NoError(t, messages.Delete(ctx, msg.ID))

	_, err := messages.ByID(ctx, msg.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	assert.ErrorIs(t, messages.Delete(ctx, msg.ID), service.ErrNotFound)
}

func TestMessageRepository_DeleteExpired(t *testing.T) {
	_, messages := openTestDB(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Minute)
	volatile := &model.Message{
		ID: uuid.New(), SenderID: uuid.New(), RecipientID: uuid.New(),
		Text: "gone", IsVolatile: true, ExpiresAt: &past,
	}
	durable := &model.Message{ID: uuid.New(), SenderID: uuid.New(), RecipientID: uuid.New(), Text: "kept"}
	require.NoError(t, messages.Create(ctx, volatile))
	require.NoError(t, messages.Create(ctx, durable))

	n, err := messages.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = messages.ByID(ctx, durable.ID)
	assert.NoError(t, err)
}

func TestJanitor_SweepsOnStart(t *testing.T) {
	users, messages := openTestDB(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Minute)
	guest := newUser("Guest_dead")
	guest.IsGuest = true
	guest.ExpiresAt = &past
	require.NoError(t, users.Create(ctx, guest))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	janitor := storage.NewJanitor(users, messages, time.Hour, logger)
	janitor.Start()
	defer janitor.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := users.ByID(ctx, guest.ID); err != nil {
			assert.ErrorIs(t, err, service.ErrNotFound)
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("janitor did not reclaim the expired guest")
}
