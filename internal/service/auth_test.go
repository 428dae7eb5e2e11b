package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidechat/tidechat/internal/service"
	"github.com/tidechat/tidechat/internal/test/fakes"
)

type authFixture struct {
	users    *fakes.UserStore
	uploader *fakes.Uploader
	tokens   *service.TokenManager
	svc      *service.AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:    fakes.NewUserStore(),
		uploader: fakes.NewUploader("https://blobs.example/avatar.png"),
		tokens: service.NewTokenManager(service.TokenConfig{
			Secret:   "test-secret",
			Lifetime: time.Hour,
			Issuer:   "tidechat",
		}),
	}
	f.svc = service.NewAuthService(f.users, service.NewPasswordHasher(), f.tokens, f.uploader, discardLogger())
	return f
}

func TestAuthService_SignupAndLogin(t *testing.T) {
	f := newAuthFixture(t)

	user, token, err := f.svc.Signup(context.Background(), "alice", "s3cret-pw")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.False(t, user.IsGuest)
	assert.NotEqual(t, "s3cret-pw", user.Password, "password must be stored hashed")

	loggedIn, token2, err := f.svc.Login(context.Background(), "alice", "s3cret-pw")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotEmpty(t, token2)
}

func TestAuthService_SignupValidation(t *testing.T) {
	f := newAuthFixture(t)

	tests := []struct {
		name     string
		username string
		password string
		want     error
	}{
		{"missing username", "", "s3cret-pw", service.ErrMissingFields},
		{"missing password", "alice", "", service.ErrMissingFields},
		{"short password", "alice", "12345", service.ErrWeakPassword},
		{"reserved prefix", "Guest_alice", "s3cret-pw", service.ErrReservedUsername},
		{"bad characters", "alice!", "s3cret-pw", service.ErrInvalidUsername},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.svc.Signup(context.Background(), tt.username, tt.password)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuthService_SignupDuplicateUsername(t *testing.T) {
	f := newAuthFixture(t)

	_, _, err := f.svc.Signup(context.Background(), "alice", "s3cret-pw")
	require.NoError(t, err)

	_, _, err = f.svc.Signup(context.Background(), "alice", "other-pw")
	assert.ErrorIs(t, err, service.ErrUserExists)
}

func TestAuthService_LoginFailuresAreUniform(t *testing.T) {
	f := newAuthFixture(t)

	_, _, err := f.svc.Signup(context.Background(), "alice", "s3cret-pw")
	require.NoError(t, err)

	_, _, err = f.svc.Login(context.Background(), "alice", "wrong-pw")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, _, err = f.svc.Login(context.Background(), "nobody", "s3cret-pw")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestAuthService_GuestAccount(t *testing.T) {
	f := newAuthFixture(t)

	before := time.Now()
	guest, token, err := f.svc.Guest(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.True(t, guest.IsGuest)
	assert.True(t, strings.HasPrefix(guest.Username, "Guest_"))
	require.NotNil(t, guest.ExpiresAt)
	assert.InDelta(t, service.GuestAccountTTL.Seconds(), guest.ExpiresAt.Sub(before).Seconds(), 5)

	// Guests cannot log back in even with a guessed username.
	_, _, err = f.svc.Login(context.Background(), guest.Username, "anything")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestAuthService_InspectRoundTrip(t *testing.T) {
	f := newAuthFixture(t)

	user, token, err := f.svc.Signup(context.Background(), "alice", "s3cret-pw")
	require.NoError(t, err)

	inspected, err := f.svc.Inspect(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, inspected.ID)
}

func TestAuthService_InspectRejectsGarbage(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Inspect(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestAuthService_InspectExpiredGuest(t *testing.T) {
	f := newAuthFixture(t)

	guest, token, err := f.svc.Guest(context.Background())
	require.NoError(t, err)

	// Backdate the account past its lifetime; the token itself is still
	// cryptographically valid.
	expired := time.Now().Add(-time.Minute)
	guest.ExpiresAt = &expired
	f.users.Overwrite(guest)

	_, err = f.svc.Inspect(context.Background(), token)
	assert.ErrorIs(t, err, service.ErrExpiredToken)
}

func TestAuthService_UpdateProfilePic(t *testing.T) {
	f := newAuthFixture(t)

	user, _, err := f.svc.Signup(context.Background(), "alice", "s3cret-pw")
	require.NoError(t, err)

	updated, err := f.svc.UpdateProfilePic(context.Background(), user.ID, "data:image/png;base64,aGk=")
	require.NoError(t, err)
	assert.Equal(t, "https://blobs.example/avatar.png", updated.ProfilePic)
}

func TestTokenManager_ValidateWrongSecret(t *testing.T) {
	issuer := service.NewTokenManager(service.TokenConfig{Secret: "one", Lifetime: time.Hour, Issuer: "tidechat"})
	other := service.NewTokenManager(service.TokenConfig{Secret: "two", Lifetime: time.Hour, Issuer: "tidechat"})

	token, err := issuer.Issue(uuid.New())
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestTokenManager_ValidateExpired(t *testing.T) {
	m := service.NewTokenManager(service.TokenConfig{Secret: "one", Lifetime: -time.Minute, Issuer: "tidechat"})

	token, err := m.Issue(uuid.New())
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.ErrorIs(t, err, service.ErrExpiredToken)
}
