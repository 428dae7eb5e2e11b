package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidechat/tidechat/internal/adapter/blob"
	"github.com/tidechat/tidechat/internal/domain/model"
)

const (
	// GuestAccountTTL is the fixed lifetime of an unregistered guest account.
	GuestAccountTTL = time.Hour

	guestPrefix       = "Guest_"
	minPasswordLength = 6
)

var (
	// ErrInvalidCredentials is returned on any login failure, deliberately
	// indistinguishable between unknown user and wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingFields is returned when username or password is empty.
	ErrMissingFields = errors.New("all fields are required")
	// ErrWeakPassword is returned when the password is too short.
	ErrWeakPassword = errors.New("password must be at least 6 characters")
	// ErrReservedUsername is returned when a registration claims the guest
	// namespace.
	ErrReservedUsername = errors.New("username cannot start with Guest_")
	// ErrInvalidUsername is returned when the username carries characters
	// outside the allowed set.
	ErrInvalidUsername = errors.New("username can only contain letters, numbers, hyphens, and underscores")
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9-_]+$`)

// Auther is the credential subsystem: account registration, login and
// session inspection.
type Auther interface {
	Signup(ctx context.Context, username, password string) (*model.User, string, error)
	Login(ctx context.Context, username, password string) (*model.User, string, error)
	Guest(ctx context.Context) (*model.User, string, error)
	Inspect(ctx context.Context, token string) (*model.User, error)
	UpdateProfilePic(ctx context.Context, userID uuid.UUID, imageData string) (*model.User, error)
}

type AuthService struct {
	users  UserStore
	hasher *PasswordHasher
	tokens *TokenManager
	blobs  blob.Uploader
	logger *slog.Logger
}

func NewAuthService(users UserStore, hasher *PasswordHasher, tokens *TokenManager, blobs blob.Uploader, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		blobs:  blobs,
		logger: logger,
	}
}

// Signup registers a durable account and issues a session token.
func (s *AuthService) Signup(ctx context.Context, username, password string) (*model.User, string, error) {
	if username == "" || password == "" {
		return nil, "", ErrMissingFields
	}
	if len(password) < minPasswordLength {
		return nil, "", ErrWeakPassword
	}
	if strings.HasPrefix(username, guestPrefix) {
		return nil, "", ErrReservedUsername
	}
	if !usernamePattern.MatchString(username) {
		return nil, "", ErrInvalidUsername
	}

	if _, err := s.users.ByUsername(ctx, username); err == nil {
		return nil, "", ErrUserExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, "", fmt.Errorf("check username: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:       uuid.New(),
		Username: username,
		Password: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", username)
	return user, token, nil
}

// Login verifies credentials for a registered account. Guests cannot log
// back in; their session ends with the account.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	user, err := s.users.ByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}
	if user.IsGuest {
		return nil, "", ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, user.Password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// Guest creates a throwaway account with a generated Guest_ username and a
// GuestAccountTTL expiry. The random password is never revealed, so the
// account dies with its session token.
func (s *AuthService) Guest(ctx context.Context) (*model.User, string, error) {
	hash, err := s.hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	expires := time.Now().Add(GuestAccountTTL)
	user := &model.User{
		ID:        uuid.New(),
		Username:  guestPrefix + uuid.NewString()[:8],
		Password:  hash,
		IsGuest:   true,
		ExpiresAt: &expires,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create guest: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("guest created", "user_id", user.ID, "username", user.Username, "expires_at", expires)
	return user, token, nil
}

// Inspect resolves a session token to its account. Expired guest accounts
// fail inspection even before the janitor reclaims the record.
func (s *AuthService) Inspect(ctx context.Context, token string) (*model.User, error) {
	userID, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user.Expired(time.Now()) {
		return nil, ErrExpiredToken
	}
	return user, nil
}

// UpdateProfilePic uploads the image to blob storage and stores the durable
// URL on the account.
func (s *AuthService) UpdateProfilePic(ctx context.Context, userID uuid.UUID, imageData string) (*model.User, error) {
	if imageData == "" {
		return nil, errors.New("profile pic is required")
	}

	url, err := s.blobs.Upload(ctx, imageData)
	if err != nil {
		return nil, fmt.Errorf("profile pic upload: %w", err)
	}

	return s.users.UpdateProfilePic(ctx, userID, url)
}
