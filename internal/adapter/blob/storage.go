// Package blob talks to the external blob storage provider: it accepts an
// uploaded image (base64 data URL) and returns a durable public URL.
package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// Uploader is the boundary contract the services consume.
type Uploader interface {
	Upload(ctx context.Context, imageData string) (string, error)
}

// Store uploads images over HTTP. The provider is an external collaborator
// with its own availability; calls run through a circuit breaker so a
// provider outage fails sends fast instead of piling up handler goroutines.
type Store struct {
	endpoint string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	logger   *slog.Logger
}

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

func NewStore(cfg Config, logger *slog.Logger) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "blob-storage",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("blob breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &Store{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: timeout},
		breaker:  breaker,
		logger:   logger,
	}
}

type uploadRequest struct {
	Data string `json:"data"`
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     string `json:"error,omitempty"`
}

// Upload sends the image to the provider and returns the durable URL.
func (s *Store) Upload(ctx context.Context, imageData string) (string, error) {
	res, err := s.breaker.Execute(func() (any, error) {
		return s.upload(ctx, imageData)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

func (s *Store) upload(ctx context.Context, imageData string) (string, error) {
	body, err := json.Marshal(uploadRequest{Data: imageData})
	if err != nil {
		return "", fmt.Errorf("encode upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("blob upload: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("blob upload: provider returned %d", resp.StatusCode)
	}

	var decoded uploadResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if decoded.SecureURL == "" {
		return "", fmt.Errorf("blob upload: provider returned no URL (%s)", decoded.Error)
	}

	return decoded.SecureURL, nil
}
