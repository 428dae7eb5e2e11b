// Package client is the Go SDK for the chat service: a thin REST client,
// a realtime socket for server-pushed events, and a conversation
// synchronizer that keeps a local message list consistent with both.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
)

// Client talks to the chat service's REST surface. It carries the session
// cookie issued at signup/login and reuses it for the realtime socket.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

func New(baseURL string) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	return &Client{
		baseURL: parsed,
		http:    &http.Client{Jar: jar},
	}, nil
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signup registers an account and signs in.
func (c *Client) Signup(ctx context.Context, username, password string) (*User, error) {
	var user User
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", credentials{username, password}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login signs in to an existing account.
func (c *Client) Login(ctx context.Context, username, password string) (*User, error) {
	var user User
	err := c.do(ctx, http.MethodPost, "/api/auth/login", credentials{username, password}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Guest creates a throwaway time-limited account and signs in.
func (c *Client) Guest(ctx context.Context) (*User, error) {
	var user User
	err := c.do(ctx, http.MethodPost, "/api/auth/guest", nil, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// Check returns the account bound to the current session.
func (c *Client) Check(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/api/auth/check", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Contacts lists every other account.
func (c *Client) Contacts(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/api/messages/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// History fetches the conversation with the given counterpart.
func (c *Client) History(ctx context.Context, counterpartID string) ([]Message, error) {
	var msgs []Message
	if err := c.do(ctx, http.MethodGet, "/api/messages/"+counterpartID, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

type sendRequest struct {
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

// Send posts a message to the counterpart and returns the persisted record.
func (c *Client) Send(ctx context.Context, recipientID, text, imageData string) (*Message, error) {
	var msg Message
	err := c.do(ctx, http.MethodPost, "/api/messages/send/"+recipientID, sendRequest{text, imageData}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// Delete removes a message this client sent.
func (c *Client) Delete(ctx context.Context, messageID string) error {
	return c.do(ctx, http.MethodDelete, "/api/messages/"+messageID, nil, nil)
}

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<22))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var decoded struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(payload, &decoded) == nil && decoded.Message != "" {
			apiErr.Message = decoded.Message
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// sessionCookies exposes the jar for the realtime dial.
func (c *Client) sessionCookies() ([]*http.Cookie, error) {
	if c.http.Jar == nil {
		return nil, errors.New("client has no cookie jar")
	}
	return c.http.Jar.Cookies(c.baseURL), nil
}
