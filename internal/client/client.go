// Copyright (c) 2026 Taskora. All rights reserved.
// Author: dev@taskora.app

/*
Package client is the device-side consumer of the Taskora API.

It mirrors what the mobile app does: cache the session durably, attach the
bearer token to every request, and honor the server's force-logout protocol.

# Force-Logout Protocol

The server keeps exactly one active session per account. When a login on
another device supersedes this one, the next request here is rejected with
the FORCE_LOGOUT code. The client then purges its cached session exactly
once, flips to the unauthenticated state, and notifies an optional callback
so the UI can return to the login screen. No other error is destructive:
plain 401s leave the cache alone and surface as retryable errors.
*/
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/taskora/taskora/internal/client/session"
)

// # Wire Types

// Profile is the public account representation returned by the server.
type Profile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// Task mirrors the server's task resource.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskUpdate is a partial task update. Nil fields are left untouched.
type TaskUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// RegisterInput holds the fields for account creation.
type RegisterInput struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
}

// LoginInput holds login credentials. Fill the identity field the server's
// deployment expects; the other may stay empty.
type LoginInput struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password"`
}

type loginResult struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user"`
}

// # Client

// State is the client's authentication state.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
)

// Client is a stateful API client bound to a local session cache.
//
// It is safe for concurrent use. The token is read from the cache
// immediately before each request, so an external purge (or a concurrent
// force-logout) takes effect on the very next call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *session.Store

	mu            sync.Mutex
	state         State
	purgedToken   string
	onForceLogout func()
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithForceLogoutHandler registers a callback invoked (once per forced
// logout) after the session cache has been purged.
func WithForceLogoutHandler(fn func()) Option {
	return func(c *Client) { c.onForceLogout = fn }
}

// New constructs a Client talking to baseURL, persisting its session in store.
func New(baseURL string, store *session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		store:      store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current authentication state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// # Session Lifecycle

// Register creates a new account. Registration does not log in.
func (c *Client) Register(ctx context.Context, input RegisterInput) (*Profile, error) {
	var profile Profile
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", input, &profile, false); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Login authenticates and caches the resulting session. From the server's
// point of view this device now holds the account's ONE active session;
// whatever device was logged in before will be force-logged-out on its next
// request.
func (c *Client) Login(ctx context.Context, input LoginInput) (*Profile, error) {
	var result loginResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", input, &result, false); err != nil {
		return nil, err
	}

	sess := session.Session{
		Token:   result.Token,
		User:    result.User,
		SavedAt: time.Now(),
	}
	if err := c.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("client: persist session: %w", err)
	}

	c.mu.Lock()
	c.state = StateAuthenticated
	c.purgedToken = ""
	c.mu.Unlock()

	var profile Profile
	if err := json.Unmarshal(result.User, &profile); err != nil {
		return nil, fmt.Errorf("client: decode profile: %w", err)
	}
	return &profile, nil
}

// Logout revokes the server-side session, then purges the local cache.
//
// The local purge happens even when the revoke call fails: a superseded
// token cannot revoke anything anyway, and the user asked to be logged out
// of THIS device.
func (c *Client) Logout(ctx context.Context) error {
	revokeErr := c.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil, true)

	// A forced logout during the call already purged the cache.
	if apiErr := AsAPIError(revokeErr); apiErr != nil && apiErr.IsForceLogout() {
		return nil
	}

	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("client: clear session: %w", err)
	}

	c.mu.Lock()
	c.state = StateUnauthenticated
	c.mu.Unlock()

	if revokeErr != nil && !errors.Is(revokeErr, ErrNotAuthenticated) {
		return revokeErr
	}
	return nil
}

// WhoAmI returns the locally cached profile, if any. It does not hit the
// network: the cache is the device's memory of who is logged in.
func (c *Client) WhoAmI(ctx context.Context) (*Profile, bool, error) {
	sess, ok, err := c.store.Load(ctx)
	if err != nil || !ok {
		return nil, false, err
	}

	var profile Profile
	if err := json.Unmarshal(sess.User, &profile); err != nil {
		return nil, false, fmt.Errorf("client: decode cached profile: %w", err)
	}
	return &profile, true, nil
}

// # Task Operations

// Tasks lists the caller's tasks.
func (c *Client) Tasks(ctx context.Context) ([]Task, error) {
	var tasks []Task
	if err := c.do(ctx, http.MethodGet, "/api/v1/tasks", nil, &tasks, true); err != nil {
		return nil, err
	}
	return tasks, nil
}

// AddTask creates a new pending task.
func (c *Client) AddTask(ctx context.Context, title, description string) (*Task, error) {
	body := map[string]string{"title": title, "description": description}
	var created Task
	if err := c.do(ctx, http.MethodPost, "/api/v1/tasks", body, &created, true); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateTask applies a partial update to one of the caller's tasks.
func (c *Client) UpdateTask(ctx context.Context, taskID string, update TaskUpdate) (*Task, error) {
	var updated Task
	if err := c.do(ctx, http.MethodPut, "/api/v1/tasks/"+taskID, update, &updated, true); err != nil {
		return nil, err
	}
	return &updated, nil
}

// CompleteTask marks a task as completed.
func (c *Client) CompleteTask(ctx context.Context, taskID string) (*Task, error) {
	status := "completed"
	return c.UpdateTask(ctx, taskID, TaskUpdate{Status: &status})
}

// DeleteTask removes one of the caller's tasks.
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/tasks/"+taskID, nil, nil, true)
}

// # Transport

type successEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type errorEnvelope struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// do performs one API round trip. When authed, the bearer token is loaded
// from the cache immediately before the request so the freshest token is
// always presented.
func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {

	var token string
	if authed {
		sess, ok, err := c.store.Load(ctx)
		if err != nil {
			return fmt.Errorf("client: load session: %w", err)
		}
		if !ok {
			return ErrNotAuthenticated
		}
		token = sess.Token

		// Holding a cached token means this device considers itself logged in.
		c.mu.Lock()
		c.state = StateAuthenticated
		c.mu.Unlock()
	}

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	if response.StatusCode >= 400 {
		var envelope errorEnvelope
		_ = json.NewDecoder(response.Body).Decode(&envelope)

		apiErr := &APIError{
			StatusCode: response.StatusCode,
			Code:       envelope.Code,
			Message:    envelope.Error,
		}

		if apiErr.IsForceLogout() {
			c.handleForceLogout(ctx, token)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}

	var envelope successEnvelope
	if err := json.NewDecoder(response.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("client: decode payload: %w", err)
	}
	return nil
}

// handleForceLogout purges the session at most once per forced logout, even
// when several in-flight requests are rejected concurrently. The first
// caller through the gate clears the cache and notifies; the rest see the
// unauthenticated state, or a token already purged, and do nothing.
func (c *Client) handleForceLogout(ctx context.Context, token string) {
	c.mu.Lock()
	if c.state != StateAuthenticated || token == c.purgedToken {
		c.mu.Unlock()
		return
	}
	c.state = StateUnauthenticated
	c.purgedToken = token
	callback := c.onForceLogout
	c.mu.Unlock()

	// Purge failure leaves a token that the server will keep rejecting;
	// the next force-logout round trip retries the purge.
	_ = c.store.Clear(ctx)

	if callback != nil {
		callback()
	}
}
