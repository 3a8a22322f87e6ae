// Package api wraps the back-office REST API the console renders from.
// It is a thin client: base URL and bearer token injection, JSON bodies,
// no retries and no caching.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/meridian-admin/meridian/internal/roles"
	"github.com/meridian-admin/meridian/internal/users"
)

// Client issues authenticated requests against the back-office API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option adjusts client construction.
type Option func(*Client)

// WithTimeout overrides the default 30s request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient constructs a client for the given base URL. The token, when
// non-empty, is sent as a bearer Authorization header on every request.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Error is a failed API call. Message carries the server-provided text when
// the response body had one.
type Error struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api: status %d", e.StatusCode)
}

// UserMessage returns the server-provided message for display, if any.
func (e *Error) UserMessage() string {
	return e.Message
}

type userEnvelope struct {
	User users.User `json:"user"`
}

// ListUsers fetches the full user roster. Both `{"users": [...]}` and a
// bare array are accepted.
func (c *Client) ListUsers(ctx context.Context) ([]users.User, error) {
	raw, err := c.do(ctx, http.MethodGet, "/users", nil)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Users []users.User `json:"users"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Users != nil {
		return envelope.Users, nil
	}
	var list []users.User
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("api: decode users: %w", err)
	}
	return list, nil
}

// CreateUser posts a new user and returns the server record.
func (c *Client) CreateUser(ctx context.Context, input users.Input) (users.User, error) {
	raw, err := c.do(ctx, http.MethodPost, "/users", input)
	if err != nil {
		return users.User{}, err
	}
	return decodeUser(raw)
}

// UpdateUser replaces a user record and returns the server echo.
func (c *Client) UpdateUser(ctx context.Context, id string, input users.Input) (users.User, error) {
	raw, err := c.do(ctx, http.MethodPut, "/users/"+id, input)
	if err != nil {
		return users.User{}, err
	}
	return decodeUser(raw)
}

// DeleteUser removes a user by identifier.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/users/"+id, nil)
	return err
}

// ListRoles fetches all roles.
func (c *Client) ListRoles(ctx context.Context) ([]roles.Role, error) {
	raw, err := c.do(ctx, http.MethodGet, "/roles", nil)
	if err != nil {
		return nil, err
	}
	var list []roles.Role
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("api: decode roles: %w", err)
	}
	return list, nil
}

// CreateRole posts a new role with its full permission mapping.
func (c *Client) CreateRole(ctx context.Context, input roles.Input) (roles.Role, error) {
	raw, err := c.do(ctx, http.MethodPost, "/roles", input)
	if err != nil {
		return roles.Role{}, err
	}
	return decodeRole(raw)
}

// UpdateRole replaces a role record.
func (c *Client) UpdateRole(ctx context.Context, id string, input roles.Input) (roles.Role, error) {
	raw, err := c.do(ctx, http.MethodPut, "/roles/"+id, input)
	if err != nil {
		return roles.Role{}, err
	}
	return decodeRole(raw)
}

// DeleteRole removes a role by identifier.
func (c *Client) DeleteRole(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/roles/"+id, nil)
	return err
}

func decodeUser(raw []byte) (users.User, error) {
	var envelope userEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.User.ID != "" {
		return envelope.User, nil
	}
	var user users.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return users.User{}, fmt.Errorf("api: decode user: %w", err)
	}
	return user, nil
}

func decodeRole(raw []byte) (roles.Role, error) {
	var role roles.Role
	if err := json.Unmarshal(raw, &role); err != nil {
		return roles.Role{}, fmt.Errorf("api: decode role: %w", err)
	}
	return role, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("api: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, &Error{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}
	return raw, nil
}

// errorMessage pulls the optional human-readable message out of an error
// body. Anything unparseable yields an empty message.
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
