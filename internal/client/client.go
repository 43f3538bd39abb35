// Package client is the session-aware HTTP client for the todo API. It
// keeps the token and profile in a SessionStore, attaches the token to every
// request and drops the session whenever the server rejects it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Ayala-Braverman/practicod3-1/internal/model"
)

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// Is lets callers match API errors against the service error taxonomy.
func (e *APIError) Is(target error) bool {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return target == model.ErrInvalidInput
	case http.StatusConflict:
		return target == model.ErrDuplicateUser
	case http.StatusUnauthorized:
		return target == model.ErrUnauthenticated || target == model.ErrInvalidCredentials
	case http.StatusNotFound:
		return target == model.ErrNotFound
	}
	return false
}

// Client talks to the API on behalf of the stored session.
type Client struct {
	baseURL           string
	http              *http.Client
	store             SessionStore
	onUnauthenticated func()
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// OnUnauthenticated registers a callback fired after the server rejected the
// stored token and the session was cleared; views use it to return to the
// login entry point. A failed login or register does not fire it.
func OnUnauthenticated(fn func()) Option {
	return func(c *Client) { c.onUnauthenticated = fn }
}

// New creates a Client for the API rooted at baseURL (e.g. http://localhost:8080/api).
func New(baseURL string, store SessionStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		store:   store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type credentials struct {
	UserName     string `json:"userName"`
	PasswordHash string `json:"passwordHash"`
}

type authResponse struct {
	Token string            `json:"token"`
	User  model.UserProfile `json:"user"`
}

// Register creates an account and stores the resulting session.
func (c *Client) Register(ctx context.Context, userName, password string) (*model.UserProfile, error) {
	return c.authenticate(ctx, "/auth/register", userName, password)
}

// Login authenticates and stores the resulting session.
func (c *Client) Login(ctx context.Context, userName, password string) (*model.UserProfile, error) {
	return c.authenticate(ctx, "/auth/login", userName, password)
}

func (c *Client) authenticate(ctx context.Context, path, userName, password string) (*model.UserProfile, error) {
	var res authResponse
	if err := c.do(ctx, http.MethodPost, path, credentials{UserName: userName, PasswordHash: password}, &res); err != nil {
		return nil, err
	}
	user := res.User
	if err := c.store.Save(Session{Token: res.Token, User: &user}); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &user, nil
}

// Logout discards the stored session.
func (c *Client) Logout() error {
	return c.store.Clear()
}

// CurrentUser returns the stored profile, or nil when anonymous.
func (c *Client) CurrentUser() (*model.UserProfile, error) {
	s, err := c.store.Load()
	if err != nil {
		return nil, err
	}
	if !s.Authenticated() {
		return nil, nil
	}
	return s.User, nil
}

// Tasks lists the current user's tasks.
func (c *Client) Tasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, "/items", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Task fetches one task.
func (c *Client) Task(ctx context.Context, id int64) (*model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodGet, itemPath(id), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// AddTask creates an incomplete task.
func (c *Client) AddTask(ctx context.Context, name string) (*model.Task, error) {
	var task model.Task
	body := map[string]any{"name": name, "isComplete": false}
	if err := c.do(ctx, http.MethodPost, "/items", body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// SetComplete changes only the completion flag.
func (c *Client) SetComplete(ctx context.Context, id int64, isComplete bool) error {
	return c.do(ctx, http.MethodPut, itemPath(id), map[string]any{"isComplete": isComplete}, nil)
}

// UpdateTask changes name and completion flag.
func (c *Client) UpdateTask(ctx context.Context, id int64, name string, isComplete bool) error {
	return c.do(ctx, http.MethodPut, itemPath(id), map[string]any{"name": name, "isComplete": isComplete}, nil)
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, itemPath(id), nil, nil)
}

func itemPath(id int64) string {
	return "/items/" + strconv.FormatInt(id, 10)
}

// do sends one request through the interceptors and decodes a JSON body
// into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	withToken, err := c.authorize(req)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if err := c.checkResponse(resp, withToken && !isAuthPath(path)); err != nil {
		return err
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// authorize is the request interceptor: it attaches the stored token and
// reports whether there was one.
func (c *Client) authorize(req *http.Request) (bool, error) {
	s, err := c.store.Load()
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	if s.Token == "" {
		return false, nil
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)
	return true, nil
}

func isAuthPath(path string) bool {
	return strings.HasPrefix(path, "/auth/")
}

// checkResponse is the response hook. Any 401 is treated as a logout;
// sessionRejected is set when the 401 answered a request authorized by the
// stored token, which is the only case the callback hears about.
func (c *Client) checkResponse(resp *http.Response, sessionRejected bool) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var payload struct {
		Error string `json:"error"`
	}
	if b, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); err == nil {
		if json.Unmarshal(b, &payload) == nil {
			apiErr.Message = payload.Error
		}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if err := c.store.Clear(); err != nil {
			return errors.Join(apiErr, fmt.Errorf("clear session: %w", err))
		}
		if sessionRejected && c.onUnauthenticated != nil {
			c.onUnauthenticated()
		}
	}
	return apiErr
}
