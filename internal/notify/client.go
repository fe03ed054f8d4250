package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// REST client for the notification backend. Used for authoritative
// reconciliation reads and for forwarding the optimistic mutations
// (mark read, mark all read, delete) to the server.

const (
	requestTimeout = 10 * time.Second

	// refresh throttle: bursts of on-demand refreshes (e.g. a panel being
	// reopened repeatedly) collapse into at most one request per interval
	refreshInterval = 2 * time.Second
	refreshBurst    = 3
)

// APIClient talks to the notification REST endpoints
type APIClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewAPIClient creates a client for the given base URL
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		limiter: rate.NewLimiter(rate.Every(refreshInterval), refreshBurst),
	}
}

// SetToken sets the bearer token used on subsequent requests
func (c *APIClient) SetToken(token string) {
	c.token = token
}

// credentialsRequest is the login/register body
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is the auth endpoints' response
type TokenResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Post is the referenced post returned by the post-resolution endpoint
type Post struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CallRecord is one entry of a chat room's call history
type CallRecord struct {
	CallID    int64     `json:"call_id"`
	Caller    string    `json:"caller"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// Register creates an account and returns a token
func (c *APIClient) Register(ctx context.Context, username, password string) (*TokenResponse, error) {
	var out TokenResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/register", credentialsRequest{Username: username, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates and returns a token
func (c *APIClient) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	var out TokenResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", credentialsRequest{Username: username, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchRecent performs one authoritative fetch of the newest notifications,
// newest first. A notification whose payload does not decode is skipped, the
// rest of the snapshot is still usable.
func (c *APIClient) FetchRecent(ctx context.Context, limit int) ([]Notification, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var out struct {
		Notifications []wireNotification `json:"notifications"`
	}
	path := fmt.Sprintf("/notifications/?limit=%d", limit)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}

	list := make([]Notification, 0, len(out.Notifications))
	for i := range out.Notifications {
		n, err := out.Notifications[i].decode()
		if err != nil {
			continue
		}
		list = append(list, n)
	}
	return list, nil
}

// Publish asks the backend to create a notification for another user and
// push it to their live stream connections. Dev tooling only; the sender
// identity is taken from the token server-side.
func (c *APIClient) Publish(ctx context.Context, to string, payload Payload) error {
	body := struct {
		To      string  `json:"to"`
		Payload Payload `json:"payload"`
	}{To: to, Payload: payload}
	return c.doJSON(ctx, http.MethodPost, "/notifications/", body, nil)
}

// MarkRead marks one notification read server-side
func (c *APIClient) MarkRead(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/notifications/%d/read/", id), nil, nil)
}

// MarkAllRead marks every notification read server-side
func (c *APIClient) MarkAllRead(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/notifications/mark-all-read/", nil, nil)
}

// Delete removes one notification server-side
func (c *APIClient) Delete(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/notifications/%d/", id), nil, nil)
}

// ResolvePost fetches the post a notification refers to, for previews
func (c *APIClient) ResolvePost(ctx context.Context, id int64) (*Post, error) {
	var out Post
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/posts/%d/", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CallHistory fetches a chat room's call history, newest first. Used to
// resolve the current status of a referenced call.
func (c *APIClient) CallHistory(ctx context.Context, roomID int64) ([]CallRecord, error) {
	var out struct {
		Calls []CallRecord `json:"calls"`
	}
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/chatrooms/%d/call-history/", roomID), nil, &out); err != nil {
		return nil, err
	}
	return out.Calls, nil
}

// doJSON performs one request with optional JSON body and optional JSON
// response decoding
func (c *APIClient) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
