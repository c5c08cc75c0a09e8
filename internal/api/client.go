package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mqnguyen/collab-notify/internal/model"
)

// AuthError indicates that the platform rejected the API token.
// It is returned when a 401 response is received.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s", e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Client is a thin HTTP client for the collaboration platform's
// notification endpoints. It handles Bearer token authentication, JSON
// marshaling, and automatic retry with exponential backoff on HTTP 429.
type Client struct {
	baseURL    string
	token      string
	clientID   string
	httpClient *http.Client
	maxRetries int
}

// NewClient creates a new platform API client. The baseURL should be
// the root URL of the platform (e.g. https://hub.example.org). The
// clientID identifies this device in poll and handshake requests.
func NewClient(baseURL, token, clientID string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		clientID: clientID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
	}
}

// ClientID returns the device identifier sent with every request.
func (c *Client) ClientID() string {
	return c.clientID
}

// SocketURL resolves the websocket endpoint from the base URL and the
// configured socket path, switching the scheme to ws/wss and attaching
// the client id.
func (c *Client) SocketURL(socketPath string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL %q: %w", c.baseURL, err)
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported scheme %q in base URL", u.Scheme)
	}

	u.Path = socketPath
	q := u.Query()
	q.Set("client_id", c.clientID)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// AuthHeader returns the headers carried on the websocket handshake.
func (c *Client) AuthHeader() http.Header {
	h := http.Header{}
	if c.token != "" {
		h.Set("Authorization", "Bearer "+c.token)
	}
	return h
}

// LoadHistory fetches the full notification history from the
// initial-load endpoint. Each item carries a read flag reflecting the
// server's recorded read state.
func (c *Client) LoadHistory(ctx context.Context) ([]model.Payload, error) {
	var items []model.Payload
	if err := c.get(ctx, "/api/notifications", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// PollLatest fetches notifications newer than the given instant from
// the poll endpoint. Used only while the push channel is down.
func (c *Client) PollLatest(ctx context.Context, since time.Time) ([]model.Payload, error) {
	path := "/api/notifications/latest"
	if !since.IsZero() {
		path += "?since=" + url.QueryEscape(since.UTC().Format(time.RFC3339))
	}

	var items []model.Payload
	if err := c.get(ctx, path, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// MarkRead reports a locally-read notification back to the server so
// the read state survives a resync from another device. Best effort:
// callers treat failures as non-fatal.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	path := fmt.Sprintf("/api/notifications/%s/read", url.PathEscape(id))
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// MarkAllRead reports a bulk mark-all-read to the server. Best effort.
func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/notifications/read-all", nil, nil)
}

// get performs an HTTP GET request and unmarshals the JSON response.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// do is the core HTTP method that builds the request, handles auth,
// rate limiting with exponential backoff, and JSON (de)serialization.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
	reqURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = strings.NewReader(string(data))
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		// Rebuild the body reader on retries since it was consumed.
		if attempt > 0 && body != nil {
			data, _ := json.Marshal(body)
			bodyReader = strings.NewReader(string(data))
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Client-ID", c.clientID)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing request %s %s: %w", method, path, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			waitDuration := retryAfterDuration(resp, attempt)
			lastErr = fmt.Errorf("rate limited (429) on %s %s", method, path)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitDuration):
				continue
			}
		}

		if resp.StatusCode == http.StatusUnauthorized {
			return &AuthError{
				Message: fmt.Sprintf("token rejected by %s", c.baseURL),
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf(
				"unexpected status %d on %s %s: %s",
				resp.StatusCode, method, path, string(respBody),
			)
		}

		// No content to parse (e.g. 204).
		if result == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf(
				"unmarshaling response from %s %s: %w",
				method, path, err,
			)
		}

		return nil
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
