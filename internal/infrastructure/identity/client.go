// Package identity is the task service's client for the identity service's
// user lookup endpoint.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/taskhub/platform/internal/core/domain"
)

// maxBodyBytes caps how much of a lookup response is read.
const maxBodyBytes = 64 << 10

// Client looks users up over HTTP. It applies no timeout of its own; the
// caller's context bounds every request.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client for the identity service at baseURL. A nil
// httpClient uses a dedicated client with default transport settings.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// FindByUsername implements ports.IdentityLookup.
func (c *Client) FindByUsername(ctx context.Context, username, authorization string) (*domain.User, error) {
	endpoint := c.baseURL + "/users/" + url.PathEscape(username)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("identity lookup: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity lookup: %w", err)
	}
	defer func() {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, domain.ErrUserNotFound
	default:
		return nil, fmt.Errorf("identity lookup: unexpected status %d", resp.StatusCode)
	}

	var body userResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("identity lookup: decode: %w", err)
	}
	if body.ID <= 0 {
		return nil, errors.New("identity lookup: response carries no id")
	}

	return &domain.User{ID: body.ID, Username: body.Username, Role: body.Role}, nil
}
