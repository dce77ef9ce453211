// Package remote talks to a taskly server over HTTP.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tgienger/taskly/internal/api"
	"github.com/tgienger/taskly/internal/auth"
	"github.com/tgienger/taskly/internal/models"
)

// DefaultTimeout bounds a single request when the caller's context has no
// earlier deadline.
const DefaultTimeout = 10 * time.Second

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Is maps status codes onto the sentinel errors callers already check for.
func (e *APIError) Is(target error) bool {
	switch e.Status {
	case http.StatusUnauthorized:
		return target == auth.ErrInvalidToken
	case http.StatusNotFound:
		return target == models.ErrNotFound
	case http.StatusConflict:
		return target == auth.ErrEmailTaken
	}
	return false
}

// Client is an HTTP client for the taskly API. It implements auth.Provider.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *fiber.Client
}

// New creates a client for the server at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http:    &fiber.Client{UserAgent: "taskly"},
	}
}

// Health checks that the server is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, c.http.Get(c.url("/health")), "", nil)
}

// SignUp registers an account and signs in with it.
func (c *Client) SignUp(ctx context.Context, email, password string) (auth.Identity, error) {
	a := c.http.Post(c.url("/api/v1/auth/register")).
		JSON(api.RegisterRequest{Email: email, Password: password})
	if err := c.do(ctx, a, "", nil); err != nil {
		return auth.Identity{}, err
	}
	return c.SignIn(ctx, email, password)
}

// SignIn exchanges credentials for a token.
func (c *Client) SignIn(ctx context.Context, email, password string) (auth.Identity, error) {
	var resp api.TokenResponse
	a := c.http.Post(c.url("/api/v1/auth/login")).
		JSON(api.LoginRequest{Email: email, Password: password})
	if err := c.do(ctx, a, "", &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return auth.Identity{}, auth.ErrInvalidCredentials
		}
		return auth.Identity{}, err
	}

	return auth.Identity{
		UserID:    resp.User.ID,
		Email:     resp.User.Email,
		Token:     resp.AccessToken,
		ExpiresAt: time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}, nil
}

// Verify asks the server who token belongs to.
func (c *Client) Verify(ctx context.Context, token string) (auth.Identity, error) {
	var me api.UserResponse
	if err := c.do(ctx, c.http.Get(c.url("/api/v1/auth/me")), token, &me); err != nil {
		return auth.Identity{}, err
	}
	return auth.Identity{UserID: me.ID, Email: me.Email, Token: token}, nil
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

// do sends the request built on a and decodes a JSON reply into out.
// The agent is released on every path.
func (c *Client) do(ctx context.Context, a *fiber.Agent, token string, out any) error {
	if err := ctx.Err(); err != nil {
		fiber.ReleaseAgent(a)
		return err
	}
	if token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	a.Timeout(c.timeoutFor(ctx))

	status, body, errs := a.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("request failed: %w", errors.Join(errs...))
	}

	if status >= http.StatusBadRequest {
		var e api.ErrorResponse
		_ = json.Unmarshal(body, &e)
		return &APIError{Status: status, Code: e.Error, Message: e.Message}
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) timeoutFor(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < c.timeout {
			return max(left, time.Millisecond)
		}
	}
	return c.timeout
}
