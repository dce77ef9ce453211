package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/tgienger/taskly/internal/auth"
)

// IdentityKey is the key used to store the caller's identity in the Fiber context.
const IdentityKey = "identity"

// TokenVerifier checks access tokens.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (auth.Identity, error)
}

// AuthMiddleware rejects requests without a valid Bearer token.
func AuthMiddleware(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header is required")
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid authorization header format. Use: Bearer <token>")
		}

		id, err := verifier.Verify(c.UserContext(), token)
		switch {
		case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		case err != nil:
			// store failures are not the caller's fault
			return fmt.Errorf("verify token: %w", err)
		}

		c.Locals(IdentityKey, id)
		return c.Next()
	}
}

// identity returns the caller set by AuthMiddleware.
func identity(c *fiber.Ctx) (auth.Identity, bool) {
	id, ok := c.Locals(IdentityKey).(auth.Identity)
	return id, ok && id.UserID != ""
}

// RequestLogger logs one line per request. Errors from the chain are passed
// to the app's error handler first so the logged status is the one sent.
func RequestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		chainErr := c.Next()
		if chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		ev := log.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			ev = log.Error().Err(chainErr)
		case status >= fiber.StatusBadRequest:
			ev = log.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
		return nil
	}
}
