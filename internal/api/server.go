// Package api serves the remote task store over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/tgienger/taskly/internal/auth"
	"github.com/tgienger/taskly/internal/models"
	"github.com/tgienger/taskly/internal/tasks"
)

// Config holds HTTP server settings.
type Config struct {
	Addr        string
	CORSOrigins string
}

// Accounts registers users and issues tokens.
type Accounts interface {
	TokenVerifier
	Register(ctx context.Context, email, password string) (models.User, error)
	SignIn(ctx context.Context, email, password string) (auth.Identity, error)
	TokenTTL() time.Duration
}

// Server is the Fiber application exposing auth and task routes.
type Server struct {
	app      *fiber.App
	cfg      Config
	tasks    tasks.Store
	accounts Accounts
	log      zerolog.Logger
}

// New builds the server and registers its routes.
func New(cfg Config, store tasks.Store, accounts Accounts, log zerolog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		tasks:    store,
		accounts: accounts,
		log:      log,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "taskly",
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(RequestLogger(log))
	if cfg.CORSOrigins != "" {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORSOrigins,
			AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
			AllowHeaders: "Content-Type,Authorization",
		}))
	}

	s.registerRoutes()
	return s
}

// App exposes the underlying Fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen binds the configured address. Pass the listener to Serve.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return ln, nil
}

// Serve serves on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Info().Str("addr", ln.Addr().String()).Msg("HTTP server started")
	return s.app.Listener(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	s.log.Info().Msg("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.app.Get("/health", s.health)

	v1 := s.app.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.Post("/register", s.register)
	authGroup.Post("/login", s.login)
	authGroup.Get("/me", AuthMiddleware(s.accounts), s.me)

	taskGroup := v1.Group("/tasks", AuthMiddleware(s.accounts))
	taskGroup.Get("/", s.listTasks)
	taskGroup.Post("/", s.createTask)
	taskGroup.Patch("/:id", s.updateTask)
	taskGroup.Delete("/:id", s.deleteTask)
}

// errorHandler turns handler errors into ErrorResponse bodies.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	status, message := classify(err)
	if status >= fiber.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.Path()).Msg("internal error")
	}
	return c.Status(status).JSON(ErrorResponse{
		Error:   errorCode(status),
		Message: message,
	})
}

func classify(err error) (int, string) {
	var (
		fe *fiber.Error
		ve *tasks.ValidationError
	)
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.As(err, &ve):
		return fiber.StatusBadRequest, ve.Reason
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
		return fiber.StatusUnauthorized, "Invalid or expired token"
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound, "Task not found"
	case errors.Is(err, auth.ErrEmailTaken):
		return fiber.StatusConflict, "User with this email already exists"
	}
	return fiber.StatusInternalServerError, "An internal error occurred"
}

func errorCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "bad_request"
	case fiber.StatusUnauthorized:
		return "unauthorized"
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusConflict:
		return "conflict"
	case fiber.StatusMethodNotAllowed:
		return "method_not_allowed"
	}
	if status >= fiber.StatusInternalServerError {
		return "internal_error"
	}
	return "error"
}
