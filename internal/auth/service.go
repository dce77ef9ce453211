// Package auth provides accounts, access tokens and the client session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/tgienger/taskly/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrSignedOut          = errors.New("not signed in")
)

// MinPasswordLength is the shortest password accepted at sign up.
const MinPasswordLength = 6

// Identity is an authenticated user plus the token proving it.
type Identity struct {
	UserID    string    `json:"id"`
	Email     string    `json:"email"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// Provider signs users in and checks tokens.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (Identity, error)
	SignIn(ctx context.Context, email, password string) (Identity, error)
	Verify(ctx context.Context, token string) (Identity, error)
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

// Service implements Provider on top of a UserStore.
type Service struct {
	users  UserStore
	hasher *PasswordHasher
	tokens *JWTManager
}

// NewService creates a Service.
func NewService(users UserStore, hasher *PasswordHasher, tokens *JWTManager) *Service {
	return &Service{users: users, hasher: hasher, tokens: tokens}
}

// NormalizeEmail trims and lower-cases an address and checks its shape.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// Register creates an account.
func (s *Service) Register(ctx context.Context, email, password string) (models.User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return models.User{}, err
	}
	if len(password) < MinPasswordLength {
		return models.User{}, ErrWeakPassword
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.CreateUser(ctx, email, hash)
	if errors.Is(err, models.ErrDuplicate) {
		return models.User{}, ErrEmailTaken
	}
	return u, err
}

// SignUp registers and signs in.
func (s *Service) SignUp(ctx context.Context, email, password string) (Identity, error) {
	if _, err := s.Register(ctx, email, password); err != nil {
		return Identity{}, err
	}
	return s.SignIn(ctx, email, password)
}

// SignIn checks credentials and issues a token.
func (s *Service) SignIn(ctx context.Context, email, password string) (Identity, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return Identity{}, ErrInvalidCredentials
	}

	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return Identity{}, err
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return Identity{}, ErrInvalidCredentials
	}

	return s.issue(u)
}

// Verify validates a token and checks the account still exists.
func (s *Service) Verify(ctx context.Context, token string) (Identity, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return Identity{}, err
	}

	u, err := s.users.GetUser(ctx, claims.UserID)
	if errors.Is(err, models.ErrNotFound) {
		return Identity{}, ErrInvalidToken
	}
	if err != nil {
		return Identity{}, err
	}

	id := Identity{UserID: u.ID, Email: u.Email, Token: token}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

// TokenTTL is the lifetime of issued tokens.
func (s *Service) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

func (s *Service) issue(u models.User) (Identity, error) {
	token, err := s.tokens.Generate(u.ID, u.Email)
	if err != nil {
		return Identity{}, fmt.Errorf("sign token: %w", err)
	}
	return Identity{
		UserID:    u.ID,
		Email:     u.Email,
		Token:     token,
		ExpiresAt: s.tokens.now().Add(s.tokens.TTL()),
	}, nil
}
