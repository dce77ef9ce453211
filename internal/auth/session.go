package auth

import (
	"context"
	"errors"
	"sync"
)

// SessionTokenKey is the settings key holding the saved access token.
const SessionTokenKey = "session_token"

// TokenCache keeps the access token between runs.
type TokenCache interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

// Session is the signed-in state of one client. It is safe for concurrent
// use: store calls read the token from command goroutines.
type Session struct {
	provider Provider
	cache    TokenCache

	mu       sync.RWMutex
	identity *Identity
}

// NewSession creates a signed-out session. cache may be nil.
func NewSession(provider Provider, cache TokenCache) *Session {
	return &Session{provider: provider, cache: cache}
}

// Restore signs back in with a saved token. It returns ErrSignedOut when no
// usable token is saved; a rejected token is forgotten.
func (s *Session) Restore(ctx context.Context) (Identity, error) {
	if s.cache == nil {
		return Identity{}, ErrSignedOut
	}
	token, err := s.cache.GetSetting(SessionTokenKey)
	if err != nil {
		return Identity{}, err
	}
	if token == "" {
		return Identity{}, ErrSignedOut
	}

	id, err := s.provider.Verify(ctx, token)
	if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrExpiredToken) {
		_ = s.cache.SetSetting(SessionTokenKey, "")
		return Identity{}, ErrSignedOut
	}
	if err != nil {
		return Identity{}, err
	}
	if id.Token == "" {
		id.Token = token
	}
	return id, s.set(id)
}

// SignIn signs in with credentials.
func (s *Session) SignIn(ctx context.Context, email, password string) (Identity, error) {
	id, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return Identity{}, err
	}
	return id, s.set(id)
}

// SignUp creates an account and signs in.
func (s *Session) SignUp(ctx context.Context, email, password string) (Identity, error) {
	id, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		return Identity{}, err
	}
	return id, s.set(id)
}

// SignOut forgets the identity and the saved token.
func (s *Session) SignOut() error {
	s.mu.Lock()
	s.identity = nil
	s.mu.Unlock()
	if s.cache == nil {
		return nil
	}
	return s.cache.SetSetting(SessionTokenKey, "")
}

// Identity returns the signed-in identity.
func (s *Session) Identity() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return Identity{}, false
	}
	return *s.identity, true
}

// OwnerID is the signed-in user's id, empty when signed out.
func (s *Session) OwnerID() string {
	id, _ := s.Identity()
	return id.UserID
}

// Token returns the access token for ownerID. A request prepared for a user
// who has since signed out gets ErrSignedOut rather than another user's token.
func (s *Session) Token(ownerID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil || s.identity.UserID != ownerID {
		return "", ErrSignedOut
	}
	return s.identity.Token, nil
}

func (s *Session) set(id Identity) error {
	s.mu.Lock()
	s.identity = &id
	s.mu.Unlock()
	if s.cache == nil {
		return nil
	}
	return s.cache.SetSetting(SessionTokenKey, id.Token)
}
