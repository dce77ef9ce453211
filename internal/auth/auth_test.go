package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/taskly/internal/db"
	"golang.org/x/crypto/bcrypt"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func newTestService(t *testing.T) (*Service, *db.DB) {
	t.Helper()
	database := setupTestDB(t)
	svc := NewService(
		database,
		NewPasswordHasher(bcrypt.MinCost),
		NewJWTManager(JWTConfig{Secret: "test-secret", TokenTTL: time.Hour}),
	)
	return svc, database
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, h.Verify("hunter22", hash))
	assert.False(t, h.Verify("hunter23", hash))
}

func TestJWTManager(t *testing.T) {
	m := NewJWTManager(JWTConfig{Secret: "s3cret", TokenTTL: time.Minute})

	token, err := m.Generate("user-1", "a@example.com")
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager(JWTConfig{Secret: "different", TokenTTL: time.Minute})
		_, err := other.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		defer func() { m.now = time.Now }()
		_, err := m.Validate(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Validate("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  error
	}{
		{"  Alice@Example.COM ", "alice@example.com", nil},
		{"bob@example.com", "bob@example.com", nil},
		{"no-at-sign", "", ErrInvalidEmail},
		{"", "", ErrInvalidEmail},
		{"Alice <alice@example.com>", "", ErrInvalidEmail},
	}
	for _, tt := range tests {
		got, err := NormalizeEmail(tt.in)
		if tt.err != nil {
			assert.ErrorIs(t, err, tt.err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestService_RegisterAndSignIn(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Alice@example.com", "password")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	_, err = svc.Register(ctx, "alice@example.com", "password")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Register(ctx, "bob@example.com", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	id, err := svc.SignIn(ctx, "ALICE@example.com", "password")
	require.NoError(t, err)
	assert.Equal(t, u.ID, id.UserID)
	assert.NotEmpty(t, id.Token)

	_, err = svc.SignIn(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.SignIn(ctx, "nobody@example.com", "password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	verified, err := svc.Verify(ctx, id.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, verified.UserID)
	assert.Equal(t, "alice@example.com", verified.Email)
}

func TestService_VerifyUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	token, err := svc.tokens.Generate("ghost", "ghost@example.com")
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSession(t *testing.T) {
	svc, database := newTestService(t)
	ctx := context.Background()

	s := NewSession(svc, database)
	_, err := s.Restore(ctx)
	assert.ErrorIs(t, err, ErrSignedOut)

	id, err := s.SignUp(ctx, "carol@example.com", "password")
	require.NoError(t, err)
	assert.Equal(t, id.UserID, s.OwnerID())

	token, err := s.Token(id.UserID)
	require.NoError(t, err)
	assert.Equal(t, id.Token, token)

	_, err = s.Token("someone-else")
	assert.ErrorIs(t, err, ErrSignedOut)

	// a fresh session picks the saved token back up
	restored := NewSession(svc, database)
	got, err := restored.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, id.UserID, got.UserID)

	require.NoError(t, restored.SignOut())
	assert.Empty(t, restored.OwnerID())
	_, err = restored.Token(id.UserID)
	assert.ErrorIs(t, err, ErrSignedOut)

	_, err = NewSession(svc, database).Restore(ctx)
	assert.ErrorIs(t, err, ErrSignedOut)
}

func TestSession_RestoreDropsRejectedToken(t *testing.T) {
	svc, database := newTestService(t)
	require.NoError(t, database.SetSetting(SessionTokenKey, "bogus"))

	_, err := NewSession(svc, database).Restore(context.Background())
	assert.ErrorIs(t, err, ErrSignedOut)

	saved, err := database.GetSetting(SessionTokenKey)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

// unreachable fails every call as a server outage would.
type unreachable struct{}

func (unreachable) SignUp(context.Context, string, string) (Identity, error) {
	return Identity{}, errUnavailable
}

func (unreachable) SignIn(context.Context, string, string) (Identity, error) {
	return Identity{}, errUnavailable
}

func (unreachable) Verify(context.Context, string) (Identity, error) {
	return Identity{}, errUnavailable
}

var errUnavailable = errors.New("server returned 500")

func TestSession_RestoreKeepsTokenOnOutage(t *testing.T) {
	database := setupTestDB(t)
	require.NoError(t, database.SetSetting(SessionTokenKey, "saved-token"))

	_, err := NewSession(unreachable{}, database).Restore(context.Background())
	assert.ErrorIs(t, err, errUnavailable)
	assert.NotErrorIs(t, err, ErrSignedOut)

	saved, err := database.GetSetting(SessionTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "saved-token", saved)
}
