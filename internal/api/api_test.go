package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/taskly/internal/auth"
	"github.com/tgienger/taskly/internal/db"
	"github.com/tgienger/taskly/internal/models"
	"golang.org/x/crypto/bcrypt"
)

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	svc := auth.NewService(
		database,
		auth.NewPasswordHasher(bcrypt.MinCost),
		auth.NewJWTManager(auth.JWTConfig{Secret: "test-secret", TokenTTL: time.Hour}),
	)
	return New(Config{Addr: ":0"}, database, svc, zerolog.Nop())
}

// call performs a request and decodes a JSON body into out when out is non-nil.
func call(t *testing.T, s *Server, method, path, token string, body any, out any) int {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func signUp(t *testing.T, s *Server, email string) string {
	t.Helper()
	status := call(t, s, http.MethodPost, "/api/v1/auth/register", "",
		RegisterRequest{Email: email, Password: "password"}, nil)
	require.Equal(t, http.StatusCreated, status)

	var tok TokenResponse
	status = call(t, s, http.MethodPost, "/api/v1/auth/login", "",
		LoginRequest{Email: email, Password: "password"}, &tok)
	require.Equal(t, http.StatusOK, status)
	return tok.AccessToken
}

func TestHealth(t *testing.T) {
	s := setupTestServer(t)

	var body map[string]string
	status := call(t, s, http.MethodGet, "/health", "", nil, &body)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestAuthRoutes(t *testing.T) {
	s := setupTestServer(t)

	var user UserResponse
	status := call(t, s, http.MethodPost, "/api/v1/auth/register", "",
		RegisterRequest{Email: "Dana@Example.com", Password: "password"}, &user)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "dana@example.com", user.Email)
	assert.NotNil(t, user.CreatedAt)

	var errResp ErrorResponse
	status = call(t, s, http.MethodPost, "/api/v1/auth/register", "",
		RegisterRequest{Email: "dana@example.com", Password: "password"}, &errResp)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", errResp.Error)

	status = call(t, s, http.MethodPost, "/api/v1/auth/register", "",
		RegisterRequest{Email: "erin@example.com", Password: "123"}, &errResp)
	assert.Equal(t, http.StatusBadRequest, status)

	status = call(t, s, http.MethodPost, "/api/v1/auth/login", "",
		LoginRequest{Email: "dana@example.com", Password: "nope-nope"}, &errResp)
	assert.Equal(t, http.StatusUnauthorized, status)

	var tok TokenResponse
	status = call(t, s, http.MethodPost, "/api/v1/auth/login", "",
		LoginRequest{Email: "dana@example.com", Password: "password"}, &tok)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.Equal(t, int64(3600), tok.ExpiresIn)
	assert.Equal(t, user.ID, tok.User.ID)

	var me UserResponse
	status = call(t, s, http.MethodGet, "/api/v1/auth/me", tok.AccessToken, nil, &me)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, user.ID, me.ID)
}

func TestAuthMiddleware(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "missing authorization header",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "Authorization header is required",
		},
		{
			name:           "invalid authorization format - no bearer",
			authHeader:     "Basic token123",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "Invalid authorization header format",
		},
		{
			name:           "invalid token",
			authHeader:     "Bearer invalid-token",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "Invalid or expired token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := s.App().Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			body, _ := io.ReadAll(resp.Body)
			assert.Contains(t, string(body), tt.expectedBody)
		})
	}
}

func TestTaskRoutes(t *testing.T) {
	s := setupTestServer(t)
	token := signUp(t, s, "frank@example.com")

	var list TaskListResponse
	status := call(t, s, http.MethodGet, "/api/v1/tasks", token, nil, &list)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, list.Count)
	assert.NotNil(t, list.Items)

	var first, second models.Task
	status = call(t, s, http.MethodPost, "/api/v1/tasks", token,
		CreateTaskRequest{Description: "  Buy milk  "}, &first)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Buy milk", first.Description)
	assert.Equal(t, models.StatusPending, first.Status)

	status = call(t, s, http.MethodPost, "/api/v1/tasks", token,
		CreateTaskRequest{Description: "Walk dog"}, &second)
	require.Equal(t, http.StatusCreated, status)

	status = call(t, s, http.MethodGet, "/api/v1/tasks", token, nil, &list)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 2, list.Count)
	assert.Equal(t, second.ID, list.Items[0].ID, "newest first")

	completed := models.StatusCompleted
	status = call(t, s, http.MethodPatch, "/api/v1/tasks/"+first.ID, token,
		UpdateTaskRequest{Status: &completed}, nil)
	assert.Equal(t, http.StatusNoContent, status)

	desc := "Buy oat milk"
	status = call(t, s, http.MethodPatch, "/api/v1/tasks/"+first.ID, token,
		UpdateTaskRequest{Description: &desc}, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status = call(t, s, http.MethodGet, "/api/v1/tasks", token, nil, &list)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Buy oat milk", list.Items[1].Description)
	assert.Equal(t, models.StatusCompleted, list.Items[1].Status)

	status = call(t, s, http.MethodDelete, "/api/v1/tasks/"+second.ID, token, nil, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status = call(t, s, http.MethodGet, "/api/v1/tasks", token, nil, &list)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, list.Count)
}

func TestTaskRoutes_Errors(t *testing.T) {
	s := setupTestServer(t)
	token := signUp(t, s, "gina@example.com")
	other := signUp(t, s, "hank@example.com")

	var task models.Task
	require.Equal(t, http.StatusCreated, call(t, s, http.MethodPost, "/api/v1/tasks", token,
		CreateTaskRequest{Description: "Private"}, &task))

	var errResp ErrorResponse

	t.Run("blank description", func(t *testing.T) {
		status := call(t, s, http.MethodPost, "/api/v1/tasks", token,
			CreateTaskRequest{Description: "   "}, &errResp)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "bad_request", errResp.Error)
	})

	t.Run("both fields", func(t *testing.T) {
		completed := models.StatusCompleted
		desc := "x"
		status := call(t, s, http.MethodPatch, "/api/v1/tasks/"+task.ID, token,
			UpdateTaskRequest{Status: &completed, Description: &desc}, &errResp)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("unknown status", func(t *testing.T) {
		bogus := models.Status("archived")
		status := call(t, s, http.MethodPatch, "/api/v1/tasks/"+task.ID, token,
			UpdateTaskRequest{Status: &bogus}, &errResp)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("not owned", func(t *testing.T) {
		status := call(t, s, http.MethodDelete, "/api/v1/tasks/"+task.ID, other, nil, &errResp)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "not_found", errResp.Error)

		var list TaskListResponse
		call(t, s, http.MethodGet, "/api/v1/tasks", other, nil, &list)
		assert.Equal(t, 0, list.Count)
	})

	t.Run("missing task", func(t *testing.T) {
		status := call(t, s, http.MethodDelete, "/api/v1/tasks/nope", token, nil, &errResp)
		assert.Equal(t, http.StatusNotFound, status)
	})
}

// flakyUsers fails account lookups while down is set.
type flakyUsers struct {
	*db.DB
	down bool
}

func (u *flakyUsers) GetUser(ctx context.Context, id string) (models.User, error) {
	if u.down {
		return models.User{}, errors.New("database is locked")
	}
	return u.DB.GetUser(ctx, id)
}

func TestAuthMiddleware_StoreFailure(t *testing.T) {
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	users := &flakyUsers{DB: database}
	svc := auth.NewService(
		users,
		auth.NewPasswordHasher(bcrypt.MinCost),
		auth.NewJWTManager(auth.JWTConfig{Secret: "test-secret", TokenTTL: time.Hour}),
	)
	s := New(Config{}, database, svc, zerolog.Nop())
	token := signUp(t, s, "dora@example.com")

	users.down = true
	var errResp ErrorResponse
	status := call(t, s, http.MethodGet, "/api/v1/auth/me", token, nil, &errResp)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal_error", errResp.Error)

	status = call(t, s, http.MethodGet, "/api/v1/tasks", token, nil, nil)
	assert.Equal(t, http.StatusInternalServerError, status)

	users.down = false
	status = call(t, s, http.MethodGet, "/api/v1/auth/me", token, nil, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestServer_Listen(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"}, nil, nil, zerolog.Nop())
	ln, err := s.Listen()
	require.NoError(t, err)
	defer ln.Close()

	busy := New(Config{Addr: ln.Addr().String()}, nil, nil, zerolog.Nop())
	_, err = busy.Listen()
	assert.ErrorContains(t, err, ln.Addr().String())
}
