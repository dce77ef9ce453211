package api

import (
	"time"

	"github.com/tgienger/taskly/internal/models"
)

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse represents an authentication token response.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        UserResponse `json:"user"`
}

// UserResponse represents a user response.
type UserResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// CreateTaskRequest is the body of POST /tasks.
type CreateTaskRequest struct {
	Description string `json:"description"`
}

// UpdateTaskRequest is the body of PATCH /tasks/:id. Exactly one field is set.
type UpdateTaskRequest struct {
	Status      *models.Status `json:"status,omitempty"`
	Description *string        `json:"description,omitempty"`
}

// TaskListResponse wraps a list of tasks.
type TaskListResponse struct {
	Count int           `json:"count"`
	Items []models.Task `json:"items"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
