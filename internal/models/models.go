package models

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a row does not exist or is not visible to the owner
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique column already holds the value
	ErrDuplicate = errors.New("already exists")
)

// Status is the completion state of a task
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Toggle returns the opposite status
func (s Status) Toggle() Status {
	if s == StatusCompleted {
		return StatusPending
	}
	return StatusCompleted
}

// Task represents a single task owned by one user
type Task struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	OwnerID     string    `json:"owner_id"`
}

// Completed reports whether the task is done
func (t Task) Completed() bool {
	return t.Status == StatusCompleted
}

// User is an account that owns tasks
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
