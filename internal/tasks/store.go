// Package tasks keeps the local view of an owner's tasks consistent with the
// remote store.
//
// Every store call is prepared on the event loop as a Request, executed off
// the loop with Request.Do, and applied back on the loop with
// Controller.Resolve. Successful writes are always followed by a full
// refresh; nothing is patched locally.
package tasks

import (
	"context"
	"strings"

	"github.com/tgienger/taskly/internal/models"
)

// Store is the remote persistence service holding the task table. The owner
// is passed explicitly on every call.
type Store interface {
	ListTasks(ctx context.Context, ownerID string) ([]models.Task, error)
	CreateTask(ctx context.Context, ownerID, description string) (models.Task, error)
	UpdateTaskStatus(ctx context.Context, ownerID, id string, status models.Status) error
	UpdateTaskDescription(ctx context.Context, ownerID, id, description string) error
	DeleteTask(ctx context.Context, ownerID, id string) error
}

// ValidateDescription trims raw and rejects empty or whitespace-only text.
func ValidateDescription(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", &ValidationError{Reason: "empty description"}
	}
	return trimmed, nil
}
