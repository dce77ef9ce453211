package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tgienger/taskly/internal/models"
)

// CreateTask creates a new pending task for ownerID
func (db *DB) CreateTask(ctx context.Context, ownerID, description string) (models.Task, error) {
	t := models.Task{
		ID:          uuid.NewString(),
		Description: strings.TrimSpace(description),
		Status:      models.StatusPending,
		CreatedAt:   db.now().UTC(),
		OwnerID:     ownerID,
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO tasks (id, owner_id, description, status, created_at) VALUES (?, ?, ?, ?, ?)
	`, t.ID, t.OwnerID, t.Description, string(t.Status), t.CreatedAt.UnixNano())
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}

	return t, nil
}

// GetTask retrieves one of ownerID's tasks by ID
func (db *DB) GetTask(ctx context.Context, ownerID, id string) (models.Task, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, owner_id, description, status, created_at
		FROM tasks WHERE id = ? AND owner_id = ?
	`, id, ownerID)

	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return models.Task{}, models.ErrNotFound
	}
	return t, err
}

// ListTasks returns all tasks of ownerID, newest first. Rows created in the
// same nanosecond fall back to insertion order.
func (db *DB) ListTasks(ctx context.Context, ownerID string) ([]models.Task, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, owner_id, description, status, created_at
		FROM tasks
		WHERE owner_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpdateTaskStatus sets the status of one of ownerID's tasks
func (db *DB) UpdateTaskStatus(ctx context.Context, ownerID, id string, status models.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	res, err := db.ExecContext(ctx, `
		UPDATE tasks SET status = ? WHERE id = ? AND owner_id = ?
	`, string(status), id, ownerID)
	return affectedOne(res, err)
}

// UpdateTaskDescription sets the description of one of ownerID's tasks
func (db *DB) UpdateTaskDescription(ctx context.Context, ownerID, id, description string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE tasks SET description = ? WHERE id = ? AND owner_id = ?
	`, strings.TrimSpace(description), id, ownerID)
	return affectedOne(res, err)
}

// DeleteTask deletes one of ownerID's tasks
func (db *DB) DeleteTask(ctx context.Context, ownerID, id string) error {
	res, err := db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ? AND owner_id = ?", id, ownerID)
	return affectedOne(res, err)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (models.Task, error) {
	var (
		t       models.Task
		status  string
		created int64
	)
	if err := s.Scan(&t.ID, &t.OwnerID, &t.Description, &status, &created); err != nil {
		return models.Task{}, err
	}
	t.Status = models.Status(status)
	t.CreatedAt = time.Unix(0, created).UTC()
	return t, nil
}

// affectedOne turns "no row matched" into ErrNotFound
func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}
