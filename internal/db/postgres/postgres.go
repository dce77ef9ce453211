// Package postgres is the PostgreSQL implementation of the task and user
// store, used by `taskly serve` when server.driver is "postgres".
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tgienger/taskly/internal/models"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

// Store holds a pgx connection pool
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// New connects to url, verifies the connection and applies the schema
func New(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{pool: pool, now: time.Now}, nil
}

// Close releases the pool
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) CreateTask(ctx context.Context, ownerID, description string) (models.Task, error) {
	t := models.Task{
		ID:          uuid.NewString(),
		Description: strings.TrimSpace(description),
		Status:      models.StatusPending,
		CreatedAt:   s.now().UTC().Truncate(time.Microsecond),
		OwnerID:     ownerID,
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tasks (id, owner_id, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, t.ID, t.OwnerID, t.Description, string(t.Status), t.CreatedAt)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

func (s *Store) ListTasks(ctx context.Context, ownerID string) ([]models.Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_id, description, status, created_at
		FROM tasks
		WHERE owner_id = $1
		ORDER BY created_at DESC, seq DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var (
			t      models.Task
			status string
		)
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Description, &status, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Status = models.Status(status)
		t.CreatedAt = t.CreatedAt.UTC()
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Store) UpdateTaskStatus(ctx context.Context, ownerID, id string, status models.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET status = $1 WHERE id = $2 AND owner_id = $3`,
		string(status), id, ownerID)
	return affectedOne(tag, err)
}

func (s *Store) UpdateTaskDescription(ctx context.Context, ownerID, id, description string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET description = $1 WHERE id = $2 AND owner_id = $3`,
		strings.TrimSpace(description), id, ownerID)
	return affectedOne(tag, err)
}

func (s *Store) DeleteTask(ctx context.Context, ownerID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)
	return affectedOne(tag, err)
}

func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (models.User, error) {
	u := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    s.now().UTC().Truncate(time.Microsecond),
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)
	`, u.ID, u.Email, u.PasswordHash, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.User{}, models.ErrDuplicate
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	return s.getUser(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE id = $1`, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.getUser(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE email = $1`, email)
}

func (s *Store) getUser(ctx context.Context, query, arg string) (models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, models.ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

func affectedOne(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
