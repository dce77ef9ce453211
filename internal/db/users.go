package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/tgienger/taskly/internal/models"
)

// CreateUser creates a new account. The email must already be normalized.
func (db *DB) CreateUser(ctx context.Context, email, passwordHash string) (models.User, error) {
	u := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    db.now().UTC(),
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)
	`, u.ID, u.Email, u.PasswordHash, u.CreatedAt.UnixNano())
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return models.User{}, models.ErrDuplicate
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}

	return u, nil
}

// GetUser retrieves a user by ID
func (db *DB) GetUser(ctx context.Context, id string) (models.User, error) {
	return db.getUser(ctx, "id", id)
}

// GetUserByEmail retrieves a user by email
func (db *DB) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return db.getUser(ctx, "email", email)
}

func (db *DB) getUser(ctx context.Context, column, value string) (models.User, error) {
	var (
		u       models.User
		created int64
	)
	err := db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at
		FROM users WHERE `+column+` = ?
	`, value).Scan(&u.ID, &u.Email, &u.PasswordHash, &created)
	if err == sql.ErrNoRows {
		return models.User{}, models.ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	u.CreatedAt = time.Unix(0, created).UTC()
	return u, nil
}

// UserCount returns the number of accounts
func (db *DB) UserCount(ctx context.Context) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}
