// Package users provides a PostgreSQL-backed repository for user identity
// records, including the lockout counters mutated on login attempts.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wardenlabs/warden/internal/common"
	"github.com/wardenlabs/warden/internal/dbx"
	"github.com/wardenlabs/warden/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user. Email and username are lower-cased before the
// insert; uniqueness is enforced by the schema.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (email, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		strings.ToLower(user.Email), strings.ToLower(user.Username), user.PasswordHash).Scan(&user.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// GetByIdentifier returns the user whose email or username equals the
// lower-cased identifier. If no row matches, it returns common.ErrorNotFound.
func (r *PostgresRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	query := `
		SELECT id, email, username, password_hash, is_active, is_verified,
		       failed_login_attempts, locked_until
		FROM users
		WHERE email = $1 OR username = $1
	`
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, strings.ToLower(identifier)).Scan(
		&user.ID, &user.Email, &user.Username, &user.PasswordHash,
		&user.IsActive, &user.IsVerified, &user.FailedLoginAttempts, &user.LockedUntil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// ExistsByEmailOrUsername reports whether either value is already claimed.
func (r *PostgresRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM users WHERE email = $1 OR username = $2
		)
	`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, strings.ToLower(email), strings.ToLower(username)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// RecordLoginFailure persists the incremented counter; lockedUntil is nil
// until the threshold is reached.
func (r *PostgresRepository) RecordLoginFailure(ctx context.Context, userID string, attempts int, lockedUntil *time.Time) error {
	query := `
		UPDATE users
		SET failed_login_attempts = $1, locked_until = $2
		WHERE id = $3
	`
	if _, err := r.db.ExecContext(ctx, query, attempts, lockedUntil, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ResetLoginFailures clears the failure counter and any lockout deadline.
func (r *PostgresRepository) ResetLoginFailures(ctx context.Context, userID string) error {
	query := `
		UPDATE users
		SET failed_login_attempts = 0, locked_until = NULL
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
