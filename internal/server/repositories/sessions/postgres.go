// Package sessions provides a PostgreSQL-backed repository for refresh-token
// sessions. Rows hold only the bcrypt hash of the refresh token.
package sessions

import (
	"context"
	"fmt"
	"time"

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

// Create inserts a new session row and returns it with the generated id.
func (r *PostgresRepository) Create(ctx context.Context, session *models.Session) (*models.Session, error) {
	query := `
		INSERT INTO sessions (user_id, refresh_token_hash, device_info, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		session.UserID, session.RefreshTokenHash, session.DeviceInfo, session.ExpiresAt).Scan(&session.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return session, nil
}

// ListActive returns unexpired sessions joined with their owners.
func (r *PostgresRepository) ListActive(ctx context.Context, now time.Time) ([]*models.Session, error) {
	query := `
		SELECT s.id, s.user_id, s.refresh_token_hash,
		       u.email, u.username, u.is_active
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.expires_at > $1
	`
	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Session
	for rows.Next() {
		s := &models.Session{}
		if err := rows.Scan(&s.ID, &s.UserID, &s.RefreshTokenHash,
			&s.UserEmail, &s.UserUsername, &s.UserIsActive); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Touch updates a session's last_used_at timestamp.
func (r *PostgresRepository) Touch(ctx context.Context, sessionID string, usedAt time.Time) error {
	query := `
		UPDATE sessions SET last_used_at = $1 WHERE id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, usedAt, sessionID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Delete removes a session row, revoking its refresh token.
func (r *PostgresRepository) Delete(ctx context.Context, sessionID string) error {
	query := `
		DELETE FROM sessions WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
