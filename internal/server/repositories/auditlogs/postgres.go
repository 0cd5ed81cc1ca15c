// Package auditlogs provides a PostgreSQL-backed repository for the
// append-only audit trail.
package auditlogs

import (
	"context"
	"fmt"

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

// Insert appends an audit entry. UserID may be nil for failures where the
// identity is unknown; Metadata is an optional JSON document.
func (r *PostgresRepository) Insert(ctx context.Context, entry *models.AuditLogEntry) error {
	query := `
		INSERT INTO audit_logs (user_id, action, ip_address, user_agent, status, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	var metadata any
	if entry.Metadata != "" {
		metadata = entry.Metadata
	}
	if _, err := r.db.ExecContext(ctx, query,
		entry.UserID, entry.Action, entry.IPAddress, entry.UserAgent, entry.Status, metadata); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
