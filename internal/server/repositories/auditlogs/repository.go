package auditlogs

import (
	"context"

	"github.com/wardenlabs/warden/internal/server/models"
)

type Repository interface {
	// Insert appends an audit entry. Entries are never mutated or deleted.
	Insert(ctx context.Context, entry *models.AuditLogEntry) error
}
