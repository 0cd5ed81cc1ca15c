package repomanager

import (
	"context"
	"database/sql"

	"github.com/wardenlabs/warden/internal/dbx"
	"github.com/wardenlabs/warden/internal/server/repositories/auditlogs"
	"github.com/wardenlabs/warden/internal/server/repositories/sessions"
	"github.com/wardenlabs/warden/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	AuditLogs(db dbx.DBTX) auditlogs.Repository
}
