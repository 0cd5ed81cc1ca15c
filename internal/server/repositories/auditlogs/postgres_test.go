package auditlogs

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/wardenlabs/warden/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestInsert_WithUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	userID := "u-1"
	mock.ExpectExec(`(?s)INSERT\s+INTO\s+audit_logs\s*\(user_id,\s*action,\s*ip_address,\s*user_agent,\s*status,\s*metadata\)`).
		WithArgs(userID, models.AuditActionLogin, "1.2.3.4", "curl/8.0", models.AuditStatusSuccess, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	entry := &models.AuditLogEntry{
		UserID:    &userID,
		Action:    models.AuditActionLogin,
		IPAddress: "1.2.3.4",
		UserAgent: "curl/8.0",
		Status:    models.AuditStatusSuccess,
	}
	if err := repo.Insert(context.Background(), entry); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
}

func TestInsert_UnknownIdentity(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+audit_logs`).
		WithArgs(nil, models.AuditActionLogin, "1.2.3.4", "", models.AuditStatusFailed, `{"reason":"user_not_found"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	entry := &models.AuditLogEntry{
		Action:    models.AuditActionLogin,
		IPAddress: "1.2.3.4",
		Status:    models.AuditStatusFailed,
		Metadata:  `{"reason":"user_not_found"}`,
	}
	if err := repo.Insert(context.Background(), entry); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
}

func TestInsert_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+audit_logs`).
		WillReturnError(errors.New("db down"))

	err := repo.Insert(context.Background(), &models.AuditLogEntry{Action: models.AuditActionRegister, Status: models.AuditStatusFailed})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
