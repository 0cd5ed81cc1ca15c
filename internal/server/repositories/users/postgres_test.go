package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/wardenlabs/warden/internal/common"
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

func TestCreate_LowercasesAndReturnsID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+users\s*\(email,\s*username,\s*password_hash\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id\s*$`

	rows := sqlmock.NewRows([]string{"id"}).AddRow("u-42")
	mock.ExpectQuery(q).
		WithArgs("a@b.com", "alice01", "hash").
		WillReturnRows(rows)

	u := &models.User{Email: "A@B.com", Username: "Alice01", PasswordHash: "hash"}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "u-42" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Email: "a@b.com", Username: "alice01", PasswordHash: "h"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByIdentifier_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	locked := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "email", "username", "password_hash", "is_active", "is_verified",
		"failed_login_attempts", "locked_until",
	}).AddRow("u-1", "a@b.com", "alice01", "hash", true, false, 3, locked)

	mock.ExpectQuery(`(?s)SELECT\s+id,\s*email,\s*username,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s+OR\s+username\s*=\s*\$1`).
		WithArgs("alice01").
		WillReturnRows(rows)

	got, err := repo.GetByIdentifier(context.Background(), "Alice01")
	if err != nil {
		t.Fatalf("GetByIdentifier error: %v", err)
	}
	if got.ID != "u-1" || got.Email != "a@b.com" || got.FailedLoginAttempts != 3 {
		t.Fatalf("unexpected user: %+v", got)
	}
	if got.LockedUntil == nil || !got.LockedUntil.Equal(locked) {
		t.Fatalf("unexpected locked_until: %v", got.LockedUntil)
	}
}

func TestGetByIdentifier_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+id,\s*email,\s*username`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByIdentifier(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestExistsByEmailOrUsername(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"exists"}).AddRow(true)
	mock.ExpectQuery(`SELECT\s+EXISTS`).
		WithArgs("a@b.com", "alice01").
		WillReturnRows(rows)

	exists, err := repo.ExistsByEmailOrUsername(context.Background(), "A@b.com", "Alice01")
	if err != nil {
		t.Fatalf("ExistsByEmailOrUsername error: %v", err)
	}
	if !exists {
		t.Fatalf("expected exists = true")
	}
}

func TestRecordLoginFailure_WithLockout(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	until := time.Now().Add(30 * time.Minute)
	mock.ExpectExec(`(?s)UPDATE\s+users\s+SET\s+failed_login_attempts\s*=\s*\$1,\s*locked_until\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$3`).
		WithArgs(5, until, "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.RecordLoginFailure(context.Background(), "u-1", 5, &until); err != nil {
		t.Fatalf("RecordLoginFailure error: %v", err)
	}
}

func TestResetLoginFailures(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)UPDATE\s+users\s+SET\s+failed_login_attempts\s*=\s*0,\s*locked_until\s*=\s*NULL\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.ResetLoginFailures(context.Background(), "u-1"); err != nil {
		t.Fatalf("ResetLoginFailures error: %v", err)
	}
}
