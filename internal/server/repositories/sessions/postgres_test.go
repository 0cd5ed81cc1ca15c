package sessions

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

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

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	expires := time.Now().Add(7 * 24 * time.Hour)
	rows := sqlmock.NewRows([]string{"id"}).AddRow("s-1")
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+sessions\s*\(user_id,\s*refresh_token_hash,\s*device_info,\s*expires_at\)`).
		WithArgs("u-1", "hash", `{"ip":"1.2.3.4"}`, expires).
		WillReturnRows(rows)

	s := &models.Session{UserID: "u-1", RefreshTokenHash: "hash", DeviceInfo: `{"ip":"1.2.3.4"}`, ExpiresAt: expires}
	got, err := repo.Create(context.Background(), s)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "s-1" {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestListActive_JoinsOwner(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "refresh_token_hash", "email", "username", "is_active"}).
		AddRow("s-1", "u-1", "hash-1", "a@b.com", "alice01", true).
		AddRow("s-2", "u-2", "hash-2", "c@d.com", "carol02", false)

	mock.ExpectQuery(`(?s)SELECT\s+s\.id,\s*s\.user_id,\s*s\.refresh_token_hash,.*JOIN\s+users\s+u\s+ON\s+s\.user_id\s*=\s*u\.id\s+WHERE\s+s\.expires_at\s*>\s*\$1`).
		WithArgs(now).
		WillReturnRows(rows)

	got, err := repo.ListActive(context.Background(), now)
	if err != nil {
		t.Fatalf("ListActive error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(got))
	}
	if got[0].UserEmail != "a@b.com" || got[1].UserIsActive {
		t.Fatalf("unexpected rows: %+v %+v", got[0], got[1])
	}
}

func TestListActive_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+s\.id`).
		WillReturnError(errors.New("db down"))

	_, err := repo.ListActive(context.Background(), time.Now())
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestTouch(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	usedAt := time.Now()
	mock.ExpectExec(`UPDATE\s+sessions\s+SET\s+last_used_at\s*=\s*\$1\s+WHERE\s+id\s*=\s*\$2`).
		WithArgs(usedAt, "s-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Touch(context.Background(), "s-1", usedAt); err != nil {
		t.Fatalf("Touch error: %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE\s+FROM\s+sessions\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("s-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "s-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
}
