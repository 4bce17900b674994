package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/tourindo/tourism_api/internal/models"
)

var logTestColumns = []string{"id", "admin_id", "action", "target_user_id", "details", "created_at"}

func newMockLogRepo(t *testing.T) (*ActivityLogRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewActivityLogRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestAppendDefaultsEmptyDetails(t *testing.T) {
	repo, mock := newMockLogRepo(t)

	mock.ExpectExec(`INSERT INTO activity_logs`).
		WithArgs("admin-1", string(models.ActionLogin), nil, []byte(`{}`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Append(context.Background(), repo.DB(), "admin-1", models.ActionLogin, nil, nil)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// Zero and oversized limits both fall back to the default page size.
func TestQueryClampsLimit(t *testing.T) {
	repo, mock := newMockLogRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM activity_logs`).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows(logTestColumns))
	if _, err := repo.Query(context.Background(), nil, 0); err != nil {
		t.Fatalf("Query: %v", err)
	}

	mock.ExpectQuery(`SELECT (.+) FROM activity_logs`).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows(logTestColumns))
	if _, err := repo.Query(context.Background(), nil, 500); err != nil {
		t.Fatalf("Query oversized: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestQueryFiltersByAdmin(t *testing.T) {
	repo, mock := newMockLogRepo(t)

	adminID := "admin-1"
	mock.ExpectQuery(`SELECT (.+) FROM activity_logs`).
		WithArgs(adminID, 10).
		WillReturnRows(sqlmock.NewRows(logTestColumns).
			AddRow(int64(2), adminID, "login", nil, json.RawMessage(`{}`), time.Now()))

	entries, err := repo.Query(context.Background(), &adminID, 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if entries[0].AdminID != adminID || entries[0].Action != models.ActionLogin {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
}
