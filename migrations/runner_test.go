package migrations

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRunner(t *testing.T) (*Runner, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	r, err := NewRunner(db)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return r, mock
}

func TestRunner_UpAppliesPending(t *testing.T) {
	t.Parallel()

	r, mock := newMockRunner(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS subscription_tokens").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schema_migrations").
		WithArgs(2, "subscription_tokens").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ran, err := r.Up(context.Background())
	if err != nil {
		t.Fatalf("Up: %v", err)
	}
	if len(ran) != 1 || ran[0].Version != 2 {
		t.Errorf("ran = %+v, want only version 2", ran)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRunner_UpRollsBackFailedMigration(t *testing.T) {
	t.Parallel()

	r, mock := newMockRunner(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}))

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS subscriptions").
		WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()

	ran, err := r.Up(context.Background())
	if err == nil {
		t.Fatal("Up should fail")
	}
	if len(ran) != 0 {
		t.Errorf("ran = %+v, want none", ran)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRunner_DownRevertsLatest(t *testing.T) {
	t.Parallel()

	r, mock := newMockRunner(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations ORDER BY version DESC").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(2))

	mock.ExpectBegin()
	mock.ExpectExec("DROP INDEX IF EXISTS idx_subscription_tokens_subscriber_id").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM schema_migrations").
		WithArgs(2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m, err := r.Down(context.Background())
	if err != nil {
		t.Fatalf("Down: %v", err)
	}
	if m == nil || m.Name != "subscription_tokens" {
		t.Errorf("rolled back %+v, want subscription_tokens", m)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRunner_DownWithNothingApplied(t *testing.T) {
	t.Parallel()

	r, mock := newMockRunner(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations ORDER BY version DESC").
		WillReturnRows(sqlmock.NewRows([]string{"version"}))

	m, err := r.Down(context.Background())
	if err != nil {
		t.Fatalf("Down: %v", err)
	}
	if m != nil {
		t.Errorf("Down = %+v, want nil", m)
	}
}
