//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/thearyanahmed/newsletter/internal/model"
	"github.com/thearyanahmed/newsletter/internal/testutil"
)

func newRepoTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	return context.Background(), NewFromPool(testutil.NewPostgres(t))
}

func TestIntegrationSubscription_CommitPersistsBothRows(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)
	ns := testutil.NewTestSubscriber(t, "commit")

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id, err := tx.InsertSubscriber(ctx, ns)
	if err != nil {
		t.Fatalf("InsertSubscriber: %v", err)
	}
	if err := tx.StoreToken(ctx, id, "integrationtoken000000001"); err != nil {
		t.Fatalf("StoreToken: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	var (
		email, name, status string
	)
	err = repo.Pool().QueryRow(ctx,
		`SELECT email, name, status FROM subscriptions WHERE id = $1`, id,
	).Scan(&email, &name, &status)
	if err != nil {
		t.Fatalf("select subscriber: %v", err)
	}
	if email != ns.Email.String() || name != ns.Name.String() {
		t.Errorf("row = (%q, %q), want (%q, %q)", email, name, ns.Email, ns.Name)
	}
	if status != string(model.StatusPendingConfirmation) {
		t.Errorf("status = %q, want pending_confirmation", status)
	}

	got, ok, err := repo.GetSubscriberIDByToken(ctx, "integrationtoken000000001")
	if err != nil || !ok || got != id {
		t.Errorf("GetSubscriberIDByToken = (%v, %v, %v), want (%v, true, nil)", got, ok, err, id)
	}
}

func TestIntegrationSubscription_RollbackDiscardsRows(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	id, err := tx.InsertSubscriber(ctx, testutil.NewTestSubscriber(t, "rollback"))
	if err != nil {
		t.Fatalf("InsertSubscriber: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	var count int
	if err := repo.Pool().QueryRow(ctx, `SELECT count(*) FROM subscriptions WHERE id = $1`, id).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no row after rollback, got %d", count)
	}
}

func TestIntegrationSubscription_RollbackAfterCommitIsNoop(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Errorf("Rollback after Commit = %v, want nil", err)
	}
}

func TestIntegrationSubscription_DuplicateEmail(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)
	ns := testutil.NewTestSubscriber(t, "dup")

	tx, _ := repo.BeginTx(ctx)
	if _, err := tx.InsertSubscriber(ctx, ns); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	tx, _ = repo.BeginTx(ctx)
	defer func() { _ = tx.Rollback(ctx) }()

	_, err := tx.InsertSubscriber(ctx, ns)
	if !errors.Is(err, ErrUniqueViolation) {
		t.Fatalf("expected ErrUniqueViolation, got %v", err)
	}
	var perr *PersistenceError
	if !errors.As(err, &perr) || perr.Kind != KindUniqueViolation {
		t.Errorf("expected KindUniqueViolation, got %#v", err)
	}
}

func TestIntegrationSubscription_UnknownToken(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	id, ok, err := repo.GetSubscriberIDByToken(ctx, "does-not-exist")
	if err != nil {
		t.Fatalf("GetSubscriberIDByToken: %v", err)
	}
	if ok || id != uuid.Nil {
		t.Errorf("expected (Nil, false), got (%v, %v)", id, ok)
	}
}

func TestIntegrationSubscription_ConfirmAndList(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	tx, _ := repo.BeginTx(ctx)
	confirmed, _ := tx.InsertSubscriber(ctx, testutil.NewTestSubscriber(t, "confirmed"))
	_, _ = tx.InsertSubscriber(ctx, testutil.NewTestSubscriber(t, "pending"))
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	// Legacy row that no longer passes validation
	legacy := uuid.New()
	if _, err := repo.Pool().Exec(ctx, `
		INSERT INTO subscriptions (id, email, name, subscribed_at, status)
		VALUES ($1, 'legacy-without-at', 'legacy', now(), 'confirmed')
	`, legacy); err != nil {
		t.Fatalf("seed legacy row: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := repo.ConfirmSubscriber(ctx, confirmed); err != nil {
			t.Fatalf("ConfirmSubscriber #%d: %v", i+1, err)
		}
	}

	list, err := repo.ListConfirmedSubscribers(ctx)
	if err != nil {
		t.Fatalf("ListConfirmedSubscribers: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 confirmed rows, got %d", len(list))
	}

	var valid, invalid int
	for _, row := range list {
		switch row.ID {
		case confirmed:
			if row.Err != nil {
				t.Errorf("confirmed row should be valid, got %v", row.Err)
			}
			valid++
		case legacy:
			var verr *model.ValidationError
			if !errors.As(row.Err, &verr) {
				t.Errorf("legacy row should carry a ValidationError, got %v", row.Err)
			}
			invalid++
		}
	}
	if valid != 1 || invalid != 1 {
		t.Errorf("valid=%d invalid=%d, want 1 and 1", valid, invalid)
	}
}
