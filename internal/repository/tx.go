package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/thearyanahmed/newsletter/internal/model"
)

// Tx is an explicit unit of work for creating a subscriber with its token.
// Rollback after Commit is a no-op, so callers may always defer Rollback.
type Tx interface {
	InsertSubscriber(ctx context.Context, ns model.NewSubscriber) (uuid.UUID, error)
	StoreToken(ctx context.Context, subscriberID uuid.UUID, token string) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type pgTx struct {
	tx pgx.Tx
}

// BeginTx opens a transaction on the pool.
func (r *Repository) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, persistenceError("begin transaction", err)
	}
	return &pgTx{tx: tx}, nil
}

// InsertSubscriber inserts a pending subscriber and returns its generated id.
func (t *pgTx) InsertSubscriber(ctx context.Context, ns model.NewSubscriber) (uuid.UUID, error) {
	id := uuid.New()

	_, err := t.tx.Exec(ctx, `
		INSERT INTO subscriptions (id, email, name, subscribed_at, status)
		VALUES ($1, $2, $3, $4, $5)
	`,
		id,
		ns.Email.String(),
		ns.Name.String(),
		time.Now().UTC(),
		string(model.StatusPendingConfirmation),
	)
	if err != nil {
		return uuid.Nil, persistenceError("insert subscriber", err)
	}

	return id, nil
}

// StoreToken records the confirmation token for subscriberID.
func (t *pgTx) StoreToken(ctx context.Context, subscriberID uuid.UUID, token string) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO subscription_tokens (subscription_token, subscriber_id)
		VALUES ($1, $2)
	`, token, subscriberID)
	return persistenceError("store subscription token", err)
}

func (t *pgTx) Commit(ctx context.Context) error {
	return persistenceError("commit transaction", t.tx.Commit(ctx))
}

func (t *pgTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return persistenceError("rollback transaction", err)
}
