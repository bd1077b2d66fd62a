package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/thearyanahmed/newsletter/internal/model"
)

// ConfirmedSubscriber is one row of the confirmed listing.
// Exactly one of Email or Err is meaningful: rows whose stored address no
// longer validates carry a *model.ValidationError instead of failing the list.
type ConfirmedSubscriber struct {
	ID    uuid.UUID
	Email model.SubscriberEmail
	Err   error
}

// ConfirmSubscriber marks the subscriber confirmed. Confirming twice is not an error.
func (r *Repository) ConfirmSubscriber(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE subscriptions
		SET status = $2
		WHERE id = $1
	`, id, string(model.StatusConfirmed))
	return persistenceError("confirm subscriber", err)
}

// GetSubscriberIDByToken resolves a confirmation token.
// Returns false with a nil error when the token is unknown.
func (r *Repository) GetSubscriberIDByToken(ctx context.Context, token string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		SELECT subscriber_id
		FROM subscription_tokens
		WHERE subscription_token = $1
	`, token).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, persistenceError("get subscriber id by token", err)
	}
	return id, true, nil
}

// ListConfirmedSubscribers returns every confirmed subscriber ordered by signup time.
func (r *Repository) ListConfirmedSubscribers(ctx context.Context) ([]ConfirmedSubscriber, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, email
		FROM subscriptions
		WHERE status = $1
		ORDER BY subscribed_at, id
	`, string(model.StatusConfirmed))
	if err != nil {
		return nil, persistenceError("list confirmed subscribers", err)
	}
	defer rows.Close()

	var out []ConfirmedSubscriber
	for rows.Next() {
		var (
			id  uuid.UUID
			raw string
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, persistenceError("scan confirmed subscriber", err)
		}
		out = append(out, confirmedFromRow(id, raw))
	}

	if err := rows.Err(); err != nil {
		return nil, persistenceError("iterate confirmed subscribers", err)
	}

	return out, nil
}

func confirmedFromRow(id uuid.UUID, raw string) ConfirmedSubscriber {
	email, err := model.ParseSubscriberEmail(raw)
	if err != nil {
		return ConfirmedSubscriber{ID: id, Err: err}
	}
	return ConfirmedSubscriber{ID: id, Email: email}
}
