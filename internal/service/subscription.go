// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/thearyanahmed/newsletter/internal/auth"
	"github.com/thearyanahmed/newsletter/internal/email"
	"github.com/thearyanahmed/newsletter/internal/metrics"
	"github.com/thearyanahmed/newsletter/internal/model"
	"github.com/thearyanahmed/newsletter/internal/repository"
)

const tracerName = "github.com/thearyanahmed/newsletter/internal/service"

// SubscriberStore is the persistence capability the workflows depend on.
// Both repository.Repository and repository.MemoryStore satisfy it.
type SubscriberStore interface {
	BeginTx(ctx context.Context) (repository.Tx, error)
	ConfirmSubscriber(ctx context.Context, id uuid.UUID) error
	GetSubscriberIDByToken(ctx context.Context, token string) (uuid.UUID, bool, error)
	ListConfirmedSubscribers(ctx context.Context) ([]repository.ConfirmedSubscriber, error)
}

// SubscriptionService handles subscribe and confirm.
type SubscriptionService struct {
	store    SubscriberStore
	sender   email.Sender
	baseURL  string
	logger   *slog.Logger
	metrics  metrics.Recorder
	tracer   trace.Tracer
	newToken func() (string, error)
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(store SubscriberStore, sender email.Sender, baseURL string, logger *slog.Logger, recorder metrics.Recorder) *SubscriptionService {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &SubscriptionService{
		store:    store,
		sender:   sender,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		logger:   logger,
		metrics:  recorder,
		tracer:   otel.Tracer(tracerName),
		newToken: auth.GenerateSubscriptionToken,
	}
}

// Subscribe validates the form, stores a pending subscriber with a
// confirmation token in one transaction, then emails the confirmation link.
//
// A *model.ValidationError is returned unwrapped. Store and email failures
// are *WorkflowError. An email failure leaves the committed rows in place.
func (s *SubscriptionService) Subscribe(ctx context.Context, name, rawEmail string) error {
	// The workflow runs to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	ctx, span := s.tracer.Start(ctx, "SubscriptionService.Subscribe")
	defer span.End()

	ns, err := model.ParseNewSubscriber(name, rawEmail)
	if err != nil {
		s.metrics.IncSubscription(metrics.OutcomeValidationFailed)
		span.SetStatus(codes.Error, "validation failed")
		return err
	}
	span.SetAttributes(attribute.String("subscriber.email", ns.Email.Redacted()))

	subscriberID, token, err := s.storePending(ctx, ns)
	if err != nil {
		s.metrics.IncSubscription(metrics.OutcomePersistFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return err
	}

	if err := s.sendConfirmation(ctx, ns.Email, token); err != nil {
		s.metrics.IncSubscription(metrics.OutcomeEmailFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "email dispatch failed")
		return err
	}

	s.metrics.IncSubscription(metrics.OutcomeAccepted)
	s.logger.Info("subscriber_created",
		"subscriber_id", subscriberID,
		"email", ns.Email.Redacted(),
	)
	return nil
}

func (s *SubscriptionService) storePending(ctx context.Context, ns model.NewSubscriber) (uuid.UUID, string, error) {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return uuid.Nil, "", persistenceFailed("failed to acquire a database transaction", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil {
			s.logger.Warn("transaction rollback failed", "error", err)
		}
	}()

	subscriberID, err := tx.InsertSubscriber(ctx, ns)
	if err != nil {
		return uuid.Nil, "", persistenceFailed("failed to insert subscriber", err)
	}

	token, err := s.newToken()
	if err != nil {
		return uuid.Nil, "", persistenceFailed("failed to generate subscription token", err)
	}

	if err := tx.StoreToken(ctx, subscriberID, token); err != nil {
		return uuid.Nil, "", persistenceFailed("failed to store subscription token", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, "", persistenceFailed("failed to commit transaction", err)
	}

	return subscriberID, token, nil
}

func (s *SubscriptionService) sendConfirmation(ctx context.Context, to model.SubscriberEmail, token string) error {
	link := confirmationLink(s.baseURL, token)
	htmlBody, textBody := confirmationBodies(link)

	if err := s.sender.SendEmail(ctx, to, confirmationSubject, htmlBody, textBody); err != nil {
		return emailDispatchFailed("failed to send confirmation email", err)
	}
	return nil
}

// Confirm activates the subscriber that owns token.
// Confirming an already confirmed subscriber succeeds.
func (s *SubscriptionService) Confirm(ctx context.Context, token string) error {
	ctx = context.WithoutCancel(ctx)
	ctx, span := s.tracer.Start(ctx, "SubscriptionService.Confirm")
	defer span.End()

	if token == "" {
		s.metrics.IncConfirmation(metrics.OutcomeMissingToken)
		return ErrMissingToken
	}

	subscriberID, found, err := s.store.GetSubscriberIDByToken(ctx, token)
	if err != nil {
		s.metrics.IncConfirmation(metrics.OutcomePersistFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "token lookup failed")
		return persistenceFailed("failed to look up subscription token", err)
	}
	if !found {
		s.metrics.IncConfirmation(metrics.OutcomeUnknownToken)
		return ErrUnknownToken
	}
	span.SetAttributes(attribute.String("subscriber.id", subscriberID.String()))

	if err := s.store.ConfirmSubscriber(ctx, subscriberID); err != nil {
		s.metrics.IncConfirmation(metrics.OutcomePersistFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "confirm failed")
		return persistenceFailed("failed to confirm subscriber", err)
	}

	s.metrics.IncConfirmation(metrics.OutcomeConfirmed)
	s.logger.Info("subscription_confirmed", "subscriber_id", subscriberID)
	return nil
}

// IsValidationError reports whether err is caller-fixable input.
func IsValidationError(err error) bool {
	var verr *model.ValidationError
	return errors.As(err, &verr)
}
