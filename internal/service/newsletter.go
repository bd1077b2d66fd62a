package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/thearyanahmed/newsletter/internal/cache"
	"github.com/thearyanahmed/newsletter/internal/email"
	"github.com/thearyanahmed/newsletter/internal/metrics"
	"github.com/thearyanahmed/newsletter/internal/model"
)

const (
	publishLockKey        = "newsletter:publish"
	defaultPublishLockTTL = 10 * time.Minute
)

// Locker grants a non-blocking, expiring exclusive lock.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (cache.UnlockFunc, bool, error)
}

// PublishResult summarises one broadcast.
type PublishResult struct {
	IssueID   string
	Delivered int
	Skipped   int
}

// NewsletterService broadcasts issues to confirmed subscribers.
type NewsletterService struct {
	store   SubscriberStore
	sender  email.Sender
	locker  Locker
	lockTTL time.Duration
	logger  *slog.Logger
	metrics metrics.Recorder
	tracer  trace.Tracer
}

// NewNewsletterService creates a new NewsletterService. locker may be nil,
// in which case concurrent publishes are not prevented.
func NewNewsletterService(store SubscriberStore, sender email.Sender, locker Locker, lockTTL time.Duration, logger *slog.Logger, recorder metrics.Recorder) *NewsletterService {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if lockTTL <= 0 {
		lockTTL = defaultPublishLockTTL
	}
	return &NewsletterService{
		store:   store,
		sender:  sender,
		locker:  locker,
		lockTTL: lockTTL,
		logger:  logger,
		metrics: recorder,
		tracer:  otel.Tracer(tracerName),
	}
}

// Publish sends issue to every confirmed subscriber in listing order.
// Stored addresses that no longer validate are skipped with a warning.
// The first send failure stops the broadcast; recipients before it have
// already been emailed.
func (s *NewsletterService) Publish(ctx context.Context, issue model.Issue) (*PublishResult, error) {
	ctx = context.WithoutCancel(ctx)
	if issue.ID == "" {
		issue.ID = ulid.Make().String()
	}

	ctx, span := s.tracer.Start(ctx, "NewsletterService.Publish",
		trace.WithAttributes(attribute.String("issue.id", issue.ID)),
	)
	defer span.End()

	unlock, err := s.acquire(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer unlock()

	subscribers, err := s.store.ListConfirmedSubscribers(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "listing failed")
		return nil, persistenceFailed("failed to get confirmed subscribers", err)
	}

	result := &PublishResult{IssueID: issue.ID}
	for _, sub := range subscribers {
		if sub.Err != nil {
			result.Skipped++
			s.metrics.IncNewsletterDelivery(metrics.DeliverySkipped)
			s.logger.Warn("skipping a confirmed subscriber, stored contact details are invalid",
				"issue_id", issue.ID,
				"subscriber_id", sub.ID,
				"error", sub.Err,
			)
			continue
		}

		if err := s.sender.SendEmail(ctx, sub.Email, issue.Title, issue.HTML, issue.Text); err != nil {
			s.metrics.IncNewsletterDelivery(metrics.DeliveryFailed)
			span.RecordError(err)
			span.SetStatus(codes.Error, "delivery failed")
			s.logger.Error("newsletter delivery aborted",
				"issue_id", issue.ID,
				"subscriber_id", sub.ID,
				"email", sub.Email.Redacted(),
				"delivered", result.Delivered,
				"error", err,
			)
			return result, emailDispatchFailed("failed to send newsletter issue to "+sub.Email.Redacted(), err)
		}

		result.Delivered++
		s.metrics.IncNewsletterDelivery(metrics.DeliveryDelivered)
	}

	span.SetAttributes(
		attribute.Int("issue.delivered", result.Delivered),
		attribute.Int("issue.skipped", result.Skipped),
	)
	s.logger.Info("newsletter_published",
		"issue_id", issue.ID,
		"delivered", result.Delivered,
		"skipped", result.Skipped,
	)
	return result, nil
}

// acquire takes the publish lock when a locker is configured.
func (s *NewsletterService) acquire(ctx context.Context) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}

	unlock, ok, err := s.locker.TryLock(ctx, publishLockKey, s.lockTTL)
	if err != nil {
		return nil, &WorkflowError{Kind: ErrLockUnavailable, Msg: "failed to acquire publish lock", Err: err}
	}
	if !ok {
		return nil, ErrPublishInProgress
	}

	return func() {
		if err := unlock(ctx); err != nil {
			s.logger.Warn("failed to release publish lock", "error", err)
		}
	}, nil
}
