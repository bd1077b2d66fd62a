// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Outcome labels shared by the recorders.
const (
	OutcomeAccepted         = "accepted"
	OutcomeValidationFailed = "validation_failed"
	OutcomePersistFailed    = "persistence_failed"
	OutcomeEmailFailed      = "email_failed"

	OutcomeConfirmed    = "confirmed"
	OutcomeMissingToken = "missing_token"
	OutcomeUnknownToken = "unknown_token"

	DeliveryDelivered = "delivered"
	DeliverySkipped   = "skipped"
	DeliveryFailed    = "failed"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Subscription workflow
	IncSubscription(outcome string)
	IncConfirmation(outcome string)

	// Publish workflow, status: delivered, skipped or failed
	IncNewsletterDelivery(status string)

	// Outbound email latency, labelled by provider
	ObserveEmailSendDuration(provider string, duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
