package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncSubscription is a no-op.
func (n *NoopRecorder) IncSubscription(outcome string) {}

// IncConfirmation is a no-op.
func (n *NoopRecorder) IncConfirmation(outcome string) {}

// IncNewsletterDelivery is a no-op.
func (n *NoopRecorder) IncNewsletterDelivery(status string) {}

// ObserveEmailSendDuration is a no-op.
func (n *NoopRecorder) ObserveEmailSendDuration(provider string, duration time.Duration) {}
