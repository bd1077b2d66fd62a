package email

import (
	"context"
	"time"

	"github.com/thearyanahmed/newsletter/internal/metrics"
	"github.com/thearyanahmed/newsletter/internal/model"
)

// InstrumentedSender records the latency of every send.
type InstrumentedSender struct {
	next     Sender
	provider string
	metrics  metrics.Recorder
}

// Instrument wraps next so each call is observed under the provider label.
func Instrument(next Sender, provider string, recorder metrics.Recorder) *InstrumentedSender {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &InstrumentedSender{next: next, provider: provider, metrics: recorder}
}

// SendEmail delegates to the wrapped sender.
func (s *InstrumentedSender) SendEmail(ctx context.Context, recipient model.SubscriberEmail, subject, htmlBody, textBody string) error {
	start := time.Now()
	err := s.next.SendEmail(ctx, recipient, subject, htmlBody, textBody)
	s.metrics.ObserveEmailSendDuration(s.provider, time.Since(start))
	return err
}
