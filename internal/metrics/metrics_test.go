package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestInMemoryRecorder_Counts(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	m.IncSubscription(OutcomeAccepted)
	m.IncSubscription(OutcomeAccepted)
	m.IncSubscription(OutcomeValidationFailed)
	m.IncConfirmation(OutcomeConfirmed)
	m.IncNewsletterDelivery(DeliverySkipped)
	m.ObserveEmailSendDuration("http", 20*time.Millisecond)

	snap := m.Snapshot()
	if snap.Subscriptions[OutcomeAccepted] != 2 {
		t.Errorf("accepted = %d, want 2", snap.Subscriptions[OutcomeAccepted])
	}
	if snap.Subscriptions[OutcomeValidationFailed] != 1 {
		t.Errorf("validation_failed = %d, want 1", snap.Subscriptions[OutcomeValidationFailed])
	}
	if snap.Confirmations[OutcomeConfirmed] != 1 || snap.Deliveries[DeliverySkipped] != 1 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if snap.EmailSendCount != 1 || snap.EmailSendTotalNs != (20*time.Millisecond).Nanoseconds() {
		t.Errorf("email duration not recorded: %+v", snap)
	}

	// Snapshot is a copy
	snap.Subscriptions[OutcomeAccepted] = 100
	if m.Snapshot().Subscriptions[OutcomeAccepted] != 2 {
		t.Error("mutating a snapshot must not affect the recorder")
	}
}

func TestPrometheusRecorder_Handler(t *testing.T) {
	t.Parallel()

	p := NewPrometheus()
	p.IncSubscription(OutcomeAccepted)
	p.IncConfirmation(OutcomeUnknownToken)
	p.IncNewsletterDelivery(DeliveryDelivered)
	p.ObserveEmailSendDuration("ses", 50*time.Millisecond)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`newsletter_subscriptions_total{outcome="accepted"} 1`,
		`newsletter_confirmations_total{outcome="unknown_token"} 1`,
		`newsletter_newsletter_deliveries_total{status="delivered"} 1`,
		`newsletter_email_send_duration_seconds_count{provider="ses"} 1`,
		`go_goroutines`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNoopRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder = NewNoop()
	r.IncSubscription(OutcomeAccepted)
	r.IncConfirmation(OutcomeConfirmed)
	r.IncNewsletterDelivery(DeliveryFailed)
	r.ObserveEmailSendDuration("http", time.Second)
}
