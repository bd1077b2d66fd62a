// Package email delivers transactional and newsletter emails.
package email

import (
	"context"
	"fmt"

	"github.com/thearyanahmed/newsletter/internal/model"
)

// Sender delivers a single email. Implementations do not retry.
type Sender interface {
	SendEmail(ctx context.Context, recipient model.SubscriberEmail, subject, htmlBody, textBody string) error
}

// TransportError is returned when the provider could not be reached or
// rejected the request. StatusCode is zero for connection-level failures.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("email provider returned HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("email provider request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
