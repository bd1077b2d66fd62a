// Package model defines domain entities for the application.
package model

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus is the lifecycle state of a subscriber.
// It only ever moves from pending_confirmation to confirmed.
type SubscriptionStatus string

const (
	StatusPendingConfirmation SubscriptionStatus = "pending_confirmation"
	StatusConfirmed           SubscriptionStatus = "confirmed"
)

// IsValid checks if the status is a known value.
func (s SubscriptionStatus) IsValid() bool {
	return s == StatusPendingConfirmation || s == StatusConfirmed
}

// NewSubscriber is a validated subscription request. It has no identity yet.
type NewSubscriber struct {
	Name  SubscriberName
	Email SubscriberEmail
}

// ParseNewSubscriber validates both form fields.
// The name is checked first, so its error wins when both are invalid.
func ParseNewSubscriber(name, email string) (NewSubscriber, error) {
	parsedName, err := ParseSubscriberName(name)
	if err != nil {
		return NewSubscriber{}, err
	}

	parsedEmail, err := ParseSubscriberEmail(email)
	if err != nil {
		return NewSubscriber{}, err
	}

	return NewSubscriber{Name: parsedName, Email: parsedEmail}, nil
}

// Subscriber represents a persisted subscription.
type Subscriber struct {
	ID           uuid.UUID          `json:"id"`
	Email        string             `json:"email"`
	Name         string             `json:"name"`
	SubscribedAt time.Time          `json:"subscribed_at"`
	Status       SubscriptionStatus `json:"status"`
}

// ConfirmationToken links an opaque token to the subscriber it confirms.
type ConfirmationToken struct {
	Token        string    `json:"-"`
	SubscriberID uuid.UUID `json:"subscriber_id"`
}
