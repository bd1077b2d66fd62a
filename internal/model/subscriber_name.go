package model

import (
	"strings"

	"github.com/rivo/uniseg"
)

// MaxSubscriberNameLength is counted in grapheme clusters, not bytes.
const MaxSubscriberNameLength = 256

const forbiddenNameChars = `/()"<>\{}[]`

// SubscriberName is a validated subscriber display name.
type SubscriberName struct {
	value string
}

// ParseSubscriberName validates raw and wraps it.
// The value is kept as submitted; trimming is only used for the emptiness check.
func ParseSubscriberName(raw string) (SubscriberName, error) {
	if strings.TrimSpace(raw) == "" {
		return SubscriberName{}, invalid("name", "is empty")
	}

	if uniseg.GraphemeClusterCount(raw) > MaxSubscriberNameLength {
		return SubscriberName{}, invalid("name", "is too long")
	}

	if strings.ContainsAny(raw, forbiddenNameChars) {
		return SubscriberName{}, invalid("name", "contains forbidden characters")
	}

	return SubscriberName{value: raw}, nil
}

// String returns the underlying name.
func (n SubscriberName) String() string {
	return n.value
}
