// Package auth provides token generation and the publisher key gate.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
)

// Publisher key format: nlk_{id}_{secret}
// Example: nlk_7a9x3k_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b
const (
	KeyIDLen     = 6
	KeySecretLen = 32
)

var (
	// ErrInvalidKeyFormat indicates the key format is invalid.
	ErrInvalidKeyFormat = errors.New("invalid publisher key format")

	keyFormatRegex = regexp.MustCompile(`^nlk_([a-f0-9]{6})_([a-f0-9]{32})$`)
)

// PublisherKey is a freshly generated key.
type PublisherKey struct {
	Plaintext string // shown once
	Hash      string // goes into PUBLISHER_KEY_HASH
	ID        string // safe to log
}

// GeneratePublisherKey creates a new publisher key and its hash.
func GeneratePublisherKey() (*PublisherKey, error) {
	idBytes := make([]byte, KeyIDLen/2)
	if _, err := rand.Read(idBytes); err != nil {
		return nil, fmt.Errorf("generate key id: %w", err)
	}

	secretBytes := make([]byte, KeySecretLen/2)
	if _, err := rand.Read(secretBytes); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}

	id := hex.EncodeToString(idBytes)
	plaintext := fmt.Sprintf("nlk_%s_%s", id, hex.EncodeToString(secretBytes))

	hash, err := HashKey(plaintext)
	if err != nil {
		return nil, fmt.Errorf("hash key: %w", err)
	}

	return &PublisherKey{Plaintext: plaintext, Hash: hash, ID: id}, nil
}

// ParsePublisherKeyID returns the visible id part of a key.
func ParsePublisherKeyID(key string) (string, error) {
	matches := keyFormatRegex.FindStringSubmatch(key)
	if matches == nil {
		return "", ErrInvalidKeyFormat
	}
	return matches[1], nil
}

type contextKey string

const publisherContextKey contextKey = "publisher_key_id"

// ContextWithPublisher records the authenticated publisher key id.
func ContextWithPublisher(ctx context.Context, keyID string) context.Context {
	return context.WithValue(ctx, publisherContextKey, keyID)
}

// PublisherFromContext returns the publisher key id, or "" when the
// request was not authenticated.
func PublisherFromContext(ctx context.Context) string {
	id, _ := ctx.Value(publisherContextKey).(string)
	return id
}
