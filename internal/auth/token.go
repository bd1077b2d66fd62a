package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// SubscriptionTokenLength is the number of characters in a confirmation token.
	SubscriptionTokenLength = 25
	tokenAlphabet           = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

var tokenAlphabetSize = big.NewInt(int64(len(tokenAlphabet)))

// GenerateSubscriptionToken returns a random alphanumeric confirmation token.
// Each character is drawn uniformly from [A-Za-z0-9] using crypto/rand.
// Uniqueness is not guaranteed; the store rejects collisions.
func GenerateSubscriptionToken() (string, error) {
	b := make([]byte, SubscriptionTokenLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, tokenAlphabetSize)
		if err != nil {
			return "", fmt.Errorf("generate subscription token: %w", err)
		}
		b[i] = tokenAlphabet[n.Int64()]
	}
	return string(b), nil
}
