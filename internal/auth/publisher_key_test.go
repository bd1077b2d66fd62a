package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestGeneratePublisherKey(t *testing.T) {
	t.Parallel()

	key, err := GeneratePublisherKey()
	if err != nil {
		t.Fatalf("GeneratePublisherKey failed: %v", err)
	}

	if !strings.HasPrefix(key.Plaintext, "nlk_") {
		t.Errorf("key should start with nlk_, got: %s", key.Plaintext)
	}
	if len(key.ID) != KeyIDLen {
		t.Errorf("ID should be %d chars, got %d", KeyIDLen, len(key.ID))
	}
	if !strings.HasPrefix(key.Hash, "$argon2id$v=") {
		t.Errorf("hash should be in PHC format, got: %s", key.Hash)
	}

	id, err := ParsePublisherKeyID(key.Plaintext)
	if err != nil {
		t.Fatalf("ParsePublisherKeyID failed: %v", err)
	}
	if id != key.ID {
		t.Errorf("parsed id = %q, want %q", id, key.ID)
	}

	ok, err := VerifyKey(key.Plaintext, key.Hash)
	if err != nil {
		t.Fatalf("VerifyKey failed: %v", err)
	}
	if !ok {
		t.Error("generated key should verify against its hash")
	}
}

func TestParsePublisherKeyID_Invalid(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"nlk_",
		"pk_live_abc123_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b",
		"nlk_ABC123_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b",
		"nlk_abc123_short",
	}

	for _, in := range inputs {
		if _, err := ParsePublisherKeyID(in); !errors.Is(err, ErrInvalidKeyFormat) {
			t.Errorf("ParsePublisherKeyID(%q) error = %v, want ErrInvalidKeyFormat", in, err)
		}
	}
}

func TestVerifyKey(t *testing.T) {
	t.Parallel()

	hash, err := HashKey("correct horse")
	if err != nil {
		t.Fatalf("HashKey failed: %v", err)
	}

	ok, err := VerifyKey("correct horse", hash)
	if err != nil || !ok {
		t.Errorf("VerifyKey(correct) = %v, %v; want true, nil", ok, err)
	}

	ok, err = VerifyKey("battery staple", hash)
	if err != nil || ok {
		t.Errorf("VerifyKey(wrong) = %v, %v; want false, nil", ok, err)
	}
}

func TestVerifyKey_InvalidHash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		hash string
		want error
	}{
		{"empty", "", ErrInvalidHash},
		{"bcrypt", "$2a$10$abcdefghijklmnopqrstuv", ErrInvalidHash},
		{"wrong version", "$argon2id$v=16$m=65536,t=3,p=4$c2FsdA$aGFzaA", ErrIncompatibleVersion},
		{"bad params", "$argon2id$v=19$m=x,t=3,p=4$c2FsdA$aGFzaA", ErrInvalidHash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := VerifyKey("key", tt.hash); !errors.Is(err, tt.want) {
				t.Errorf("VerifyKey error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPublisherContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if got := PublisherFromContext(ctx); got != "" {
		t.Errorf("empty context should yield empty id, got %q", got)
	}

	ctx = ContextWithPublisher(ctx, "abc123")
	if got := PublisherFromContext(ctx); got != "abc123" {
		t.Errorf("PublisherFromContext = %q, want abc123", got)
	}
}
