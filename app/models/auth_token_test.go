package models

import (
	"strings"
	"testing"
	"time"
)

func TestNewAuthToken(t *testing.T) {
	raw, token, err := NewAuthToken(7, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(raw, "lmy_") {
		t.Fatalf("expected lmy_ prefix, got %q", raw)
	}
	if token.UserID != 7 {
		t.Fatalf("expected user id 7, got %d", token.UserID)
	}
	if token.TokenHash != HashToken(raw) {
		t.Fatalf("stored hash does not match the raw token")
	}
	if !token.ExpiresAt.After(time.Now()) {
		t.Fatalf("expected future expiry, got %v", token.ExpiresAt)
	}

	// Two tokens must never collide.
	raw2, _, err := NewAuthToken(7, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw == raw2 {
		t.Fatalf("expected unique tokens")
	}
}

func TestHashToken(t *testing.T) {
	if HashToken("abc") != HashToken(" abc ") {
		t.Fatalf("expected hash to ignore surrounding whitespace")
	}
	if len(HashToken("abc")) != 64 {
		t.Fatalf("expected 64 hex chars")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Fatalf("different tokens must hash differently")
	}
}
