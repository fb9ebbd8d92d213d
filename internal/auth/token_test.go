package auth

import (
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	tok, err := m.Issue("u-123", "ana@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "u-123" {
		t.Errorf("subject = %q, want u-123", claims.Subject)
	}
	if claims.Email != "ana@example.com" {
		t.Errorf("email = %q, want ana@example.com", claims.Email)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	tok, err := NewTokenManager("secret-a", time.Hour).Issue("u-1", "a@b.c")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewTokenManager("secret-b", time.Hour).Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
}

func TestTokenExpiry(t *testing.T) {
	m := NewTokenManager("test-secret", time.Minute)
	issued := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	tok, err := m.Issue("u-1", "a@b.c")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	m.now = func() time.Time { return issued.Add(30 * time.Second) }
	if _, err := m.Verify(tok); err != nil {
		t.Fatalf("verify before expiry: %v", err)
	}

	m.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := m.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v after expiry, want ErrInvalidToken", err)
	}
}

func TestTokenGarbage(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.Verify(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q) = %v, want ErrInvalidToken", tok, err)
		}
	}
}
