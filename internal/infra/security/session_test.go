package security

import (
	"errors"
	"testing"
	"time"
)

func TestSessionIssuerRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer, err := NewSessionIssuer("secret", "reviewapp-auth", time.Hour)
	if err != nil {
		t.Fatalf("NewSessionIssuer returned error: %v", err)
	}
	issuer.WithClock(func() time.Time { return now })

	token, expiresAt, err := issuer.Sign("user-1")
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}
	if !expiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", expiresAt)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("expected user-1, got %s", claims.UserID)
	}
	if !claims.IssuedAt.Equal(now) {
		t.Fatalf("unexpected issued at %v", claims.IssuedAt)
	}
}

func TestSessionIssuerRejectsExpiredToken(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer, _ := NewSessionIssuer("secret", "", time.Minute)
	issuer.WithClock(func() time.Time { return now })

	token, _, err := issuer.Sign("user-1")
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}

	issuer.WithClock(func() time.Time { return now.Add(2 * time.Minute) })
	if _, err := issuer.Verify(token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestSessionIssuerRejectsForeignSignature(t *testing.T) {
	signer, _ := NewSessionIssuer("secret-a", "", time.Hour)
	verifier, _ := NewSessionIssuer("secret-b", "", time.Hour)

	token, _, err := signer.Sign("user-1")
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}
	if _, err := verifier.Verify(token); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid, got %v", err)
	}
	if _, err := verifier.Verify("not-a-jwt"); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid for garbage, got %v", err)
	}
}

func TestSessionIssuerRejectsWrongIssuer(t *testing.T) {
	signer, _ := NewSessionIssuer("secret", "someone-else", time.Hour)
	verifier, _ := NewSessionIssuer("secret", "reviewapp-auth", time.Hour)

	token, _, _ := signer.Sign("user-1")
	if _, err := verifier.Verify(token); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid, got %v", err)
	}
}

func TestNewSessionIssuerRequiresSecret(t *testing.T) {
	if _, err := NewSessionIssuer(" ", "", time.Hour); err == nil {
		t.Fatal("expected error for blank secret")
	}
}
