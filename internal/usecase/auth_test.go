package usecase

import (
	"context"
	"errors"
	"testing"

	uuid "github.com/google/uuid"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
)

func TestAuthenticateReturnsSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.register(t, "a@x.com", "482913")

	session, err := h.svc.Authenticate(ctx, "A@X.COM", " "+testPassword+" ")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if session.User.ID != user.ID || session.User.Role != domain.RoleUser {
		t.Fatalf("unexpected session user %+v", session.User)
	}
	if session.User.IsVerified {
		t.Fatalf("unverified users may sign in but must be reported unverified")
	}
	if session.Token == "" || session.ExpiresAt.IsZero() {
		t.Fatalf("session must carry a token and expiry")
	}

	userID, err := h.svc.Authorize(session.Token)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	profile, err := h.svc.CurrentUser(ctx, userID)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if profile.Email != "a@x.com" {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register(t, "a@x.com", "482913")

	_, unknownErr := h.svc.Authenticate(ctx, "nobody@x.com", testPassword)
	_, wrongErr := h.svc.Authenticate(ctx, "a@x.com", "wrong-password")

	if !errors.Is(unknownErr, ErrInvalidCredentials) || !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v and %v", unknownErr, wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatalf("messages differ: %q vs %q", unknownErr.Error(), wrongErr.Error())
	}
	if !errors.Is(unknownErr, domain.ErrAuthentication) {
		t.Fatalf("expected authentication class")
	}
}

func TestAuthenticateInputValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.svc.Authenticate(ctx, "bad", testPassword); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := h.svc.Authenticate(ctx, "a@x.com", "  "); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestAuthorizeRejectsInvalidTokens(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := h.svc.Authorize(token); !errors.Is(err, ErrInvalidSession) {
			t.Fatalf("token %q: expected ErrInvalidSession, got %v", token, err)
		}
	}
	if _, err := h.svc.CurrentUser(ctx, uuid.NewString()); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("orphaned session must be invalid, got %v", err)
	}
}
