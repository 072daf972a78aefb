package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	uuid "github.com/google/uuid"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
	"github.com/arklim/reviewapp-auth/internal/infra/security"
	"github.com/arklim/reviewapp-auth/internal/repository/memory"
)

func seedStoreUser(t *testing.T, store *memory.Store) string {
	t.Helper()
	id := uuid.NewString()
	err := store.Repositories().Users.Create(context.Background(), domain.User{
		ID:           id,
		Name:         "Bob",
		Email:        id + "@x.com",
		PasswordHash: "hash",
		Role:         domain.RoleUser,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

func newTokenHasher(t *testing.T) *security.TokenHasher {
	t.Helper()
	h, err := security.NewTokenHasher(testSecret)
	if err != nil {
		t.Fatalf("token hasher: %v", err)
	}
	return h
}

func TestVerificationTokenStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	userID := seedStoreUser(t, store)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tokens := NewVerificationTokenStore(store.Repositories().VerificationTokens, newTokenHasher(t), 0, 0)
	tokens.WithClock(func() time.Time { return now })

	issued, err := tokens.Issue(ctx, userID, "123456")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !issued.ExpiresAt.Equal(now.Add(10 * time.Minute)) {
		t.Fatalf("default ttl must be 10 minutes, got %v", issued.ExpiresAt.Sub(now))
	}

	if _, err := tokens.Verify(ctx, userID, "654321"); !errors.Is(err, ErrTokenMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	token, err := tokens.Verify(ctx, userID, "123456")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := tokens.Consume(ctx, token); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if err := tokens.Consume(ctx, token); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("second consume must fail with ErrTokenNotFound, got %v", err)
	}
	if _, err := tokens.Verify(ctx, userID, "123456"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
	if err := tokens.Revoke(ctx, userID); err != nil {
		t.Fatalf("revoke must be idempotent: %v", err)
	}
}

func TestVerificationTokenStoreIssueForUnknownUser(t *testing.T) {
	store := memory.NewStore()
	tokens := NewVerificationTokenStore(store.Repositories().VerificationTokens, newTokenHasher(t), time.Minute, 0)

	if _, err := tokens.Issue(context.Background(), uuid.NewString(), "123456"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestVerificationTokenStoreAttemptsDisabled(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	userID := seedStoreUser(t, store)
	tokens := NewVerificationTokenStore(store.Repositories().VerificationTokens, newTokenHasher(t), time.Minute, 0)

	if _, err := tokens.Issue(ctx, userID, "123456"); err != nil {
		t.Fatalf("issue: %v", err)
	}
	for i := 0; i < 10; i++ {
		revoked, err := tokens.RecordFailedAttempt(ctx, userID)
		if err != nil || revoked {
			t.Fatalf("attempt %d: revoked=%v err=%v", i, revoked, err)
		}
	}
	if _, err := tokens.Find(ctx, userID); err != nil {
		t.Fatalf("token must remain without an attempt limit: %v", err)
	}
}

func TestResetTokenStoreChecksOwnerAndExpiry(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	owner := seedStoreUser(t, store)
	other := seedStoreUser(t, store)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tokens := NewResetTokenStore(store.Repositories().ResetTokens, newTokenHasher(t), 0)
	tokens.WithClock(func() time.Time { return now })

	issued, err := tokens.Issue(ctx, owner, "opaque")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if issued.TokenHash == "opaque" {
		t.Fatalf("reset token must be stored hashed")
	}

	if _, err := tokens.Verify(ctx, "opaque", other); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("foreign user must not find the token, got %v", err)
	}
	if _, err := tokens.Verify(ctx, "opaque", owner); err != nil {
		t.Fatalf("verify: %v", err)
	}

	now = now.Add(time.Hour)
	if _, err := tokens.Verify(ctx, "opaque", owner); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired after one hour, got %v", err)
	}
}

func TestErrorClasses(t *testing.T) {
	cases := []struct {
		err   error
		class error
	}{
		{ErrInvalidName, domain.ErrValidation},
		{ErrInvalidUserID, domain.ErrValidation},
		{errMissingPassword, domain.ErrValidation},
		{invalidPassword(errors.New("too short")), domain.ErrValidation},
		{ErrUserNotFound, domain.ErrNotFound},
		{ErrTokenNotFound, domain.ErrNotFound},
		{ErrDuplicateEmail, domain.ErrConflict},
		{ErrAlreadyVerified, domain.ErrConflict},
		{ErrTokenExpired, domain.ErrCapability},
		{ErrTokenMismatch, domain.ErrCapability},
		{errMalformedReset, domain.ErrCapability},
		{ErrSamePassword, domain.ErrCapability},
		{ErrInvalidCredentials, domain.ErrAuthentication},
		{ErrInvalidSession, domain.ErrAuthentication},
		{persistence("op", errors.New("boom")), domain.ErrPersistence},
	}
	for _, tc := range cases {
		if got := domain.Class(tc.err); got != tc.class {
			t.Fatalf("%v: expected class %v, got %v", tc.err, tc.class, got)
		}
	}
}
