package usecase

import (
	"context"
	"errors"
	"time"

	uuid "github.com/google/uuid"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
	"github.com/arklim/reviewapp-auth/internal/core/port"
	"github.com/arklim/reviewapp-auth/internal/repository"
)

const (
	defaultOTPTTL         = 10 * time.Minute
	defaultOTPMaxAttempts = 5
)

// VerificationTokenStore manages the single pending email OTP of each user.
// Codes are stored as keyed hashes and compared in constant time.
type VerificationTokenStore struct {
	repo        port.VerificationTokenRepository
	secrets     port.SecretHasher
	ttl         time.Duration
	maxAttempts int
	now         func() time.Time
}

// NewVerificationTokenStore constructs a store. A non-positive ttl falls back
// to 10 minutes; maxAttempts <= 0 disables attempt limiting.
func NewVerificationTokenStore(repo port.VerificationTokenRepository, secrets port.SecretHasher, ttl time.Duration, maxAttempts int) *VerificationTokenStore {
	if ttl <= 0 {
		ttl = defaultOTPTTL
	}
	return &VerificationTokenStore{
		repo:        repo,
		secrets:     secrets,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// WithClock overrides the clock used for timestamps and expiry checks.
func (s *VerificationTokenStore) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithRepository returns a copy of the store bound to repo, typically the
// transaction-scoped repository handed out by port.Transactor.
func (s *VerificationTokenStore) WithRepository(repo port.VerificationTokenRepository) *VerificationTokenStore {
	clone := *s
	clone.repo = repo
	return &clone
}

// Issue replaces any token the user holds with a fresh one for code.
func (s *VerificationTokenStore) Issue(ctx context.Context, userID, code string) (domain.VerificationToken, error) {
	now := s.now().UTC()
	token := domain.VerificationToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: s.secrets.Hash(code),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.Upsert(ctx, token); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.VerificationToken{}, ErrUserNotFound
		}
		return domain.VerificationToken{}, persistence("store verification token", err)
	}
	return token, nil
}

// Find returns the pending token of the user.
func (s *VerificationTokenStore) Find(ctx context.Context, userID string) (*domain.VerificationToken, error) {
	token, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, persistence("lookup verification token", err)
	}
	return token, nil
}

// Verify checks code against the pending token. Expiry is checked before the
// code so an expired token never reports a mismatch.
func (s *VerificationTokenStore) Verify(ctx context.Context, userID, code string) (*domain.VerificationToken, error) {
	token, err := s.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if token.IsExpired(s.now().UTC()) {
		return nil, ErrTokenExpired
	}
	if !s.secrets.Equal(code, token.TokenHash) {
		return nil, ErrTokenMismatch
	}
	return token, nil
}

// Consume deletes a verified token. A token can be consumed once.
func (s *VerificationTokenStore) Consume(ctx context.Context, token *domain.VerificationToken) error {
	if err := s.repo.Delete(ctx, token.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTokenNotFound
		}
		return persistence("consume verification token", err)
	}
	return nil
}

// Revoke drops whatever token the user holds.
func (s *VerificationTokenStore) Revoke(ctx context.Context, userID string) error {
	if err := s.repo.DeleteByUserID(ctx, userID); err != nil {
		return persistence("revoke verification token", err)
	}
	return nil
}

// RecordFailedAttempt counts a mismatched code against the pending token and
// deletes the token once the attempt limit is reached. It reports whether the
// token was revoked.
func (s *VerificationTokenStore) RecordFailedAttempt(ctx context.Context, userID string) (bool, error) {
	attempts, err := s.repo.IncrementAttempts(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrTokenNotFound
		}
		return false, persistence("record verification attempt", err)
	}
	if s.maxAttempts <= 0 || attempts < s.maxAttempts {
		return false, nil
	}
	if err := s.Revoke(ctx, userID); err != nil {
		return false, err
	}
	return true, nil
}

// Purge deletes tokens that expired at or before the given instant.
func (s *VerificationTokenStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, before)
	if err != nil {
		return 0, persistence("purge verification tokens", err)
	}
	return n, nil
}
