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

const defaultResetTTL = time.Hour

// ResetTokenStore manages the single pending password reset token of each user.
type ResetTokenStore struct {
	repo    port.ResetTokenRepository
	secrets port.SecretHasher
	ttl     time.Duration
	now     func() time.Time
}

// NewResetTokenStore constructs a store. A non-positive ttl falls back to one hour.
func NewResetTokenStore(repo port.ResetTokenRepository, secrets port.SecretHasher, ttl time.Duration) *ResetTokenStore {
	if ttl <= 0 {
		ttl = defaultResetTTL
	}
	return &ResetTokenStore{
		repo:    repo,
		secrets: secrets,
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock overrides the clock used for timestamps and expiry checks.
func (s *ResetTokenStore) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithRepository returns a copy of the store bound to repo.
func (s *ResetTokenStore) WithRepository(repo port.ResetTokenRepository) *ResetTokenStore {
	clone := *s
	clone.repo = repo
	return &clone
}

// Issue replaces any reset token the user holds with one for raw.
func (s *ResetTokenStore) Issue(ctx context.Context, userID, raw string) (domain.PasswordResetToken, error) {
	now := s.now().UTC()
	token := domain.PasswordResetToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: s.secrets.Hash(raw),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.Upsert(ctx, token); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.PasswordResetToken{}, ErrUserNotFound
		}
		return domain.PasswordResetToken{}, persistence("store password reset token", err)
	}
	return token, nil
}

// Find returns the pending reset token of the user.
func (s *ResetTokenStore) Find(ctx context.Context, userID string) (*domain.PasswordResetToken, error) {
	token, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, persistence("lookup password reset token", err)
	}
	return token, nil
}

// Verify checks that raw is the pending token of userID.
func (s *ResetTokenStore) Verify(ctx context.Context, raw, userID string) (*domain.PasswordResetToken, error) {
	token, err := s.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !token.BelongsTo(userID) {
		return nil, ErrTokenMismatch
	}
	if token.IsExpired(s.now().UTC()) {
		return nil, ErrTokenExpired
	}
	if !s.secrets.Equal(raw, token.TokenHash) {
		return nil, ErrTokenMismatch
	}
	return token, nil
}

// Consume deletes a verified token. A token can be consumed once.
func (s *ResetTokenStore) Consume(ctx context.Context, token *domain.PasswordResetToken) error {
	if err := s.repo.Delete(ctx, token.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTokenNotFound
		}
		return persistence("consume password reset token", err)
	}
	return nil
}

// Revoke drops whatever reset token the user holds.
func (s *ResetTokenStore) Revoke(ctx context.Context, userID string) error {
	if err := s.repo.DeleteByUserID(ctx, userID); err != nil {
		return persistence("revoke password reset token", err)
	}
	return nil
}

// Purge deletes tokens that expired at or before the given instant.
func (s *ResetTokenStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, before)
	if err != nil {
		return 0, persistence("purge password reset tokens", err)
	}
	return n, nil
}
