package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
	"github.com/arklim/reviewapp-auth/internal/core/port"
	"github.com/arklim/reviewapp-auth/internal/infra/logger"
)

// ResetRequest describes an issued reset capability without its secret.
type ResetRequest struct {
	UserID    string
	ExpiresAt time.Time
}

// CompleteResetInput captures the reset form submitted from the emailed link.
type CompleteResetInput struct {
	Token       string
	UserID      string
	NewPassword string
}

// RequestReset issues a reset token for the account behind email, replacing
// any earlier one, and emails the reset link.
func (s *IdentityService) RequestReset(ctx context.Context, email string) (_ *ResetRequest, err error) {
	started := time.Now()
	ctx, end := s.begin(ctx, "request_password_reset")
	defer func() { end(err) }()

	if err := s.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(email) == "" {
		return nil, errMissingEmail
	}
	email, err = normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	// From here on the outcome depends on whether the account exists.
	defer s.padResetResponse(ctx, started)

	user, err := s.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, userLookupError(err)
	}

	raw, err := s.generateToken(s.cfg.ResetTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate reset token: %w", err)
	}
	token, err := s.resets.Issue(ctx, user.ID, raw)
	if err != nil {
		return nil, err
	}

	n, renderErr := s.resetNotification(*user, raw)
	if renderErr != nil {
		// Undeliverable tokens are dropped.
		if err := s.resets.Revoke(ctx, user.ID); err != nil {
			s.log(ctx).Warn("failed to revoke undeliverable reset token", zap.String("user_id", user.ID), zap.Error(err))
		}
		return nil, renderErr
	}
	s.dispatch(ctx, n, nil)

	if s.events != nil {
		event := domain.PasswordResetRequestedEvent{
			EventID:           uuid.NewString(),
			UserID:            user.ID,
			RequestedAt:       token.CreatedAt,
			ExpiresAt:         token.ExpiresAt,
			MaskedDestination: logger.MaskEmail(user.Email),
		}
		if err := s.events.PublishPasswordResetRequested(ctx, event); err != nil {
			s.log(ctx).Warn("failed to publish password reset requested event", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	s.log(ctx).Info("password reset requested", zap.String("user_id", user.ID))
	return &ResetRequest{UserID: user.ID, ExpiresAt: token.ExpiresAt}, nil
}

// padResetResponse blocks until ResetResponseFloor has passed since started,
// hiding the token upsert that only known emails pay for.
func (s *IdentityService) padResetResponse(ctx context.Context, started time.Time) {
	wait := s.cfg.ResetResponseFloor - time.Since(started)
	if wait <= 0 {
		return
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// ValidateResetCapability reports whether token is the live reset capability
// of userID. Every token failure collapses into ErrInvalidCapability.
func (s *IdentityService) ValidateResetCapability(ctx context.Context, token, userID string) (_ *domain.PasswordResetToken, err error) {
	ctx, end := s.begin(ctx, "validate_reset_capability")
	defer func() { end(err) }()

	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.verifyCapability(ctx, s.resets, token, userID)
}

func (s *IdentityService) verifyCapability(ctx context.Context, store *ResetTokenStore, token, userID string) (*domain.PasswordResetToken, error) {
	token = strings.TrimSpace(token)
	id, err := parseUserID(userID)
	if token == "" || err != nil {
		return nil, errMalformedReset
	}
	record, err := store.Verify(ctx, token, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrCapability) {
			return nil, ErrInvalidCapability
		}
		return nil, err
	}
	return record, nil
}

// CompleteReset replaces the user's password using a reset capability. The
// capability is re-checked under lock and consumed in the same transaction.
// Choosing the current password fails with ErrSamePassword and keeps the token.
func (s *IdentityService) CompleteReset(ctx context.Context, input CompleteResetInput) (err error) {
	ctx, end := s.begin(ctx, "complete_password_reset")
	defer func() { end(err) }()

	if err := s.ready(); err != nil {
		return err
	}
	password := strings.TrimSpace(input.NewPassword)

	var (
		user      domain.User
		changedAt time.Time
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		tokens := s.resets.WithRepository(repos.ResetTokens)
		record, err := s.verifyCapability(ctx, tokens, input.Token, input.UserID)
		if err != nil {
			return err
		}

		found, err := repos.Users.GetByID(ctx, record.UserID)
		if err != nil {
			if errors.Is(userLookupError(err), ErrUserNotFound) {
				return ErrInvalidCapability
			}
			return userLookupError(err)
		}

		if err := s.validatePassword(password, domain.PasswordContext{Name: found.Name, Email: found.Email}); err != nil {
			return err
		}

		same, err := s.credentials.Passwords.Verify(password, found.PasswordHash)
		if err != nil {
			return fmt.Errorf("verify current password: %w", err)
		}
		if same {
			return ErrSamePassword
		}

		hash, err := s.credentials.Passwords.Hash(password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		changedAt = s.now().UTC()
		if err := repos.Users.UpdatePassword(ctx, found.ID, hash, changedAt); err != nil {
			return userLookupError(err)
		}
		if err := tokens.Consume(ctx, record); err != nil {
			return err
		}
		user = *found
		return nil
	})
	if err != nil {
		return err
	}

	n, renderErr := s.passwordChangedNotification(user)
	s.dispatch(ctx, n, renderErr)

	if s.events != nil {
		event := domain.PasswordChangedEvent{
			EventID:   uuid.NewString(),
			UserID:    user.ID,
			ChangedAt: changedAt,
			Reason:    passwordChangeReasonReset,
		}
		if err := s.events.PublishPasswordChanged(ctx, event); err != nil {
			s.log(ctx).Warn("failed to publish password changed event", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	s.log(ctx).Info("password reset completed", zap.String("user_id", user.ID))
	return nil
}
