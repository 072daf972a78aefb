package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
	"github.com/arklim/reviewapp-auth/internal/core/port"
	"github.com/arklim/reviewapp-auth/internal/infra/logger"
	"github.com/arklim/reviewapp-auth/internal/repository"
)

// RegisterInput captures the sign-up form.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates an unverified user with a pending email OTP and sends the
// code to the user's email once the transaction commits.
func (s *IdentityService) Register(ctx context.Context, input RegisterInput) (_ domain.PublicUser, err error) {
	ctx, end := s.begin(ctx, "register")
	defer func() { end(err) }()

	if err := s.ready(); err != nil {
		return domain.PublicUser{}, err
	}

	name, err := normalizeName(input.Name)
	if err != nil {
		return domain.PublicUser{}, err
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return domain.PublicUser{}, err
	}
	password := strings.TrimSpace(input.Password)
	if err := s.validatePassword(password, domain.PasswordContext{Name: name, Email: email}); err != nil {
		return domain.PublicUser{}, err
	}

	passwordHash, err := s.credentials.Passwords.Hash(password)
	if err != nil {
		return domain.PublicUser{}, fmt.Errorf("hash password: %w", err)
	}
	code, err := s.generateCode(s.cfg.OTPLength)
	if err != nil {
		return domain.PublicUser{}, fmt.Errorf("generate verification code: %w", err)
	}

	now := s.now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return domain.PublicUser{}, err
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		if _, err := repos.Users.GetByEmail(ctx, email); err == nil {
			return ErrDuplicateEmail
		} else if !errors.Is(err, repository.ErrNotFound) {
			return persistence("lookup user by email", err)
		}
		if err := repos.Users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrDuplicateEmail
			}
			return persistence("create user", err)
		}
		_, err := s.verifications.WithRepository(repos.VerificationTokens).Issue(ctx, user.ID, code)
		return err
	})
	if err != nil {
		return domain.PublicUser{}, err
	}

	n, renderErr := s.verificationNotification(user, code)
	s.dispatch(ctx, n, renderErr)

	if s.events != nil {
		event := domain.UserRegisteredEvent{
			EventID:      uuid.NewString(),
			UserID:       user.ID,
			Name:         user.Name,
			Email:        user.Email,
			Role:         user.Role,
			RegisteredAt: now,
		}
		if err := s.events.PublishUserRegistered(ctx, event); err != nil {
			s.log(ctx).Warn("failed to publish user registered event", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	s.log(ctx).Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("email", logger.MaskEmail(user.Email)),
	)
	return user.Public(), nil
}

// Resend replaces the pending OTP of an unverified user and emails the new code.
func (s *IdentityService) Resend(ctx context.Context, userID string) (err error) {
	ctx, end := s.begin(ctx, "resend_verification")
	defer func() { end(err) }()

	if err := s.ready(); err != nil {
		return err
	}
	userID, err = parseUserID(userID)
	if err != nil {
		return err
	}
	code, err := s.generateCode(s.cfg.OTPLength)
	if err != nil {
		return fmt.Errorf("generate verification code: %w", err)
	}

	var user *domain.User
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		found, err := repos.Users.GetByID(ctx, userID)
		if err != nil {
			return userLookupError(err)
		}
		if found.IsVerified {
			return ErrAlreadyVerified
		}
		user = found
		_, err = s.verifications.WithRepository(repos.VerificationTokens).Issue(ctx, userID, code)
		return err
	})
	if err != nil {
		return err
	}

	n, renderErr := s.verificationNotification(*user, code)
	s.dispatch(ctx, n, renderErr)
	return nil
}

// Confirm verifies the user's email with code. On success the user is marked
// verified and the token deleted in one transaction; a session is returned.
func (s *IdentityService) Confirm(ctx context.Context, userID, code string) (_ *Session, err error) {
	ctx, end := s.begin(ctx, "confirm_verification")
	defer func() { end(err) }()

	if err := s.ready(); err != nil {
		return nil, err
	}
	userID, err = parseUserID(userID)
	if err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)

	var user domain.User
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		found, err := repos.Users.GetByID(ctx, userID)
		if err != nil {
			return userLookupError(err)
		}
		if found.IsVerified {
			return ErrAlreadyVerified
		}

		tokens := s.verifications.WithRepository(repos.VerificationTokens)
		token, err := tokens.Verify(ctx, userID, code)
		if err != nil {
			return err
		}

		verifiedAt := s.now().UTC()
		if err := repos.Users.MarkVerified(ctx, userID, verifiedAt); err != nil {
			return userLookupError(err)
		}
		if err := tokens.Consume(ctx, token); err != nil {
			return err
		}

		found.IsVerified = true
		found.VerifiedAt = &verifiedAt
		user = *found
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrTokenMismatch) {
			s.recordFailedAttempt(ctx, userID)
		}
		return nil, err
	}

	n, renderErr := s.welcomeNotification(user)
	s.dispatch(ctx, n, renderErr)

	if s.events != nil {
		event := domain.UserVerifiedEvent{
			EventID:    uuid.NewString(),
			UserID:     user.ID,
			VerifiedAt: *user.VerifiedAt,
		}
		if err := s.events.PublishUserVerified(ctx, event); err != nil {
			s.log(ctx).Warn("failed to publish user verified event", zap.String("user_id", user.ID), zap.Error(err))
		}
	}

	session, err := s.signSession(user)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	s.log(ctx).Info("email verified", zap.String("user_id", user.ID))
	return session, nil
}

// recordFailedAttempt runs outside the confirmation transaction, which has
// already rolled back.
func (s *IdentityService) recordFailedAttempt(ctx context.Context, userID string) {
	revoked, err := s.verifications.RecordFailedAttempt(ctx, userID)
	switch {
	case errors.Is(err, ErrTokenNotFound):
	case err != nil:
		s.log(ctx).Warn("failed to record verification attempt", zap.String("user_id", userID), zap.Error(err))
	case revoked:
		s.log(ctx).Info("verification token revoked after too many attempts", zap.String("user_id", userID))
	}
}
