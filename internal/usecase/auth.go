package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
	"github.com/arklim/reviewapp-auth/internal/infra/logger"
)

// Authenticate signs a user in with email and password. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (_ *Session, err error) {
	ctx, end := s.begin(ctx, "authenticate")
	defer func() { end(err) }()

	if err := s.ready(); err != nil {
		return nil, err
	}
	email, err = normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	password = strings.TrimSpace(password)
	if password == "" {
		return nil, errMissingPassword
	}

	user, err := s.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		if lookupErr := userLookupError(err); !errors.Is(lookupErr, ErrUserNotFound) {
			return nil, lookupErr
		}
		if hash := s.dummyPasswordHash(); hash != "" {
			_, _ = s.credentials.Passwords.Verify(password, hash)
		}
		s.log(ctx).Info("sign-in rejected", zap.String("email", logger.MaskEmail(email)))
		return nil, ErrInvalidCredentials
	}

	ok, err := s.credentials.Passwords.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.log(ctx).Info("sign-in rejected", zap.String("email", logger.MaskEmail(email)))
		return nil, ErrInvalidCredentials
	}

	session, err := s.signSession(*user)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return session, nil
}

// Authorize resolves a bearer session token to the user id it was issued for.
func (s *IdentityService) Authorize(token string) (string, error) {
	if s.credentials.Sessions == nil {
		return "", errUnsupportedStorage
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidSession
	}
	claims, err := s.credentials.Sessions.Verify(token)
	if err != nil {
		return "", ErrInvalidSession
	}
	return claims.UserID, nil
}

// CurrentUser returns the profile behind an authorized session. A session
// whose user no longer exists is invalid.
func (s *IdentityService) CurrentUser(ctx context.Context, userID string) (_ domain.PublicUser, err error) {
	ctx, end := s.begin(ctx, "current_user")
	defer func() { end(err) }()

	if err := s.ready(); err != nil {
		return domain.PublicUser{}, err
	}
	userID, err = parseUserID(userID)
	if err != nil {
		return domain.PublicUser{}, ErrInvalidSession
	}
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		if lookupErr := userLookupError(err); !errors.Is(lookupErr, ErrUserNotFound) {
			return domain.PublicUser{}, lookupErr
		}
		return domain.PublicUser{}, ErrInvalidSession
	}
	return user.Public(), nil
}
