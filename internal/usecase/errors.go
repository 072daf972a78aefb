package usecase

import (
	"errors"
	"fmt"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
	"github.com/arklim/reviewapp-auth/internal/repository"
)

var (
	// ErrInvalidName indicates an empty display name.
	ErrInvalidName = domain.NewError(domain.ErrValidation, "Name is Missing")
	// ErrInvalidEmail indicates a malformed email address.
	ErrInvalidEmail = domain.NewError(domain.ErrValidation, "Email is Invalid")
	// ErrInvalidPassword indicates the password violates the password policy.
	ErrInvalidPassword = domain.NewError(domain.ErrValidation, "Password is Invalid")
	// ErrInvalidUserID indicates a malformed user identifier.
	ErrInvalidUserID = domain.NewError(domain.ErrValidation, "Invalid User")

	// ErrUserNotFound indicates the referenced user does not exist.
	ErrUserNotFound = domain.NewError(domain.ErrNotFound, "User Not Found")
	// ErrTokenNotFound indicates the user has no pending token.
	ErrTokenNotFound = domain.NewError(domain.ErrNotFound, "Token Not Found")

	// ErrDuplicateEmail indicates the email is registered already.
	ErrDuplicateEmail = domain.NewError(domain.ErrConflict, "This email is already present in Database")
	// ErrAlreadyVerified indicates the user verified their email before.
	ErrAlreadyVerified = domain.NewError(domain.ErrConflict, "User is already Verified..!!")

	// ErrTokenExpired indicates the pending token is past its expiry.
	ErrTokenExpired = domain.NewError(domain.ErrCapability, "Token has Expired")
	// ErrTokenMismatch indicates the supplied secret does not match the stored hash.
	ErrTokenMismatch = domain.NewError(domain.ErrCapability, "OTP is Invalid")
	// ErrInvalidCapability indicates a reset link that is unknown, stale or foreign.
	ErrInvalidCapability = domain.NewError(domain.ErrCapability, "Unauthorized Access, Invalid Token")
	// ErrSamePassword indicates a reset to the password already in use.
	ErrSamePassword = domain.NewError(domain.ErrCapability, "New Password must be different from the old Password")

	// ErrInvalidCredentials is returned for unknown emails and wrong passwords alike.
	ErrInvalidCredentials = domain.NewError(domain.ErrAuthentication, "Email/Password not Matched")
	// ErrInvalidSession indicates a missing, invalid or orphaned session token.
	ErrInvalidSession = domain.NewError(domain.ErrAuthentication, "Invalid Token!")
)

var (
	errMissingEmail       = domain.NewError(ErrInvalidEmail, "Email is Missing")
	errMissingPassword    = domain.NewError(ErrInvalidPassword, "Password is Missing")
	errMalformedReset     = domain.NewError(ErrInvalidCapability, "Invalid Token or UserId")
	errUnsupportedStorage = errors.New("identity store not configured")
)

// invalidPassword keeps the policy message while classifying it as ErrInvalidPassword.
func invalidPassword(err error) error {
	return domain.NewError(ErrInvalidPassword, err.Error())
}

// persistence classifies unexpected repository failures.
func persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, op, err)
}

// userLookupError maps repository not-found to ErrUserNotFound.
func userLookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return persistence("lookup user", err)
}
