package port

import (
	"time"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
)

// PasswordPolicyValidator enforces password strength requirements.
type PasswordPolicyValidator interface {
	Validate(password string, ctx domain.PasswordContext) error
}

// PasswordHasher hashes and verifies secrets using a slow salted algorithm.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password string, encoded string) (bool, error)
}

// SecretHasher derives one-way digests of OTP codes and reset tokens.
type SecretHasher interface {
	Hash(value string) string
	Equal(value string, hash string) bool
}

// SessionClaims is the verified content of a session credential.
type SessionClaims struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SessionIssuer signs and verifies stateless session credentials.
type SessionIssuer interface {
	Sign(userID string) (string, time.Time, error)
	Verify(token string) (SessionClaims, error)
}
