package domain

import "time"

// VerificationToken is the single pending email OTP of a user. Only the hash of
// the code is stored.
type VerificationToken struct {
	ID        string
	UserID    string
	TokenHash string
	Attempts  int
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the token has elapsed its validity window.
func (t VerificationToken) IsExpired(at time.Time) bool {
	return !t.ExpiresAt.After(at)
}

// PasswordResetToken is the single pending reset capability of a user. Together
// with the owning user id it forms the capability embedded in the reset link.
type PasswordResetToken struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the token has elapsed its validity window.
func (t PasswordResetToken) IsExpired(at time.Time) bool {
	return !t.ExpiresAt.After(at)
}

// BelongsTo reports whether the token was issued for userID.
func (t PasswordResetToken) BelongsTo(userID string) bool {
	return t.UserID != "" && t.UserID == userID
}
