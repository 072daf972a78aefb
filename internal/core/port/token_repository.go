package port

import (
	"context"
	"time"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
)

// VerificationTokenRepository persists email OTP tokens. Implementations keep at
// most one row per user: Upsert replaces whatever the user had before.
type VerificationTokenRepository interface {
	Upsert(ctx context.Context, token domain.VerificationToken) error
	GetByUserID(ctx context.Context, userID string) (*domain.VerificationToken, error)
	IncrementAttempts(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// ResetTokenRepository persists password reset tokens, one row per user.
type ResetTokenRepository interface {
	Upsert(ctx context.Context, token domain.PasswordResetToken) error
	GetByUserID(ctx context.Context, userID string) (*domain.PasswordResetToken, error)
	Delete(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Repositories groups the repositories that take part in a unit of work.
type Repositories struct {
	Users              UserRepository
	VerificationTokens VerificationTokenRepository
	ResetTokens        ResetTokenRepository
}

// Transactor runs fn against repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise. Token reads
// made through the bound repositories lock the row until the transaction ends.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
