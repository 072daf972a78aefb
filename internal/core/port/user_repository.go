package port

import (
	"context"
	"time"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
)

// UserRepository exposes persistence behavior for user credentials.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	MarkVerified(ctx context.Context, id string, at time.Time) error
	UpdatePassword(ctx context.Context, id string, passwordHash string, changedAt time.Time) error
}
