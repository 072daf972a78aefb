package port

import (
	"context"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
)

// EventPublisher publishes identity lifecycle events to the message bus.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error
	PublishUserVerified(ctx context.Context, event domain.UserVerifiedEvent) error
	PublishPasswordResetRequested(ctx context.Context, event domain.PasswordResetRequestedEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
}

// IdentityMetrics receives outcome counts from the identity use cases.
type IdentityMetrics interface {
	ObserveOperation(operation string, err error)
	ObserveTokensPurged(kind string, n int64)
}
