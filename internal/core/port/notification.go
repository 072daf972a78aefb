package port

import (
	"context"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
)

// Notifier delivers a single notification synchronously. Transport failures are
// reported as errors classified domain.ErrDelivery.
type Notifier interface {
	Send(ctx context.Context, n domain.Notification) error
}

// NotificationDispatcher hands notifications off for delivery without blocking
// the caller. Delivery failures never reach the caller.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, n domain.Notification)
}
