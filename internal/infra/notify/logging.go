package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
	"github.com/arklim/reviewapp-auth/internal/core/port"
	"github.com/arklim/reviewapp-auth/internal/infra/logger"
)

// LoggingNotifier records notifications instead of delivering them. It is the
// development transport; with includeBody set the rendered HTML, and with it
// the OTP or reset link, is written to the log.
type LoggingNotifier struct {
	logger      *zap.Logger
	includeBody bool
}

// NewLoggingNotifier constructs a notifier backed by structured logging.
func NewLoggingNotifier(log *zap.Logger, includeBody bool) *LoggingNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoggingNotifier{logger: log, includeBody: includeBody}
}

func (n *LoggingNotifier) Send(_ context.Context, msg domain.Notification) error {
	fields := []zap.Field{
		zap.String("notification_id", msg.ID),
		zap.String("kind", string(msg.Kind)),
		zap.String("user_id", msg.UserID),
		zap.String("from", msg.From),
		zap.String("to", logger.MaskEmail(msg.To)),
		zap.String("subject", msg.Subject),
	}
	if n.includeBody {
		fields = append(fields, zap.String("html", msg.HTML))
	}

	n.logger.Info("notification dispatched", fields...)
	return nil
}

var _ port.Notifier = (*LoggingNotifier)(nil)
