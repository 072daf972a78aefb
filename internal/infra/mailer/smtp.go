package mailer

import (
	"context"
	"fmt"

	mail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
	"github.com/arklim/reviewapp-auth/internal/core/port"
	"github.com/arklim/reviewapp-auth/internal/infra/config"
	"github.com/arklim/reviewapp-auth/internal/infra/logger"
)

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPNotifier delivers notifications over SMTP.
type SMTPNotifier struct {
	client sender
	logger *zap.Logger
}

// NewSMTPNotifier builds a client for cfg. Authentication is enabled only when
// a username is configured; TLS is mandatory when cfg.TLS is set and
// opportunistic otherwise.
func NewSMTPNotifier(cfg config.SMTPSettings, log *zap.Logger) (*SMTPNotifier, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &SMTPNotifier{client: client, logger: log}, nil
}

// Send renders n into a MIME message and delivers it.
func (s *SMTPNotifier) Send(ctx context.Context, n domain.Notification) error {
	msg, err := buildMessage(n)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrDelivery, err)
	}

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%w: smtp send: %w", domain.ErrDelivery, err)
	}

	s.logger.Debug("email sent",
		zap.String("kind", string(n.Kind)),
		zap.String("to", logger.MaskEmail(n.To)),
	)
	return nil
}

func buildMessage(n domain.Notification) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(n.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", n.From, err)
	}
	if err := msg.To(n.To); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(n.Subject)
	msg.SetBodyString(mail.TypeTextHTML, n.HTML)
	if n.ID != "" {
		msg.SetMessageIDWithValue(n.ID)
	}
	return msg, nil
}

var _ port.Notifier = (*SMTPNotifier)(nil)
