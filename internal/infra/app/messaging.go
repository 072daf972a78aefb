package app

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/arklim/reviewapp-auth/internal/core/port"
	"github.com/arklim/reviewapp-auth/internal/infra/config"
	kafkainfra "github.com/arklim/reviewapp-auth/internal/infra/kafka"
	"github.com/arklim/reviewapp-auth/internal/infra/mailer"
	"github.com/arklim/reviewapp-auth/internal/infra/notify"
	"github.com/arklim/reviewapp-auth/internal/infra/rabbitmq"
)

// messaging owns the outbound transports: the Kafka producer shared by events
// and the kafka notifier, and whichever notifier the config selects.
type messaging struct {
	events   port.EventPublisher
	notifier port.Notifier
	closers  []io.Closer
}

func newMessaging(cfg *config.AppConfig, log *zap.Logger) (*messaging, error) {
	m := &messaging{}

	var producer *kafkainfra.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		p, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			if cfg.Notification.Driver == "kafka" {
				return nil, fmt.Errorf("init kafka producer: %w", err)
			}
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
		} else {
			producer = p
			m.closers = append(m.closers, p)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
	}

	if producer != nil {
		m.events = kafkainfra.NewEventPublisher(producer, cfg.App, log)
	} else {
		m.events = kafkainfra.NewStubPublisher(log)
	}

	switch cfg.Notification.Driver {
	case "log":
		m.notifier = notify.NewLoggingNotifier(log, cfg.App.Env != "production")
	case "smtp":
		smtp, err := mailer.NewSMTPNotifier(cfg.SMTP, log)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("init smtp notifier: %w", err)
		}
		m.notifier = smtp
	case "kafka":
		if producer == nil {
			m.Close()
			return nil, fmt.Errorf("notification driver kafka requires kafka.brokers")
		}
		m.notifier = kafkainfra.NewNotifier(producer, cfg.Kafka.NotificationTopic)
	case "amqp":
		amqp, err := rabbitmq.NewNotifier(cfg.RabbitMQ, log)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("init amqp notifier: %w", err)
		}
		m.notifier = amqp
		m.closers = append(m.closers, amqp)
	default:
		m.Close()
		return nil, fmt.Errorf("unsupported notification driver %q", cfg.Notification.Driver)
	}

	return m, nil
}

// Close releases transports in reverse order of creation.
func (m *messaging) Close() error {
	var first error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	m.closers = nil
	return first
}
