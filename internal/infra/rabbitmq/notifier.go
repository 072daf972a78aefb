package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
	"github.com/arklim/reviewapp-auth/internal/core/port"
	"github.com/arklim/reviewapp-auth/internal/infra/config"
)

// channel is the subset of *amqp.Channel used by the notifier.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Notifier publishes rendered emails to a RabbitMQ queue drained by the mail relay.
type Notifier struct {
	conn    *amqp.Connection
	channel channel
	queue   string
	logger  *zap.Logger
}

// NewNotifier dials RabbitMQ and declares the notification queue.
func NewNotifier(cfg config.RabbitMQSettings, logger *zap.Logger) (*Notifier, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	n, err := newNotifier(ch, cfg, logger)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	n.conn = conn

	logger.Info("rabbitmq notifier initialized", zap.String("queue", cfg.Queue))
	return n, nil
}

func newNotifier(ch channel, cfg config.RabbitMQSettings, logger *zap.Logger) (*Notifier, error) {
	if strings.TrimSpace(cfg.Queue) == "" {
		return nil, errors.New("rabbitmq queue is required")
	}
	if _, err := ch.QueueDeclare(cfg.Queue, cfg.QueueDurable, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", cfg.Queue, err)
	}
	return &Notifier{channel: ch, queue: cfg.Queue, logger: logger}, nil
}

type emailMessage struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Send publishes the notification as a persistent JSON message.
func (n *Notifier) Send(ctx context.Context, msg domain.Notification) error {
	body, err := json.Marshal(emailMessage{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("%w: marshal notification: %w", domain.ErrDelivery, err)
	}

	err = n.channel.PublishWithContext(ctx, "", n.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Type:         string(msg.Kind),
		Headers: amqp.Table{
			"user_id": msg.UserID,
		},
		Body: body,
	})
	if err != nil {
		return fmt.Errorf("%w: publish to %s: %w", domain.ErrDelivery, n.queue, err)
	}
	return nil
}

// Close closes the channel and connection.
func (n *Notifier) Close() error {
	if n.channel != nil {
		_ = n.channel.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}

var _ port.Notifier = (*Notifier)(nil)
