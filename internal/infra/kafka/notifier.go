package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
	"github.com/arklim/reviewapp-auth/internal/core/port"
)

// Notifier hands rendered emails to a mail relay consuming a Kafka topic.
type Notifier struct {
	producer *Producer
	topic    string
}

// NewNotifier publishes notifications to topic (prefixed like every other topic).
func NewNotifier(producer *Producer, topic string) *Notifier {
	return &Notifier{producer: producer, topic: producer.TopicName(topic)}
}

type emailMessage struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	UserID  string `json:"user_id"`
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Send enqueues the notification on the producer.
func (n *Notifier) Send(ctx context.Context, msg domain.Notification) error {
	body, err := json.Marshal(emailMessage{
		ID:      msg.ID,
		Kind:    string(msg.Kind),
		UserID:  msg.UserID,
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("%w: marshal notification: %w", domain.ErrDelivery, err)
	}

	message := &sarama.ProducerMessage{
		Topic: n.topic,
		Key:   sarama.StringEncoder(msg.UserID),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("kind"), Value: []byte(msg.Kind)},
		},
	}

	select {
	case n.producer.Input() <- message:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: enqueue notification: %w", domain.ErrDelivery, ctx.Err())
	}
}

var _ port.Notifier = (*Notifier)(nil)
