package mailer

import (
	"context"
	"errors"
	"testing"

	mail "github.com/wneessen/go-mail"
	"go.uber.org/zap/zaptest"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
)

type fakeSender struct {
	sent []*mail.Msg
	err  error
}

func (f *fakeSender) DialAndSendWithContext(_ context.Context, messages ...*mail.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, messages...)
	return nil
}

func TestSMTPNotifierSend(t *testing.T) {
	fake := &fakeSender{}
	n := &SMTPNotifier{client: fake, logger: zaptest.NewLogger(t)}

	err := n.Send(context.Background(), domain.Notification{
		ID:      "n-1",
		Kind:    domain.NotificationWelcome,
		From:    "verification@reviewapp.com",
		To:      "jane@example.com",
		Subject: "Welcome Email",
		HTML:    "<h1>Welcome to our app and thanks for choosing us.</h1>",
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if len(fake.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(fake.sent))
	}

	rcpts, err := fake.sent[0].GetRecipients()
	if err != nil {
		t.Fatalf("GetRecipients returned error: %v", err)
	}
	if len(rcpts) != 1 || rcpts[0] != "jane@example.com" {
		t.Fatalf("unexpected recipients %v", rcpts)
	}
	if subject := fake.sent[0].GetGenHeader(mail.HeaderSubject); len(subject) != 1 || subject[0] != "Welcome Email" {
		t.Fatalf("unexpected subject %v", subject)
	}
}

func TestSMTPNotifierRejectsInvalidRecipient(t *testing.T) {
	fake := &fakeSender{}
	n := &SMTPNotifier{client: fake, logger: zaptest.NewLogger(t)}

	err := n.Send(context.Background(), domain.Notification{From: "verification@reviewapp.com", To: "not an address"})
	if !errors.Is(err, domain.ErrDelivery) {
		t.Fatalf("expected ErrDelivery, got %v", err)
	}
	if len(fake.sent) != 0 {
		t.Fatal("nothing should be sent for an invalid recipient")
	}
}

func TestSMTPNotifierWrapsTransportFailure(t *testing.T) {
	n := &SMTPNotifier{client: &fakeSender{err: errors.New("connection refused")}, logger: zaptest.NewLogger(t)}

	err := n.Send(context.Background(), domain.Notification{From: "verification@reviewapp.com", To: "jane@example.com"})
	if !errors.Is(err, domain.ErrDelivery) {
		t.Fatalf("expected ErrDelivery, got %v", err)
	}
}
