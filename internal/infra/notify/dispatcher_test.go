package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
	"github.com/arklim/reviewapp-auth/internal/infra/logger"
)

type recordingNotifier struct {
	mu      sync.Mutex
	sent    []domain.Notification
	ctxs    []context.Context
	err     error
	release chan struct{}
}

func (r *recordingNotifier) Send(ctx context.Context, n domain.Notification) error {
	if r.release != nil {
		<-r.release
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	r.ctxs = append(r.ctxs, ctx)
	return r.err
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

type countingRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (c *countingRecorder) ObserveNotification(_ domain.NotificationKind, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.outcomes == nil {
		c.outcomes = make(map[string]int)
	}
	c.outcomes[outcome]++
}

func (c *countingRecorder) get(outcome string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcomes[outcome]
}

func TestDispatcherDeliversDetachedFromCallerContext(t *testing.T) {
	notifier := &recordingNotifier{}
	recorder := &countingRecorder{}
	d := NewDispatcher(notifier, DispatcherConfig{Workers: 2, QueueSize: 4, SendTimeout: time.Second}, zaptest.NewLogger(t), recorder)

	ctx, cancel := context.WithCancel(logger.ContextWithRequestID(context.Background(), "req-1"))
	d.Dispatch(ctx, domain.Notification{ID: "n-1", Kind: domain.NotificationWelcome})
	cancel()

	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	if notifier.count() != 1 {
		t.Fatalf("expected one delivery, got %d", notifier.count())
	}
	sendCtx := notifier.ctxs[0]
	if logger.RequestIDFromContext(sendCtx) != "req-1" {
		t.Fatal("expected request id to be carried over")
	}
	if _, ok := sendCtx.Deadline(); !ok {
		t.Fatal("expected per-send timeout")
	}
	if recorder.get(outcomeSent) != 1 {
		t.Fatalf("expected one sent outcome, got %d", recorder.get(outcomeSent))
	}
}

func TestDispatcherLogsFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	recorder := &countingRecorder{}
	d := NewDispatcher(notifier, DispatcherConfig{Workers: 1}, zap.New(core), recorder)

	d.Dispatch(context.Background(), domain.Notification{ID: "n-1", Kind: domain.NotificationEmailVerification, To: "jane@example.com"})
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	entries := logs.FilterMessage("notification delivery failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one failure log, got %d", len(entries))
	}
	if to := entries[0].ContextMap()["to"]; to == "jane@example.com" {
		t.Fatal("recipient must be masked in logs")
	}
	if recorder.get(outcomeFailed) != 1 {
		t.Fatalf("expected one failed outcome, got %d", recorder.get(outcomeFailed))
	}
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	release := make(chan struct{})
	notifier := &recordingNotifier{release: release}
	recorder := &countingRecorder{}
	d := NewDispatcher(notifier, DispatcherConfig{Workers: 1, QueueSize: 1}, zaptest.NewLogger(t), recorder)

	// The worker blocks on the first message; the second fills the queue.
	d.Dispatch(context.Background(), domain.Notification{ID: "n-1"})
	deadline := time.Now().Add(time.Second)
	for len(d.queue) != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	d.Dispatch(context.Background(), domain.Notification{ID: "n-2"})

	done := make(chan struct{})
	go func() {
		d.Dispatch(context.Background(), domain.Notification{ID: "n-3"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on a full queue")
	}

	close(release)
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	if recorder.get(outcomeDropped) != 1 {
		t.Fatalf("expected one dropped notification, got %d", recorder.get(outcomeDropped))
	}
	if notifier.count() != 2 {
		t.Fatalf("expected two deliveries, got %d", notifier.count())
	}
}

func TestDispatcherAfterClose(t *testing.T) {
	notifier := &recordingNotifier{}
	recorder := &countingRecorder{}
	d := NewDispatcher(notifier, DispatcherConfig{}, zaptest.NewLogger(t), recorder)

	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}

	d.Dispatch(context.Background(), domain.Notification{ID: "late"})
	if notifier.count() != 0 || recorder.get(outcomeDropped) != 1 {
		t.Fatal("expected late notification to be dropped")
	}
}

func TestLoggingNotifierMasksRecipient(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLoggingNotifier(zap.New(core), false)

	if err := n.Send(context.Background(), domain.Notification{To: "jane@example.com", HTML: "<p>123456</p>"}); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	entry := logs.All()[0]
	fields := entry.ContextMap()
	if fields["to"] == "jane@example.com" {
		t.Fatal("recipient must be masked")
	}
	if _, ok := fields["html"]; ok {
		t.Fatal("body must not be logged unless enabled")
	}
}
