package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
	"github.com/arklim/reviewapp-auth/internal/core/port"
	"github.com/arklim/reviewapp-auth/internal/infra/logger"
)

const (
	outcomeSent    = "sent"
	outcomeFailed  = "failed"
	outcomeDropped = "dropped"
)

// Recorder receives delivery outcomes.
type Recorder interface {
	ObserveNotification(kind domain.NotificationKind, outcome string)
}

// DispatcherConfig sizes the worker pool.
type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
}

type job struct {
	msg       domain.Notification
	requestID string
}

// Dispatcher delivers notifications on a bounded pool of workers. Dispatch
// never blocks: when the queue is full the notification is dropped and logged.
type Dispatcher struct {
	notifier port.Notifier
	logger   *zap.Logger
	recorder Recorder
	timeout  time.Duration

	queue chan job
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts cfg.Workers workers draining into notifier.
func NewDispatcher(notifier port.Notifier, cfg DispatcherConfig, log *zap.Logger, recorder Recorder) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	d := &Dispatcher{
		notifier: notifier,
		logger:   log,
		recorder: recorder,
		timeout:  cfg.SendTimeout,
		queue:    make(chan job, cfg.QueueSize),
	}

	d.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go d.work()
	}
	return d
}

// Dispatch enqueues msg. Only the request id is carried over from ctx; the
// caller's cancellation does not reach the delivery.
func (d *Dispatcher) Dispatch(ctx context.Context, msg domain.Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(msg, "dispatcher closed")
		return
	}

	select {
	case d.queue <- job{msg: msg, requestID: logger.RequestIDFromContext(ctx)}:
	default:
		d.drop(msg, "queue full")
	}
}

// Close stops accepting notifications and waits for queued ones to be
// delivered or for ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("notification dispatcher: pending deliveries abandoned"), ctx.Err())
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for j := range d.queue {
		d.deliver(j)
	}
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if j.requestID != "" {
		ctx = logger.ContextWithRequestID(ctx, j.requestID)
	}

	log := logger.FromContext(ctx, d.logger)
	if err := d.notifier.Send(ctx, j.msg); err != nil {
		log.Warn("notification delivery failed",
			zap.String("notification_id", j.msg.ID),
			zap.String("kind", string(j.msg.Kind)),
			zap.String("to", logger.MaskEmail(j.msg.To)),
			zap.Error(err),
		)
		d.observe(j.msg.Kind, outcomeFailed)
		return
	}
	d.observe(j.msg.Kind, outcomeSent)
}

func (d *Dispatcher) drop(msg domain.Notification, reason string) {
	d.logger.Warn("notification dropped",
		zap.String("notification_id", msg.ID),
		zap.String("kind", string(msg.Kind)),
		zap.String("reason", reason),
	)
	d.observe(msg.Kind, outcomeDropped)
}

func (d *Dispatcher) observe(kind domain.NotificationKind, outcome string) {
	if d.recorder != nil {
		d.recorder.ObserveNotification(kind, outcome)
	}
}

var _ port.NotificationDispatcher = (*Dispatcher)(nil)
