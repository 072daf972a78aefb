package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
	"github.com/arklim/reviewapp-auth/internal/infra/security"
	"github.com/arklim/reviewapp-auth/internal/repository/memory"
)

const (
	testPassword = "pw12345678"
	testSecret   = "test-token-secret"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (d *recordingDispatcher) Dispatch(_ context.Context, n domain.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
}

func (d *recordingDispatcher) last(t *testing.T) domain.Notification {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.sent) == 0 {
		t.Fatalf("expected a dispatched notification")
	}
	return d.sent[len(d.sent)-1]
}

func (d *recordingDispatcher) kinds() []domain.NotificationKind {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]domain.NotificationKind, 0, len(d.sent))
	for _, n := range d.sent {
		out = append(out, n.Kind)
	}
	return out
}

type recordingEvents struct {
	registered []domain.UserRegisteredEvent
	verified   []domain.UserVerifiedEvent
	requested  []domain.PasswordResetRequestedEvent
	changed    []domain.PasswordChangedEvent
}

func (e *recordingEvents) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	e.registered = append(e.registered, event)
	return nil
}

func (e *recordingEvents) PublishUserVerified(_ context.Context, event domain.UserVerifiedEvent) error {
	e.verified = append(e.verified, event)
	return nil
}

func (e *recordingEvents) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	e.requested = append(e.requested, event)
	return nil
}

func (e *recordingEvents) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	e.changed = append(e.changed, event)
	return nil
}

type recordingMetrics struct {
	mu         sync.Mutex
	operations map[string][]error
	purged     map[string]int64
}

func (m *recordingMetrics) ObserveOperation(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.operations == nil {
		m.operations = make(map[string][]error)
	}
	m.operations[operation] = append(m.operations[operation], err)
}

func (m *recordingMetrics) ObserveTokensPurged(kind string, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.purged == nil {
		m.purged = make(map[string]int64)
	}
	m.purged[kind] += n
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// sequence yields the given values in order and repeats the last one.
func sequence(values ...string) func(int) (string, error) {
	var (
		mu sync.Mutex
		i  int
	)
	return func(int) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		v := values[i]
		if i < len(values)-1 {
			i++
		}
		return v, nil
	}
}

type harness struct {
	svc        *IdentityService
	store      *memory.Store
	dispatcher *recordingDispatcher
	events     *recordingEvents
	metrics    *recordingMetrics
	clock      *fakeClock
	passwords  *security.Argon2Hasher
	secrets    *security.TokenHasher
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	passwords, err := security.NewArgon2Hasher(security.Argon2Config{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("argon2 hasher: %v", err)
	}
	secrets, err := security.NewTokenHasher(testSecret)
	if err != nil {
		t.Fatalf("token hasher: %v", err)
	}
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	sessions, err := security.NewSessionIssuer("session-secret", "reviewapp-auth", time.Hour)
	if err != nil {
		t.Fatalf("session issuer: %v", err)
	}
	sessions.WithClock(clock.Now)

	store := memory.NewStore()
	dispatcher := &recordingDispatcher{}
	events := &recordingEvents{}
	metrics := &recordingMetrics{}

	svc := NewIdentityService(IdentityConfig{
		OTPTTL:           10 * time.Minute,
		OTPMaxAttempts:   3,
		ResetTokenTTL:    time.Hour,
		ResetPasswordURL: "http://localhost:3000/auth/reset-password",
	}, store, Credentials{
		Passwords: passwords,
		Secrets:   secrets,
		Policy:    security.NewPasswordPolicy(security.PasswordPolicyConfig{}),
		Sessions:  sessions,
	}, dispatcher, zaptest.NewLogger(t))
	svc.WithClock(clock.Now)
	svc.WithEvents(events)
	svc.WithMetrics(metrics)

	return &harness{
		svc:        svc,
		store:      store,
		dispatcher: dispatcher,
		events:     events,
		metrics:    metrics,
		clock:      clock,
		passwords:  passwords,
		secrets:    secrets,
	}
}

// register signs up a user with the given OTP and returns it.
func (h *harness) register(t *testing.T, email, code string) domain.PublicUser {
	t.Helper()
	h.svc.WithCodeGenerator(sequence(code))
	user, err := h.svc.Register(context.Background(), RegisterInput{
		Name:     "Alice",
		Email:    email,
		Password: testPassword,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return user
}

func (h *harness) user(t *testing.T, id string) domain.User {
	t.Helper()
	user, err := h.store.Repositories().Users.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	return *user
}
