package usecase

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
	"github.com/arklim/reviewapp-auth/internal/core/port"
	"github.com/arklim/reviewapp-auth/internal/infra/logger"
	"github.com/arklim/reviewapp-auth/internal/infra/security"
)

const (
	defaultOTPLength        = 6
	defaultResetTokenBytes  = 32
	defaultOperationTimeout = 5 * time.Second

	passwordChangeReasonReset = "password_reset"

	// dummyPassword is hashed once so sign-in for unknown emails costs one
	// password verification, like sign-in for known ones.
	dummyPassword = "reviewapp-auth-timing-equaliser"
)

var tracer = otel.Tracer("github.com/arklim/reviewapp-auth/internal/usecase")

// IdentityConfig carries token lifetimes and email settings.
type IdentityConfig struct {
	OTPLength        int
	OTPTTL           time.Duration
	OTPMaxAttempts   int
	ResetTokenBytes  int
	ResetTokenTTL    time.Duration
	OperationTimeout time.Duration
	// ResetResponseFloor is the minimum time RequestReset takes for both
	// known and unknown emails. Zero disables padding.
	ResetResponseFloor time.Duration

	VerificationFrom string
	SecurityFrom     string
	ResetPasswordURL string
	ApplicationName  string
}

func (c IdentityConfig) withDefaults() IdentityConfig {
	if c.OTPLength <= 0 {
		c.OTPLength = defaultOTPLength
	}
	if c.OTPTTL <= 0 {
		c.OTPTTL = defaultOTPTTL
	}
	if c.OTPMaxAttempts == 0 {
		c.OTPMaxAttempts = defaultOTPMaxAttempts
	}
	if c.ResetTokenBytes < defaultResetTokenBytes {
		c.ResetTokenBytes = defaultResetTokenBytes
	}
	if c.ResetTokenTTL <= 0 {
		c.ResetTokenTTL = defaultResetTTL
	}
	if c.OperationTimeout <= 0 {
		c.OperationTimeout = defaultOperationTimeout
	}
	if c.VerificationFrom == "" {
		c.VerificationFrom = "verification@reviewapp.com"
	}
	if c.SecurityFrom == "" {
		c.SecurityFrom = "security@reviewapp.com"
	}
	if c.ApplicationName == "" {
		c.ApplicationName = "Reviews App"
	}
	return c
}

// Store is the persistence the identity service runs against.
type Store interface {
	port.Transactor
	Repositories() port.Repositories
}

// Credentials groups the cryptographic collaborators of the identity service.
type Credentials struct {
	Passwords port.PasswordHasher
	Secrets   port.SecretHasher
	Policy    port.PasswordPolicyValidator
	Sessions  port.SessionIssuer
}

// Session is a signed-in user with their session token.
type Session struct {
	User      domain.PublicUser
	Token     string
	ExpiresAt time.Time
}

// IdentityService orchestrates registration, email verification, password
// reset and sign-in. Every transition that touches a user and a token runs in
// one transaction; emails are handed to the dispatcher after commit.
type IdentityService struct {
	cfg           IdentityConfig
	store         Store
	repos         port.Repositories
	credentials   Credentials
	verifications *VerificationTokenStore
	resets        *ResetTokenStore
	notifications port.NotificationDispatcher
	events        port.EventPublisher
	metrics       port.IdentityMetrics
	logger        *zap.Logger

	now           func() time.Time
	generateCode  func(length int) (string, error)
	generateToken func(byteLength int) (string, error)

	dummyOnce sync.Once
	dummyHash string
}

// NewIdentityService wires the identity use cases.
func NewIdentityService(cfg IdentityConfig, store Store, credentials Credentials, notifications port.NotificationDispatcher, logger *zap.Logger) *IdentityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	svc := &IdentityService{
		cfg:           cfg,
		store:         store,
		credentials:   credentials,
		notifications: notifications,
		logger:        logger,
		now:           time.Now,
		generateCode:  security.GenerateNumericCode,
		generateToken: security.GenerateSecureToken,
	}
	if store != nil {
		svc.repos = store.Repositories()
	}
	svc.verifications = NewVerificationTokenStore(svc.repos.VerificationTokens, credentials.Secrets, cfg.OTPTTL, cfg.OTPMaxAttempts)
	svc.resets = NewResetTokenStore(svc.repos.ResetTokens, credentials.Secrets, cfg.ResetTokenTTL)
	return svc
}

// WithEvents publishes lifecycle events after each committed transition.
func (s *IdentityService) WithEvents(events port.EventPublisher) {
	s.events = events
}

// WithMetrics records operation outcomes.
func (s *IdentityService) WithMetrics(metrics port.IdentityMetrics) {
	s.metrics = metrics
}

// WithClock allows tests to override the clock used by the service and its token stores.
func (s *IdentityService) WithClock(clock func() time.Time) {
	if clock == nil {
		return
	}
	s.now = clock
	s.verifications.WithClock(clock)
	s.resets.WithClock(clock)
}

// WithCodeGenerator overrides the OTP generator.
func (s *IdentityService) WithCodeGenerator(gen func(length int) (string, error)) {
	if gen != nil {
		s.generateCode = gen
	}
}

// WithTokenGenerator overrides the reset token generator.
func (s *IdentityService) WithTokenGenerator(gen func(byteLength int) (string, error)) {
	if gen != nil {
		s.generateToken = gen
	}
}

// Verifications exposes the verification token store.
func (s *IdentityService) Verifications() *VerificationTokenStore {
	return s.verifications
}

// Resets exposes the password reset token store.
func (s *IdentityService) Resets() *ResetTokenStore {
	return s.resets
}

// begin bounds ctx by the operation timeout and opens a span for op. The
// returned func ends both and must be called with the operation's error.
func (s *IdentityService) begin(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	ctx, span := tracer.Start(ctx, "identity."+op, trace.WithSpanKind(trace.SpanKindInternal))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		cancel()
		if s.metrics != nil {
			s.metrics.ObserveOperation(op, err)
		}
	}
}

func (s *IdentityService) ready() error {
	if s.store == nil || s.credentials.Passwords == nil || s.credentials.Secrets == nil || s.credentials.Sessions == nil {
		return errUnsupportedStorage
	}
	return nil
}

func (s *IdentityService) log(ctx context.Context) *zap.Logger {
	return logger.FromContext(ctx, s.logger)
}

// dispatch hands n to the dispatcher. Delivery runs detached from ctx.
func (s *IdentityService) dispatch(ctx context.Context, n domain.Notification, err error) {
	if err != nil {
		s.log(ctx).Error("failed to render notification", zap.Error(err))
		return
	}
	if s.notifications == nil {
		s.log(ctx).Warn("notification dispatcher not configured", zap.String("kind", string(n.Kind)))
		return
	}
	s.notifications.Dispatch(context.WithoutCancel(ctx), n)
}

func (s *IdentityService) validatePassword(password string, user domain.PasswordContext) error {
	if password == "" {
		return errMissingPassword
	}
	if s.credentials.Policy == nil {
		return nil
	}
	if err := s.credentials.Policy.Validate(password, user); err != nil {
		return invalidPassword(err)
	}
	return nil
}

func (s *IdentityService) signSession(user domain.User) (*Session, error) {
	token, expiresAt, err := s.credentials.Sessions.Sign(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: user.Public(), Token: token, ExpiresAt: expiresAt}, nil
}

func (s *IdentityService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.credentials.Passwords.Hash(dummyPassword)
		if err != nil {
			s.logger.Warn("failed to prepare dummy password hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
