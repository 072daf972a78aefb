package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/arklim/reviewapp-auth/internal/core/port"
	"github.com/arklim/reviewapp-auth/internal/infra/config"
	"github.com/arklim/reviewapp-auth/internal/infra/notify"
	redisinfra "github.com/arklim/reviewapp-auth/internal/infra/redis"
	"github.com/arklim/reviewapp-auth/internal/infra/security"
	"github.com/arklim/reviewapp-auth/internal/infra/telemetry"
	"github.com/arklim/reviewapp-auth/internal/repository/memory"
	redisrepo "github.com/arklim/reviewapp-auth/internal/repository/redis"
	transportgrpc "github.com/arklim/reviewapp-auth/internal/transport/grpc"
	grpcinterceptors "github.com/arklim/reviewapp-auth/internal/transport/grpc/interceptors"
	"github.com/arklim/reviewapp-auth/internal/transport/http/middleware"
	"github.com/arklim/reviewapp-auth/internal/transport/http/routes"
	"github.com/arklim/reviewapp-auth/internal/usecase"
)

// Version is stamped at build time.
var Version = "dev"

const shutdownTimeout = 10 * time.Second

type Application struct {
	cfg        *config.AppConfig
	engine     *gin.Engine
	logger     *zap.Logger
	storage    *Storage
	redis      *redisinfra.Client
	messaging  *messaging
	dispatcher *notify.Dispatcher
	tracer     *telemetry.TracerProvider
	reaper     *usecase.TokenReaper
	grpcServer *transportgrpc.Server
	grpcAddr   string
}

func New(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (_ *Application, err error) {
	a := &Application{cfg: cfg, logger: log}
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	if cfg.Telemetry.TracingEnabled {
		a.tracer, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, Version, cfg.App.Env, log)
		if err != nil {
			return nil, fmt.Errorf("init telemetry: %w", err)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := telemetry.NewMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	a.storage, err = OpenStorage(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	var rateLimitStore port.RateLimitStore = memory.NewRateLimitStore()
	if cfg.Redis.Enabled {
		a.redis, err = redisinfra.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		rateLimitStore = redisrepo.NewRateLimitRepository(a.redis.Client(), redisrepo.SlidingWindowConfig{
			KeyPrefix: cfg.Redis.RateLimitPrefix,
			TTL:       2 * max(cfg.RateLimit.WindowDuration, cfg.RateLimit.ResetWindowDuration, time.Minute),
		})
	} else {
		log.Info("redis disabled, rate limits are kept per process")
	}

	a.messaging, err = newMessaging(cfg, log)
	if err != nil {
		return nil, err
	}
	a.dispatcher = notify.NewDispatcher(a.messaging.notifier, notify.DispatcherConfig{
		Workers:     cfg.Notification.Workers,
		QueueSize:   cfg.Notification.QueueSize,
		SendTimeout: cfg.Notification.SendTimeout,
	}, log, metrics)

	identity, err := newIdentityService(cfg, a.storage.Store, a.dispatcher, log)
	if err != nil {
		return nil, err
	}
	identity.WithEvents(a.messaging.events)
	identity.WithMetrics(metrics)

	if cfg.Reaper.Enabled {
		a.reaper = usecase.NewTokenReaper(identity, log)
	}

	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{Registerer: registry})
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	deps := routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: middleware.NewRateLimiter(rateLimitStore, log),
		Metrics:     httpMetrics,
		Gatherer:    registry,
		Identity:    identity,
	}
	if pinger := a.storage.Pinger(); pinger != nil {
		deps.Database = pinger
	}
	if a.redis != nil {
		deps.Cache = a.redis
	}
	a.engine = routes.Register(deps)

	if cfg.GRPC.Enabled {
		grpcMetrics, err := grpcinterceptors.NewGRPCMetrics(grpcinterceptors.GRPCMetricsOptions{Registerer: registry})
		if err != nil {
			return nil, fmt.Errorf("init grpc metrics: %w", err)
		}
		a.grpcServer = transportgrpc.NewServer(transportgrpc.ServerDependencies{
			Logger:         log,
			Metrics:        grpcMetrics,
			TracerProvider: otel.GetTracerProvider(),
		})
		a.grpcAddr = fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
	}

	return a, nil
}

// newIdentityService builds the identity use cases from configuration.
func newIdentityService(cfg *config.AppConfig, store usecase.Store, dispatcher port.NotificationDispatcher, log *zap.Logger) (*usecase.IdentityService, error) {
	passwords, err := security.NewArgon2Hasher(security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	})
	if err != nil {
		return nil, fmt.Errorf("configure argon2: %w", err)
	}
	secrets, err := security.NewTokenHasher(cfg.Security.TokenSecret)
	if err != nil {
		return nil, fmt.Errorf("init token hasher: %w", err)
	}
	sessions, err := security.NewSessionIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("init session issuer: %w", err)
	}

	return usecase.NewIdentityService(usecase.IdentityConfig{
		OTPLength:          cfg.Identity.OTPLength,
		OTPTTL:             cfg.Identity.OTPTTL,
		OTPMaxAttempts:     cfg.Identity.OTPMaxAttempts,
		ResetTokenBytes:    cfg.Identity.ResetTokenBytes,
		ResetTokenTTL:      cfg.Identity.ResetTokenTTL,
		OperationTimeout:   cfg.Identity.OperationTimeout,
		ResetResponseFloor: cfg.Identity.ResetResponseFloor,
		VerificationFrom:   cfg.Notification.VerificationFrom,
		SecurityFrom:       cfg.Notification.SecurityFrom,
		ResetPasswordURL:   cfg.Notification.ResetPasswordURL,
		ApplicationName:    cfg.Notification.ApplicationName,
	}, store, usecase.Credentials{
		Passwords: passwords,
		Secrets:   secrets,
		Policy: security.NewPasswordPolicy(security.PasswordPolicyConfig{
			MinLength: cfg.Security.PasswordMinLength,
			MaxLength: cfg.Security.PasswordMaxLength,
			MinScore:  cfg.Security.PasswordMinScore,
		}),
		Sessions: sessions,
	}, dispatcher, log), nil
}

// Run serves HTTP and gRPC until ctx is cancelled or a server fails, then
// shuts everything down.
func (a *Application) Run(ctx context.Context) error {
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.Close(shutdownCtx)
	}()

	if a.reaper != nil {
		go a.reaper.Run(runCtx, a.cfg.Reaper.Interval)
	}

	errCh := make(chan error, 2)

	if a.grpcServer != nil {
		lis, err := net.Listen("tcp", a.grpcAddr)
		if err != nil {
			return fmt.Errorf("listen grpc: %w", err)
		}
		go func() {
			if err := a.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errCh <- fmt.Errorf("run grpc server: %w", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting auth API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
		zap.String("storage", a.cfg.Storage.Driver),
		zap.String("notification", a.cfg.Notification.Driver),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.grpcServer != nil {
		a.grpcServer.Shutdown(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("shutdown server: %w", err)
	}
	return runErr
}

// Close drains queued notifications and releases every connection. It is
// safe to call on a partially built Application.
func (a *Application) Close(ctx context.Context) {
	if a.dispatcher != nil {
		if err := a.dispatcher.Close(ctx); err != nil {
			a.logger.Warn("notification queue not drained", zap.Error(err))
		}
		a.dispatcher = nil
	}
	if a.messaging != nil {
		if err := a.messaging.Close(); err != nil {
			a.logger.Warn("failed to close messaging", zap.Error(err))
		}
		a.messaging = nil
	}
	if a.redis != nil {
		_ = a.redis.Close()
		a.redis = nil
	}
	if a.storage != nil {
		a.storage.Close()
		a.storage = nil
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.logger.Warn("failed to shutdown tracer", zap.Error(err))
		}
		a.tracer = nil
	}
}
