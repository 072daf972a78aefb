package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/arklim/reviewapp-auth/internal/infra/config"
	"github.com/arklim/reviewapp-auth/internal/transport/http/handlers"
	"github.com/arklim/reviewapp-auth/internal/transport/http/middleware"
	"github.com/arklim/reviewapp-auth/internal/usecase"
)

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Gatherer    prometheus.Gatherer
	Identity    *usecase.IdentityService
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	Ping(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Config == nil {
		deps.Config = &config.AppConfig{}
	}
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	serviceName := deps.Config.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = deps.Config.App.Name
	}

	r := gin.New()
	// ClientIP keys the rate limits, so X-Forwarded-For is only honoured
	// when the direct peer is a configured proxy.
	if err := r.SetTrustedProxies(deps.Config.HTTP.TrustedProxies); err != nil {
		deps.Logger.Warn("invalid trusted proxies, forwarding headers ignored", zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.HTTP.AllowedOrigins))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.Ping))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	} else {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	if deps.Identity == nil {
		return r
	}

	identityHandler := handlers.NewIdentityHandler(deps.Identity, deps.Logger)
	limits := deps.Config.RateLimit

	user := r.Group("/api/user")
	{
		user.POST("/create", chain(deps, "register", limits.RegisterMaxAttempts, limits.WindowDuration, identityHandler.Create)...)
		user.POST("/sign-in", chain(deps, "sign_in", limits.SignInMaxAttempts, limits.WindowDuration, identityHandler.SignIn)...)
		user.POST("/verify-email", chain(deps, "verify_email", limits.VerifyMaxAttempts, limits.WindowDuration, identityHandler.VerifyEmail)...)
		user.POST("/resend-email-verification-token", chain(deps, "resend_verification", limits.ResendMaxAttempts, limits.WindowDuration, identityHandler.ResendVerification)...)
		user.POST("/forget-password", chain(deps, "password_reset", limits.ResetMaxAttempts, limits.ResetWindowDuration, identityHandler.ForgetPassword)...)
		user.POST("/verify-password-reset-token", identityHandler.VerifyPasswordResetToken)
		user.POST("/reset-password", identityHandler.ResetPassword)
		user.GET("/is-auth", middleware.RequireAuth(deps.Identity), identityHandler.IsAuth)
	}

	return r
}

// chain prefixes handler with a per-IP rate limit when one is configured.
func chain(deps Dependencies, name string, limit int, window time.Duration, handler gin.HandlerFunc) []gin.HandlerFunc {
	if deps.RateLimiter == nil || limit <= 0 {
		return []gin.HandlerFunc{handler}
	}
	if window <= 0 {
		window = time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       name + "_ip",
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}
	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule), handler}
}
