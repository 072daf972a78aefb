package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/arklim/reviewapp-auth/internal/infra/config"
)

func memoryConfig() *config.AppConfig {
	return &config.AppConfig{
		App:          config.AppSettings{Name: "reviewapp-auth", Env: "test"},
		Storage:      config.StorageSettings{Driver: "memory"},
		Notification: config.NotificationSettings{Driver: "log", Workers: 1, QueueSize: 8},
		JWT:          config.JWTSettings{Secret: "jwt-secret", Issuer: "reviewapp-auth", SessionTTL: time.Hour},
		Security:     config.SecuritySettings{TokenSecret: "token-secret"},
		Argon2: config.Argon2Settings{
			Memory:      8 * 1024,
			Iterations:  1,
			Parallelism: 1,
			SaltLength:  16,
			KeyLength:   32,
		},
		RateLimit: config.RateLimitSettings{WindowDuration: time.Minute, SignInMaxAttempts: 5},
	}
}

func TestNewWiresMemoryStack(t *testing.T) {
	cfg := memoryConfig()
	a, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(context.Background()) })

	assert.Nil(t, a.grpcServer)
	assert.Nil(t, a.redis)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/user/create",
		strings.NewReader(`{"name":"Alice","email":"a@x.com","password":"pw12345678"}`))
	req.Header.Set("Content-Type", "application/json")
	a.engine.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	metrics := httptest.NewRecorder()
	a.engine.ServeHTTP(metrics, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "auth_identity_operations_total")
}

func TestNewRejectsUnknownDrivers(t *testing.T) {
	cfg := memoryConfig()
	cfg.Notification.Driver = "pigeon"
	_, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.Error(t, err)

	cfg = memoryConfig()
	cfg.Storage.Driver = "sqlite"
	_, err = New(context.Background(), cfg, zaptest.NewLogger(t))
	require.Error(t, err)

	cfg = memoryConfig()
	cfg.Notification.Driver = "kafka"
	_, err = New(context.Background(), cfg, zaptest.NewLogger(t))
	require.ErrorContains(t, err, "kafka.brokers")
}

func TestReapOnEmptyStore(t *testing.T) {
	result, err := Reap(context.Background(), memoryConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Zero(t, result.Verification)
	assert.Zero(t, result.Reset)
}
