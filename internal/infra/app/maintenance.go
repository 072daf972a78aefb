package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/arklim/reviewapp-auth/internal/infra/config"
	"github.com/arklim/reviewapp-auth/internal/infra/database"
	"github.com/arklim/reviewapp-auth/internal/infra/notify"
	"github.com/arklim/reviewapp-auth/internal/usecase"
)

// Migrate runs the embedded migrations in direction: up, down or status.
func Migrate(ctx context.Context, cfg *config.AppConfig, log *zap.Logger, direction string) error {
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return fmt.Errorf("init postgres: %w", err)
	}
	defer pool.Close()

	return migrate(ctx, pool, log, direction)
}

// Reap deletes expired verification and reset tokens once.
func Reap(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (usecase.PurgeResult, error) {
	storage, err := OpenStorage(ctx, cfg, log)
	if err != nil {
		return usecase.PurgeResult{}, err
	}
	defer storage.Close()

	// Purging never notifies; the dispatcher only satisfies the service.
	dispatcher := notify.NewDispatcher(notify.NewLoggingNotifier(log, false), notify.DispatcherConfig{}, log, nil)
	defer func() { _ = dispatcher.Close(ctx) }()

	identity, err := newIdentityService(cfg, storage.Store, dispatcher, log)
	if err != nil {
		return usecase.PurgeResult{}, err
	}
	return usecase.NewTokenReaper(identity, log).PurgeOnce(ctx)
}
