package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/arklim/reviewapp-auth/internal/infra/config"
	"github.com/arklim/reviewapp-auth/internal/infra/database"
	"github.com/arklim/reviewapp-auth/internal/repository/memory"
	postgresrepo "github.com/arklim/reviewapp-auth/internal/repository/postgres"
	"github.com/arklim/reviewapp-auth/internal/usecase"
)

// Storage is the selected persistence driver.
type Storage struct {
	Store usecase.Store
	pool  *pgxpool.Pool
}

// OpenStorage connects the driver named by cfg.Storage.Driver. The memory
// driver keeps everything in process and loses it on exit.
func OpenStorage(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (*Storage, error) {
	switch cfg.Storage.Driver {
	case "memory":
		log.Warn("using in-memory storage, data is lost on restart")
		return &Storage{Store: memory.NewStore()}, nil
	case "postgres":
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
		if err != nil {
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		if cfg.Postgres.AutoMigrate {
			if err := migrate(ctx, pool, log, "up"); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return &Storage{Store: postgresrepo.NewStore(pool, log), pool: pool}, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

// Pinger returns the readiness probe of the driver, nil for memory.
func (s *Storage) Pinger() interface{ Ping(context.Context) error } {
	if s.pool == nil {
		return nil
	}
	return s.pool
}

func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func migrate(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger, direction string) error {
	migrator, err := database.NewMigrator(pool, log)
	if err != nil {
		return fmt.Errorf("init migrator: %w", err)
	}
	defer migrator.Close()

	switch direction {
	case "up":
		return migrator.Up(ctx)
	case "down":
		return migrator.Down(ctx)
	case "status":
		return migrator.Status(ctx)
	default:
		return fmt.Errorf("unknown migration direction %q", direction)
	}
}
