package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/arklim/reviewapp-auth/internal/core/port"
)

// txPool is satisfied by *pgxpool.Pool and by pgxmock pools.
type txPool interface {
	pgExecutor
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// Store groups the PostgreSQL repositories and runs units of work over them.
type Store struct {
	pool   txPool
	logger *zap.Logger

	Users              *UserRepository
	VerificationTokens *VerificationTokenRepository
	ResetTokens        *ResetTokenRepository
}

// NewStore wires all repositories backed by the provided pool.
func NewStore(pool txPool, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		pool:               pool,
		logger:             logger,
		Users:              NewUserRepository(pool),
		VerificationTokens: NewVerificationTokenRepository(pool),
		ResetTokens:        NewResetTokenRepository(pool),
	}
}

// Repositories returns the pool-bound repositories.
func (s *Store) Repositories() port.Repositories {
	return port.Repositories{
		Users:              s.Users,
		VerificationTokens: s.VerificationTokens,
		ResetTokens:        s.ResetTokens,
	}
}

// WithinTx implements port.Transactor.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.Warn("rollback transaction", zap.Error(rbErr))
		}
	}()

	if err = fn(ctx, port.Repositories{
		Users:              s.Users.WithTx(tx),
		VerificationTokens: s.VerificationTokens.WithTx(tx),
		ResetTokens:        s.ResetTokens.WithTx(tx),
	}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

var _ port.Transactor = (*Store)(nil)
