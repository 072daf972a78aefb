package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
	"github.com/arklim/reviewapp-auth/internal/core/port"
	"github.com/arklim/reviewapp-auth/internal/repository"
)

var resetTokenColumns = []string{
	"id",
	"user_id",
	"token_hash",
	"created_at",
	"expires_at",
}

// ResetTokenRepository implements port.ResetTokenRepository.
type ResetTokenRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
	lock    bool
}

// NewResetTokenRepository constructs a new password reset token repository.
func NewResetTokenRepository(exec pgExecutor) *ResetTokenRepository {
	return &ResetTokenRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository bound to tx whose reads take row locks.
func (r *ResetTokenRepository) WithTx(tx pgx.Tx) *ResetTokenRepository {
	if tx == nil {
		return r
	}
	return &ResetTokenRepository{
		exec:    tx,
		builder: r.builder,
		lock:    true,
	}
}

// Upsert stores token as the user's only reset token.
func (r *ResetTokenRepository) Upsert(ctx context.Context, token domain.PasswordResetToken) error {
	stmt, args, err := r.builder.Insert(resetTokensTable).
		Columns(resetTokenColumns...).
		Values(
			token.ID,
			token.UserID,
			token.TokenHash,
			token.CreatedAt,
			token.ExpiresAt,
		).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			id = EXCLUDED.id,
			token_hash = EXCLUDED.token_hash,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert reset token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		if pgErrorCode(err) == foreignKeyViolation {
			return repository.ErrNotFound
		}
		return fmt.Errorf("upsert reset token: %w", err)
	}
	return nil
}

// GetByUserID returns the pending reset token of userID.
func (r *ResetTokenRepository) GetByUserID(ctx context.Context, userID string) (*domain.PasswordResetToken, error) {
	query := r.builder.Select(resetTokenColumns...).
		From(resetTokensTable).
		Where(squirrel.Eq{"user_id": userID})
	if r.lock {
		query = query.Suffix("FOR UPDATE")
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select reset token sql: %w", err)
	}

	var token domain.PasswordResetToken
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.CreatedAt,
		&token.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan reset token: %w", err)
	}

	return &token, nil
}

// Delete removes the token with the given id.
func (r *ResetTokenRepository) Delete(ctx context.Context, id string) error {
	return deleteWhere(ctx, r.exec, r.builder, resetTokensTable, squirrel.Eq{"id": id}, true)
}

// DeleteByUserID removes any reset token held by userID.
func (r *ResetTokenRepository) DeleteByUserID(ctx context.Context, userID string) error {
	return deleteWhere(ctx, r.exec, r.builder, resetTokensTable, squirrel.Eq{"user_id": userID}, false)
}

// DeleteExpired purges tokens that expired at or before the cutoff.
func (r *ResetTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	return deleteExpired(ctx, r.exec, r.builder, resetTokensTable, before)
}

var _ port.ResetTokenRepository = (*ResetTokenRepository)(nil)
