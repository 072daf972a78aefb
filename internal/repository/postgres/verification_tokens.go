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

var verificationTokenColumns = []string{
	"id",
	"user_id",
	"token_hash",
	"attempts",
	"created_at",
	"expires_at",
}

// VerificationTokenRepository implements port.VerificationTokenRepository.
// Rows are unique per user_id.
type VerificationTokenRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
	lock    bool
}

// NewVerificationTokenRepository constructs a new verification token repository.
func NewVerificationTokenRepository(exec pgExecutor) *VerificationTokenRepository {
	return &VerificationTokenRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository bound to tx whose reads take row locks.
func (r *VerificationTokenRepository) WithTx(tx pgx.Tx) *VerificationTokenRepository {
	if tx == nil {
		return r
	}
	return &VerificationTokenRepository{
		exec:    tx,
		builder: r.builder,
		lock:    true,
	}
}

// Upsert stores token as the user's only verification token.
func (r *VerificationTokenRepository) Upsert(ctx context.Context, token domain.VerificationToken) error {
	stmt, args, err := r.builder.Insert(verificationTokensTable).
		Columns(verificationTokenColumns...).
		Values(
			token.ID,
			token.UserID,
			token.TokenHash,
			token.Attempts,
			token.CreatedAt,
			token.ExpiresAt,
		).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			id = EXCLUDED.id,
			token_hash = EXCLUDED.token_hash,
			attempts = EXCLUDED.attempts,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert verification token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		if pgErrorCode(err) == foreignKeyViolation {
			return repository.ErrNotFound
		}
		return fmt.Errorf("upsert verification token: %w", err)
	}
	return nil
}

// GetByUserID returns the pending token of userID.
func (r *VerificationTokenRepository) GetByUserID(ctx context.Context, userID string) (*domain.VerificationToken, error) {
	query := r.builder.Select(verificationTokenColumns...).
		From(verificationTokensTable).
		Where(squirrel.Eq{"user_id": userID})
	if r.lock {
		query = query.Suffix("FOR UPDATE")
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select verification token sql: %w", err)
	}

	var token domain.VerificationToken
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.Attempts,
		&token.CreatedAt,
		&token.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan verification token: %w", err)
	}

	return &token, nil
}

// IncrementAttempts records a failed confirmation and returns the new count.
func (r *VerificationTokenRepository) IncrementAttempts(ctx context.Context, userID string) (int, error) {
	stmt, args, err := r.builder.Update(verificationTokensTable).
		Set("attempts", squirrel.Expr("attempts + 1")).
		Where(squirrel.Eq{"user_id": userID}).
		Suffix("RETURNING attempts").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build increment attempts sql: %w", err)
	}

	var attempts int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&attempts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("increment attempts: %w", err)
	}
	return attempts, nil
}

// Delete removes the token with the given id. A missing row yields
// repository.ErrNotFound so that concurrent consumers see exactly one winner.
func (r *VerificationTokenRepository) Delete(ctx context.Context, id string) error {
	return deleteWhere(ctx, r.exec, r.builder, verificationTokensTable, squirrel.Eq{"id": id}, true)
}

// DeleteByUserID removes any token held by userID.
func (r *VerificationTokenRepository) DeleteByUserID(ctx context.Context, userID string) error {
	return deleteWhere(ctx, r.exec, r.builder, verificationTokensTable, squirrel.Eq{"user_id": userID}, false)
}

// DeleteExpired purges tokens that expired at or before the cutoff.
func (r *VerificationTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	return deleteExpired(ctx, r.exec, r.builder, verificationTokensTable, before)
}

func deleteWhere(ctx context.Context, exec pgExecutor, builder squirrel.StatementBuilderType, table string, pred squirrel.Eq, mustExist bool) error {
	stmt, args, err := builder.Delete(table).Where(pred).ToSql()
	if err != nil {
		return fmt.Errorf("build delete %s sql: %w", table, err)
	}

	tag, err := exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if mustExist && tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func deleteExpired(ctx context.Context, exec pgExecutor, builder squirrel.StatementBuilderType, table string, before time.Time) (int64, error) {
	stmt, args, err := builder.Delete(table).
		Where(squirrel.LtOrEq{"expires_at": before}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build purge %s sql: %w", table, err)
	}

	tag, err := exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("purge %s: %w", table, err)
	}
	return tag.RowsAffected(), nil
}

var _ port.VerificationTokenRepository = (*VerificationTokenRepository)(nil)
