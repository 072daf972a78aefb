package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
	"github.com/arklim/reviewapp-auth/internal/repository"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		mock.Close()
	})
	return mock
}

// anyArgs matches an insert of n columns when only the returned error matters.
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestUserRepository_Create(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	now := time.Now().UTC()
	user := domain.User{
		ID:           "3f1f0c8e-1b8f-4d5a-9d8c-2a2b7c1e0f11",
		Name:         "Jane",
		Email:        "jane@example.com",
		PasswordHash: "hash",
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	mock.ExpectExec(`INSERT INTO auth\.users`).
		WithArgs(
			user.ID,
			user.Name,
			user.Email,
			user.PasswordHash,
			"user",
			false,
			now,
			now,
			pgxmock.AnyArg(),
			pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectExec(`INSERT INTO auth\.users`).
		WithArgs(anyArgs(10)...).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), domain.User{ID: "u", Role: domain.RoleUser})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	createdAt := time.Now().UTC()
	verifiedAt := createdAt.Add(time.Minute)
	rows := pgxmock.NewRows(userColumns).AddRow(
		"user-1", "Jane", "jane@example.com", "hash", "admin", true, createdAt, createdAt, verifiedAt, nil,
	)

	mock.ExpectQuery(`SELECT .* FROM auth\.users WHERE lower\(email\) = lower\(\$1\) LIMIT 1`).
		WithArgs("Jane@Example.com").
		WillReturnRows(rows)

	user, err := repo.GetByEmail(context.Background(), "Jane@Example.com")
	if err != nil {
		t.Fatalf("GetByEmail returned error: %v", err)
	}
	if user.ID != "user-1" || user.Role != domain.RoleAdmin || !user.IsVerified {
		t.Fatalf("unexpected user %+v", user)
	}
	if user.VerifiedAt == nil || !user.VerifiedAt.Equal(verifiedAt) {
		t.Fatalf("expected verified_at %v, got %v", verifiedAt, user.VerifiedAt)
	}
	if user.PasswordChangedAt != nil {
		t.Fatalf("expected nil password_changed_at, got %v", user.PasswordChangedAt)
	}
}

func TestUserRepository_GetByIDNotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(`SELECT .* FROM auth\.users WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(userColumns))

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_MarkVerified(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)
	at := time.Now().UTC()

	mock.ExpectExec(`UPDATE auth\.users SET is_verified = \$1, verified_at = \$2, updated_at = \$3 WHERE id = \$4`).
		WithArgs(true, at, at, "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE auth\.users`).
		WithArgs(true, at, at, "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.MarkVerified(context.Background(), "user-1", at); err != nil {
		t.Fatalf("MarkVerified returned error: %v", err)
	}
	if err := repo.MarkVerified(context.Background(), "missing", at); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	mock := newMockPool(t)
	repo := NewUserRepository(mock)
	at := time.Now().UTC()

	mock.ExpectExec(`UPDATE auth\.users SET password_hash = \$1, password_changed_at = \$2, updated_at = \$3 WHERE id = \$4`).
		WithArgs("new-hash", at, at, "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.UpdatePassword(context.Background(), "user-1", "new-hash", at); err != nil {
		t.Fatalf("UpdatePassword returned error: %v", err)
	}
}
