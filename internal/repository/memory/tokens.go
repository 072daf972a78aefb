package memory

import (
	"context"
	"time"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
	"github.com/arklim/reviewapp-auth/internal/core/port"
	"github.com/arklim/reviewapp-auth/internal/repository"
)

// VerificationTokenRepository keeps one verification token per user.
type VerificationTokenRepository struct {
	store *Store
	tx    *state
}

func (r *VerificationTokenRepository) Upsert(_ context.Context, token domain.VerificationToken) error {
	return r.store.do(r.tx, func(st *state) error {
		if _, ok := st.users[token.UserID]; !ok {
			return repository.ErrNotFound
		}
		st.verification[token.UserID] = token
		return nil
	})
}

func (r *VerificationTokenRepository) GetByUserID(_ context.Context, userID string) (*domain.VerificationToken, error) {
	var out domain.VerificationToken
	err := r.store.do(r.tx, func(st *state) error {
		token, ok := st.verification[userID]
		if !ok {
			return repository.ErrNotFound
		}
		out = token
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *VerificationTokenRepository) IncrementAttempts(_ context.Context, userID string) (int, error) {
	var attempts int
	err := r.store.do(r.tx, func(st *state) error {
		token, ok := st.verification[userID]
		if !ok {
			return repository.ErrNotFound
		}
		token.Attempts++
		st.verification[userID] = token
		attempts = token.Attempts
		return nil
	})
	return attempts, err
}

func (r *VerificationTokenRepository) Delete(_ context.Context, id string) error {
	return r.store.do(r.tx, func(st *state) error {
		for userID, token := range st.verification {
			if token.ID == id {
				delete(st.verification, userID)
				return nil
			}
		}
		return repository.ErrNotFound
	})
}

func (r *VerificationTokenRepository) DeleteByUserID(_ context.Context, userID string) error {
	return r.store.do(r.tx, func(st *state) error {
		delete(st.verification, userID)
		return nil
	})
}

func (r *VerificationTokenRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	var n int64
	err := r.store.do(r.tx, func(st *state) error {
		for userID, token := range st.verification {
			if !token.ExpiresAt.After(before) {
				delete(st.verification, userID)
				n++
			}
		}
		return nil
	})
	return n, err
}

// ResetTokenRepository keeps one password reset token per user.
type ResetTokenRepository struct {
	store *Store
	tx    *state
}

func (r *ResetTokenRepository) Upsert(_ context.Context, token domain.PasswordResetToken) error {
	return r.store.do(r.tx, func(st *state) error {
		if _, ok := st.users[token.UserID]; !ok {
			return repository.ErrNotFound
		}
		st.reset[token.UserID] = token
		return nil
	})
}

func (r *ResetTokenRepository) GetByUserID(_ context.Context, userID string) (*domain.PasswordResetToken, error) {
	var out domain.PasswordResetToken
	err := r.store.do(r.tx, func(st *state) error {
		token, ok := st.reset[userID]
		if !ok {
			return repository.ErrNotFound
		}
		out = token
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ResetTokenRepository) Delete(_ context.Context, id string) error {
	return r.store.do(r.tx, func(st *state) error {
		for userID, token := range st.reset {
			if token.ID == id {
				delete(st.reset, userID)
				return nil
			}
		}
		return repository.ErrNotFound
	})
}

func (r *ResetTokenRepository) DeleteByUserID(_ context.Context, userID string) error {
	return r.store.do(r.tx, func(st *state) error {
		delete(st.reset, userID)
		return nil
	})
}

func (r *ResetTokenRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	var n int64
	err := r.store.do(r.tx, func(st *state) error {
		for userID, token := range st.reset {
			if !token.ExpiresAt.After(before) {
				delete(st.reset, userID)
				n++
			}
		}
		return nil
	})
	return n, err
}

var (
	_ port.VerificationTokenRepository = (*VerificationTokenRepository)(nil)
	_ port.ResetTokenRepository        = (*ResetTokenRepository)(nil)
)
