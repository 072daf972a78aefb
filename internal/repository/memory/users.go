package memory

import (
	"context"
	"time"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
	"github.com/arklim/reviewapp-auth/internal/core/port"
	"github.com/arklim/reviewapp-auth/internal/repository"
)

// UserRepository implements port.UserRepository over the in-memory state.
type UserRepository struct {
	store *Store
	tx    *state
}

func (r *UserRepository) Create(_ context.Context, user domain.User) error {
	return r.store.do(r.tx, func(st *state) error {
		key := emailKey(user.Email)
		if _, taken := st.emails[key]; taken {
			return repository.ErrDuplicate
		}
		if _, taken := st.users[user.ID]; taken {
			return repository.ErrDuplicate
		}
		st.users[user.ID] = user
		st.emails[key] = user.ID
		return nil
	})
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	var out domain.User
	err := r.store.do(r.tx, func(st *state) error {
		user, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	var out domain.User
	err := r.store.do(r.tx, func(st *state) error {
		id, ok := st.emails[emailKey(email)]
		if !ok {
			return repository.ErrNotFound
		}
		out = st.users[id]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *UserRepository) MarkVerified(_ context.Context, id string, at time.Time) error {
	return r.store.do(r.tx, func(st *state) error {
		user, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		user.IsVerified = true
		user.VerifiedAt = &at
		user.UpdatedAt = at
		st.users[id] = user
		return nil
	})
}

func (r *UserRepository) UpdatePassword(_ context.Context, id string, passwordHash string, changedAt time.Time) error {
	return r.store.do(r.tx, func(st *state) error {
		user, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		user.PasswordHash = passwordHash
		user.PasswordChangedAt = &changedAt
		user.UpdatedAt = changedAt
		st.users[id] = user
		return nil
	})
}

var _ port.UserRepository = (*UserRepository)(nil)
