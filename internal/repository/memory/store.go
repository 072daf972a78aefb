// Package memory keeps users and tokens in process memory. It backs the
// "memory" storage driver used for local development and use case tests.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/arklim/reviewapp-auth/internal/core/domain"
	"github.com/arklim/reviewapp-auth/internal/core/port"
)

type state struct {
	users        map[string]domain.User
	emails       map[string]string
	verification map[string]domain.VerificationToken
	reset        map[string]domain.PasswordResetToken
}

func newState() *state {
	return &state{
		users:        make(map[string]domain.User),
		emails:       make(map[string]string),
		verification: make(map[string]domain.VerificationToken),
		reset:        make(map[string]domain.PasswordResetToken),
	}
}

func (s *state) clone() *state {
	out := newState()
	for k, v := range s.users {
		out.users[k] = v
	}
	for k, v := range s.emails {
		out.emails[k] = v
	}
	for k, v := range s.verification {
		out.verification[k] = v
	}
	for k, v := range s.reset {
		out.reset[k] = v
	}
	return out
}

// Store is an in-memory port.Transactor. Transactions are serialised and work
// on a copy of the state that replaces the live one on success.
type Store struct {
	mu    sync.Mutex
	state *state
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{state: newState()}
}

// Repositories returns repositories that lock the store per call.
func (s *Store) Repositories() port.Repositories {
	return s.bind(nil)
}

// WithinTx implements port.Transactor.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.state.clone()
	if err := fn(ctx, s.bind(working)); err != nil {
		return err
	}
	s.state = working
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) bind(st *state) port.Repositories {
	return port.Repositories{
		Users:              &UserRepository{store: s, tx: st},
		VerificationTokens: &VerificationTokenRepository{store: s, tx: st},
		ResetTokens:        &ResetTokenRepository{store: s, tx: st},
	}
}

// do runs fn against the transaction state when bound to one, otherwise
// against the live state under the store mutex.
func (s *Store) do(tx *state, fn func(st *state) error) error {
	if tx != nil {
		return fn(tx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ port.Transactor = (*Store)(nil)
