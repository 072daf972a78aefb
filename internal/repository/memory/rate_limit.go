package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/arklim/reviewapp-auth/internal/core/port"
)

// RateLimitStore is a process-local port.RateLimitStore used when Redis is disabled.
type RateLimitStore struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
}

// NewRateLimitStore returns an empty store.
func NewRateLimitStore() *RateLimitStore {
	return &RateLimitStore{attempts: make(map[string][]time.Time)}
}

func (s *RateLimitStore) TrimWindow(_ context.Context, identifier string, window time.Duration, reference time.Time) error {
	if window <= 0 {
		return errors.New("window must be positive")
	}
	threshold := reference.Add(-window)

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.attempts[identifier][:0]
	for _, at := range s.attempts[identifier] {
		if !at.Before(threshold) {
			kept = append(kept, at)
		}
	}
	if len(kept) == 0 {
		delete(s.attempts, identifier)
		return nil
	}
	s.attempts[identifier] = kept
	return nil
}

func (s *RateLimitStore) CountAttempts(_ context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	if window <= 0 {
		return 0, errors.New("window must be positive")
	}
	threshold := reference.Add(-window)

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, at := range s.attempts[identifier] {
		if !at.Before(threshold) && !at.After(reference) {
			count++
		}
	}
	return count, nil
}

func (s *RateLimitStore) RecordAttempt(_ context.Context, identifier string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[identifier] = append(s.attempts[identifier], at)
	return nil
}

func (s *RateLimitStore) OldestAttempt(_ context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error) {
	if window <= 0 {
		return time.Time{}, false, errors.New("window must be positive")
	}
	threshold := reference.Add(-window)

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		oldest time.Time
		found  bool
	)
	for _, at := range s.attempts[identifier] {
		if at.Before(threshold) || at.After(reference) {
			continue
		}
		if !found || at.Before(oldest) {
			oldest, found = at, true
		}
	}
	return oldest, found, nil
}

var _ port.RateLimitStore = (*RateLimitStore)(nil)
