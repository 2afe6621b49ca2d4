// Package ratelimit counts requests per identity in fixed Valkey windows.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/patentsearch/internal/domain"
)

var keyPrefix = domain.KeyPrefix + "ratelimit:"

// store is the consumer interface for rate limiting (ISP).
type store interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Store implements fixed-window counting on top of INCR + EXPIRE NX.
type Store struct {
	store  store
	limit  int
	window time.Duration
	now    func() time.Time
}

// New creates a limiter allowing limit requests per window.
func New(s store, limit int, window time.Duration) *Store {
	return &Store{store: s, limit: limit, window: window, now: time.Now}
}

// Allow counts one request for subject and reports whether it fits the window.
func (s *Store) Allow(ctx context.Context, subject string) (Decision, error) {
	start := s.now().Truncate(s.window)
	key := fmt.Sprintf("%s%s:%d", keyPrefix, subject, start.Unix())

	n, err := s.store.Incr(ctx, key)
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit INCR %s: %w", key, err)
	}
	// TTL only on the first hit of the window (NX keeps it from sliding).
	if n == 1 {
		if err := s.store.Expire(ctx, key, s.window, true); err != nil {
			return Decision{}, fmt.Errorf("ratelimit EXPIRE %s: %w", key, err)
		}
	}

	remaining := s.limit - int(n)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   int(n) <= s.limit,
		Limit:     s.limit,
		Remaining: remaining,
		ResetAt:   start.Add(s.window),
	}, nil
}
