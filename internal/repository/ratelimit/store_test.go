package ratelimit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type mockStore struct {
	counts      map[string]int64
	expireCalls []string
	incrErr     error
}

func (m *mockStore) Incr(_ context.Context, key string) (int64, error) {
	if m.incrErr != nil {
		return 0, m.incrErr
	}
	if m.counts == nil {
		m.counts = map[string]int64{}
	}
	m.counts[key]++
	return m.counts[key], nil
}

func (m *mockStore) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	if !nx {
		return errors.New("expected NX")
	}
	m.expireCalls = append(m.expireCalls, key)
	return nil
}

func newTestStore(ms *mockStore, now time.Time) *Store {
	s := New(ms, 2, time.Minute)
	s.now = func() time.Time { return now }
	return s
}

func TestAllow_WithinAndOverLimit(t *testing.T) {
	ms := &mockStore{}
	now := time.Date(2026, 3, 1, 12, 0, 30, 0, time.UTC)
	s := newTestStore(ms, now)
	ctx := context.Background()

	for i, want := range []bool{true, true, false} {
		d, err := s.Allow(ctx, "user-1")
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if d.Allowed != want {
			t.Errorf("call %d: Allowed = %v, want %v", i, d.Allowed, want)
		}
		if d.ResetAt != time.Date(2026, 3, 1, 12, 1, 0, 0, time.UTC) {
			t.Errorf("ResetAt = %v", d.ResetAt)
		}
	}
	if len(ms.expireCalls) != 1 {
		t.Errorf("EXPIRE called %d times, want 1", len(ms.expireCalls))
	}
	if !strings.HasPrefix(ms.expireCalls[0], "patentsearch:ratelimit:user-1:") {
		t.Errorf("key = %q", ms.expireCalls[0])
	}
}

func TestAllow_RemainingNeverNegative(t *testing.T) {
	s := newTestStore(&mockStore{}, time.Unix(0, 0))
	var d Decision
	for range 5 {
		d, _ = s.Allow(context.Background(), "u")
	}
	if d.Remaining != 0 || d.Limit != 2 {
		t.Errorf("decision = %+v", d)
	}
}

func TestAllow_SubjectsAreIsolated(t *testing.T) {
	s := newTestStore(&mockStore{}, time.Unix(0, 0))
	ctx := context.Background()
	_, _ = s.Allow(ctx, "a")
	_, _ = s.Allow(ctx, "a")
	d, err := s.Allow(ctx, "b")
	if err != nil || !d.Allowed || d.Remaining != 1 {
		t.Errorf("decision = %+v, err = %v", d, err)
	}
}

func TestAllow_StoreError(t *testing.T) {
	s := newTestStore(&mockStore{incrErr: errors.New("down")}, time.Unix(0, 0))
	if _, err := s.Allow(context.Background(), "u"); err == nil {
		t.Fatal("expected error")
	}
}
