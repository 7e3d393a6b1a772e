package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"warden/cmd/internal/kv"
)

// RateLimiter is an advisory per-(client, email) cooldown. Allow and Mark
// are separate calls, not an atomic check-and-set: two near-simultaneous
// requests can both pass. That is acceptable for a UX throttle; it is not a
// security boundary.
type RateLimiter struct {
	store kv.Store
	ttl   time.Duration
}

// NewRateLimiter constructs a limiter with the given cooldown window.
func NewRateLimiter(store kv.Store, ttl time.Duration) *RateLimiter {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &RateLimiter{store: store, ttl: ttl}
}

// Allow reports whether the (scope, addr, email) tuple may proceed.
func (l *RateLimiter) Allow(ctx context.Context, scope, addr, email string) (bool, error) {
	_, err := l.store.Get(ctx, kv.RateLimitKey(scope, addr, email))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return true, nil
		}
		return false, fmt.Errorf("ratelimit: %w", err)
	}
	return false, nil
}

// Mark starts the cooldown for the tuple.
func (l *RateLimiter) Mark(ctx context.Context, scope, addr, email string) error {
	if err := l.store.Set(ctx, kv.RateLimitKey(scope, addr, email), "1", l.ttl); err != nil {
		return fmt.Errorf("ratelimit: %w", err)
	}
	return nil
}
