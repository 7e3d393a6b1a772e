// Package kv defines the expiring key-value store that backs all short-lived
// server-side auth state: refresh tokens, session records, active-session
// pointers, CSRF tokens, OTPs, pending registrations, rate-limit markers, and
// the cached user projection.
//
// The store is an injected dependency: Redis in production, Memory in tests.
// Per-key operations are atomic; multi-key sequences are not (see
// auth/session for the documented last-write-wins policy).
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key does not exist or has expired.
// Callers must treat it as "absent", never as a transport failure.
var ErrNotFound = errors.New("kv: key not found")

// KeepTTL preserves the remaining expiry of an existing key on overwrite.
// Passing it as the ttl of a Set on a missing key leaves the key without
// expiry, so it must only be used for keys known to exist.
const KeepTTL = time.Duration(-1)

// Store is an expiring key-value store.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set writes key=value with the given ttl. ttl==KeepTTL preserves the
	// current expiry; ttl==0 stores without expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
}
