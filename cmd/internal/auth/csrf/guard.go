// Package csrf implements the double-submit CSRF token guard.
//
// The token is stored server-side keyed by user id and delivered as a
// readable cookie; mutating requests must echo it back in a header. The guard
// layers on top of session authentication and never replaces it.
package csrf

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"warden/cmd/internal/kv"
)

// Verification outcomes. MISSING/EXPIRED/MISMATCH are distinguished for
// client messaging; CSRF is not a secrecy boundary for account existence.
var (
	ErrMissing  = errors.New("csrf token missing")
	ErrExpired  = errors.New("csrf token expired")
	ErrMismatch = errors.New("csrf token mismatch")
)

// DefaultTTL is the CSRF token lifetime.
const DefaultTTL = time.Hour

// Guard issues and verifies per-user CSRF tokens.
type Guard struct {
	store kv.Store
	ttl   time.Duration
}

// NewGuard constructs a Guard. A non-positive ttl falls back to DefaultTTL.
func NewGuard(store kv.Store, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Guard{store: store, ttl: ttl}
}

// TTL reports the configured token lifetime (used to align cookie expiry).
func (g *Guard) TTL() time.Duration { return g.ttl }

// Issue generates a fresh random token for the user and stores it.
func (g *Guard) Issue(ctx context.Context, userID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("csrf: generate token: %w", err)
	}
	token := hex.EncodeToString(buf)

	if err := g.store.Set(ctx, kv.CSRFKey(userID), token, g.ttl); err != nil {
		return "", fmt.Errorf("csrf: store token: %w", err)
	}
	return token, nil
}

// Verify compares a client-presented token against the stored one.
// Safe (GET-equivalent) requests must bypass this at the HTTP layer.
func (g *Guard) Verify(ctx context.Context, userID, presented string) error {
	if presented == "" {
		return ErrMissing
	}

	stored, err := g.store.Get(ctx, kv.CSRFKey(userID))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return ErrExpired
		}
		return fmt.Errorf("csrf: load token: %w", err)
	}

	if len(stored) != len(presented) || subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		return ErrMismatch
	}
	return nil
}

// Revoke deletes the stored token. Revoking an absent token is a no-op.
func (g *Guard) Revoke(ctx context.Context, userID string) error {
	return g.store.Delete(ctx, kv.CSRFKey(userID))
}

// Rotate revokes the current token and issues a new one.
func (g *Guard) Rotate(ctx context.Context, userID string) (string, error) {
	if err := g.Revoke(ctx, userID); err != nil {
		return "", err
	}
	return g.Issue(ctx, userID)
}
