package session

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"warden/cmd/identity/ids"
	"warden/cmd/internal/auth/csrf"
	"warden/cmd/internal/kv"
)

// Record is the stored session metadata, serialized as JSON under
// kv.SessionKey.
type Record struct {
	SessionID    string    `json:"session_id"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// Bundle is the result of establishing a session: the token pair plus the
// companion CSRF token.
type Bundle struct {
	SessionID    string
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
	CSRFToken    string
}

// Service is the session authority state machine. Per user the states are
// NoSession -> Active -> Superseded/Expired/LoggedOut, with every terminal
// state collapsing back to NoSession.
type Service struct {
	cfg   Config
	store kv.Store
	codec *Codec
	csrf  *csrf.Guard

	// now is the clock; tests may replace it.
	now func() time.Time
}

// NewService constructs a Service. CSRF issuance is part of establishing a
// session, so the guard is a required dependency.
func NewService(cfg Config, store kv.Store, codec *Codec, guard *csrf.Guard) *Service {
	return &Service{
		cfg:   cfg,
		store: store,
		codec: codec,
		csrf:  guard,
		now:   time.Now,
	}
}

// Codec exposes the credential codec for the request-authentication path.
func (s *Service) Codec() *Codec { return s.codec }

// AccessTokenTTL reports the configured access token lifetime.
func (s *Service) AccessTokenTTL() time.Duration { return s.cfg.AccessTokenTTL }

// RefreshTokenTTL reports the configured refresh token lifetime.
func (s *Service) RefreshTokenTTL() time.Duration { return s.cfg.RefreshTokenTTL }

// Establish creates a fresh session for the user, superseding any prior one.
//
// The supersession sequence (delete old records, then write new ones, then
// overwrite the active pointer) is not transactional: the last login to write
// the pointer wins, and any records a racing login orphaned expire via TTL.
func (s *Service) Establish(ctx context.Context, userID string) (Bundle, error) {
	now := s.now().UTC()

	oldSID, err := s.store.Get(ctx, kv.ActiveSessionKey(userID))
	switch {
	case err == nil:
		if err := s.store.Delete(ctx, kv.SessionKey(oldSID), kv.RefreshTokenKey(userID)); err != nil {
			return Bundle{}, fmt.Errorf("session: supersede: %w", err)
		}
	case errors.Is(err, kv.ErrNotFound):
		// NoSession: nothing to supersede.
	default:
		return Bundle{}, fmt.Errorf("session: read active pointer: %w", err)
	}

	sid, err := ids.NewULID(now)
	if err != nil {
		return Bundle{}, fmt.Errorf("session: new session id: %w", err)
	}

	access, accessExp, err := s.codec.Issue(userID, sid, KindAccess, s.cfg.AccessTokenTTL, now)
	if err != nil {
		return Bundle{}, fmt.Errorf("session: issue access token: %w", err)
	}
	refresh, refreshExp, err := s.codec.Issue(userID, sid, KindRefresh, s.cfg.RefreshTokenTTL, now)
	if err != nil {
		return Bundle{}, fmt.Errorf("session: issue refresh token: %w", err)
	}

	rec, err := json.Marshal(Record{
		SessionID:    sid,
		UserID:       userID,
		CreatedAt:    now,
		LastActivity: now,
	})
	if err != nil {
		return Bundle{}, fmt.Errorf("session: marshal record: %w", err)
	}

	ttl := s.cfg.RefreshTokenTTL
	if err := s.store.Set(ctx, kv.SessionKey(sid), string(rec), ttl); err != nil {
		return Bundle{}, fmt.Errorf("session: write record: %w", err)
	}
	if err := s.store.Set(ctx, kv.RefreshTokenKey(userID), refresh, ttl); err != nil {
		return Bundle{}, fmt.Errorf("session: write refresh token: %w", err)
	}
	if err := s.store.Set(ctx, kv.ActiveSessionKey(userID), sid, ttl); err != nil {
		return Bundle{}, fmt.Errorf("session: write active pointer: %w", err)
	}

	csrfToken, err := s.csrf.Issue(ctx, userID)
	if err != nil {
		return Bundle{}, err
	}

	return Bundle{
		SessionID:    sid,
		AccessToken:  access,
		AccessExp:    accessExp,
		RefreshToken: refresh,
		RefreshExp:   refreshExp,
		CSRFToken:    csrfToken,
	}, nil
}

// Refresh verifies a refresh token against current server state and mints a
// new access token. The refresh token itself is not rotated.
//
// Four checks must all pass: codec verification, byte-equality with the
// stored refresh token, active-pointer equality with the embedded session id,
// and existence of the session record. Failing any one yields ErrInvalidToken.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (accessToken string, accessExp time.Time, err error) {
	now := s.now().UTC()

	claims, err := s.codec.Verify(refreshToken, KindRefresh, now)
	if err != nil {
		return "", time.Time{}, ErrInvalidToken
	}

	stored, err := s.store.Get(ctx, kv.RefreshTokenKey(claims.UserID))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return "", time.Time{}, ErrInvalidToken
		}
		return "", time.Time{}, fmt.Errorf("session: read refresh token: %w", err)
	}
	if len(stored) != len(refreshToken) || subtle.ConstantTimeCompare([]byte(stored), []byte(refreshToken)) != 1 {
		return "", time.Time{}, ErrInvalidToken
	}

	activeSID, err := s.store.Get(ctx, kv.ActiveSessionKey(claims.UserID))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return "", time.Time{}, ErrInvalidToken
		}
		return "", time.Time{}, fmt.Errorf("session: read active pointer: %w", err)
	}
	if activeSID != claims.SessionID {
		// Logged in elsewhere: the session was superseded.
		return "", time.Time{}, ErrInvalidToken
	}

	raw, err := s.store.Get(ctx, kv.SessionKey(claims.SessionID))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return "", time.Time{}, ErrInvalidToken
		}
		return "", time.Time{}, fmt.Errorf("session: read record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return "", time.Time{}, ErrInvalidToken
	}
	rec.LastActivity = now

	updated, err := json.Marshal(rec)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("session: marshal record: %w", err)
	}
	// KeepTTL: touching activity must not extend the session's life.
	if err := s.store.Set(ctx, kv.SessionKey(rec.SessionID), string(updated), kv.KeepTTL); err != nil {
		return "", time.Time{}, fmt.Errorf("session: touch record: %w", err)
	}

	access, exp, err := s.codec.Issue(claims.UserID, claims.SessionID, KindAccess, s.cfg.AccessTokenTTL, now)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("session: issue access token: %w", err)
	}
	return access, exp, nil
}

// IsActive reports whether sessionID is the user's current session. It is
// the server-authoritative check behind access-token verification: a
// syntactically valid access token whose session was superseded or logged
// out fails here before its expiry.
func (s *Service) IsActive(ctx context.Context, userID, sessionID string) (bool, error) {
	active, err := s.store.Get(ctx, kv.ActiveSessionKey(userID))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("session: read active pointer: %w", err)
	}
	return active == sessionID, nil
}

// Revoke tears down the user's session state and CSRF token. Revoking a
// non-existent session is a no-op, not an error.
func (s *Service) Revoke(ctx context.Context, userID string) error {
	keys := []string{kv.ActiveSessionKey(userID), kv.RefreshTokenKey(userID)}

	sid, err := s.store.Get(ctx, kv.ActiveSessionKey(userID))
	switch {
	case err == nil:
		keys = append(keys, kv.SessionKey(sid))
	case errors.Is(err, kv.ErrNotFound):
	default:
		return fmt.Errorf("session: read active pointer: %w", err)
	}

	if err := s.store.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("session: revoke: %w", err)
	}
	return s.csrf.Revoke(ctx, userID)
}
