package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"warden/cmd/internal/auth/csrf"
	"warden/cmd/internal/kv"
)

type fixture struct {
	svc   *Service
	store *kv.Memory
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := DefaultConfig()
	cfg.JWTSecret = strings.Repeat("s", 32)

	store := kv.NewMemory()
	codec, err := NewCodec(cfg)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	f := &fixture{
		store: store,
		now:   time.Now().UTC(),
	}
	store.Now = func() time.Time { return f.now }

	f.svc = NewService(cfg, store, codec, csrf.NewGuard(store, time.Hour))
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func TestEstablishWritesAllSessionState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	b, err := f.svc.Establish(ctx, "u1")
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	if b.SessionID == "" || b.AccessToken == "" || b.RefreshToken == "" || b.CSRFToken == "" {
		t.Fatalf("incomplete bundle: %+v", b)
	}

	sid, err := f.store.Get(ctx, kv.ActiveSessionKey("u1"))
	if err != nil || sid != b.SessionID {
		t.Fatalf("active pointer: %q, %v", sid, err)
	}
	stored, err := f.store.Get(ctx, kv.RefreshTokenKey("u1"))
	if err != nil || stored != b.RefreshToken {
		t.Fatalf("refresh record mismatch: %v", err)
	}

	raw, err := f.store.Get(ctx, kv.SessionKey(b.SessionID))
	if err != nil {
		t.Fatalf("session record: %v", err)
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if rec.UserID != "u1" || rec.SessionID != b.SessionID {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestEstablishSupersedesPriorSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.svc.Establish(ctx, "u1")
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	f.advance(time.Millisecond)
	second, err := f.svc.Establish(ctx, "u1")
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	if second.SessionID == first.SessionID {
		t.Fatalf("expected a distinct session id")
	}

	// Exactly one active pointer and one refresh record remain, both for the
	// second login; the first session record is gone.
	sid, err := f.store.Get(ctx, kv.ActiveSessionKey("u1"))
	if err != nil || sid != second.SessionID {
		t.Fatalf("active pointer: %q, %v", sid, err)
	}
	stored, err := f.store.Get(ctx, kv.RefreshTokenKey("u1"))
	if err != nil || stored != second.RefreshToken {
		t.Fatalf("refresh record: %v", err)
	}
	if _, err := f.store.Get(ctx, kv.SessionKey(first.SessionID)); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected first session record deleted, got %v", err)
	}
}

func TestRefreshHappyPathUpdatesActivity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	b, err := f.svc.Establish(ctx, "u1")
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}

	f.advance(time.Hour)
	access, exp, err := f.svc.Refresh(ctx, b.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if access == "" || !exp.After(f.now) {
		t.Fatalf("unexpected refresh result")
	}

	claims, err := f.svc.Codec().Verify(access, KindAccess, f.now)
	if err != nil || claims.SessionID != b.SessionID {
		t.Fatalf("new access token claims: %+v, %v", claims, err)
	}

	raw, err := f.store.Get(ctx, kv.SessionKey(b.SessionID))
	if err != nil {
		t.Fatalf("session record: %v", err)
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if !rec.LastActivity.After(rec.CreatedAt) {
		t.Fatalf("expected last_activity to advance: %+v", rec)
	}
}

func TestRefreshWithSupersededTokenFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.svc.Establish(ctx, "u1")
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	f.advance(time.Millisecond)
	if _, err := f.svc.Establish(ctx, "u1"); err != nil {
		t.Fatalf("Establish: %v", err)
	}

	// Syntactically valid, signature intact, but superseded.
	if _, _, err := f.svc.Refresh(ctx, first.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for superseded refresh, got %v", err)
	}
}

func TestRefreshAfterRevokeFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	b, err := f.svc.Establish(ctx, "u1")
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	if err := f.svc.Revoke(ctx, "u1"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, _, err := f.svc.Refresh(ctx, b.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after revoke, got %v", err)
	}
}

func TestRefreshRejectsAccessTokenAndGarbage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	b, err := f.svc.Establish(ctx, "u1")
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}

	if _, _, err := f.svc.Refresh(ctx, b.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for access token, got %v", err)
	}
	if _, _, err := f.svc.Refresh(ctx, "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestIsActive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	active, err := f.svc.IsActive(ctx, "u1", "nope")
	if err != nil || active {
		t.Fatalf("expected inactive before login: %v, %v", active, err)
	}

	b, err := f.svc.Establish(ctx, "u1")
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}

	active, err = f.svc.IsActive(ctx, "u1", b.SessionID)
	if err != nil || !active {
		t.Fatalf("expected active session: %v, %v", active, err)
	}

	f.advance(time.Millisecond)
	if _, err := f.svc.Establish(ctx, "u1"); err != nil {
		t.Fatalf("Establish: %v", err)
	}
	active, err = f.svc.IsActive(ctx, "u1", b.SessionID)
	if err != nil || active {
		t.Fatalf("expected superseded session inactive: %v, %v", active, err)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if err := f.svc.Revoke(ctx, "nobody"); err != nil {
		t.Fatalf("Revoke on NoSession: %v", err)
	}

	if _, err := f.svc.Establish(ctx, "u1"); err != nil {
		t.Fatalf("Establish: %v", err)
	}
	if err := f.svc.Revoke(ctx, "u1"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := f.svc.Revoke(ctx, "u1"); err != nil {
		t.Fatalf("second Revoke: %v", err)
	}
	if f.store.Len() != 0 {
		t.Fatalf("expected empty store after revoke, got %d keys", f.store.Len())
	}
}

func TestSessionStateExpiresTogether(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	b, err := f.svc.Establish(ctx, "u1")
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}

	f.advance(7*24*time.Hour + time.Second)
	if _, _, err := f.svc.Refresh(ctx, b.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after TTL, got %v", err)
	}
	active, err := f.svc.IsActive(ctx, "u1", b.SessionID)
	if err != nil || active {
		t.Fatalf("expected expired session inactive: %v, %v", active, err)
	}
}
