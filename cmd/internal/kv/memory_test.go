package kv

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryGetSetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := m.Set(ctx, "a", "1", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := m.Get(ctx, "a")
	if err != nil || v != "1" {
		t.Fatalf("Get: %q, %v", v, err)
	}

	if err := m.Delete(ctx, "a", "missing"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	now := time.Now().UTC()
	m.Now = func() time.Time { return now }

	if err := m.Set(ctx, "a", "1", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	now = now.Add(59 * time.Second)
	if _, err := m.Get(ctx, "a"); err != nil {
		t.Fatalf("expected live key, got %v", err)
	}

	now = now.Add(2 * time.Second)
	if _, err := m.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired key, got %v", err)
	}
}

func TestMemoryKeepTTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	now := time.Now().UTC()
	m.Now = func() time.Time { return now }

	if err := m.Set(ctx, "a", "1", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Overwrite with KeepTTL must not extend the original expiry.
	now = now.Add(30 * time.Second)
	if err := m.Set(ctx, "a", "2", KeepTTL); err != nil {
		t.Fatalf("Set KeepTTL: %v", err)
	}

	now = now.Add(29 * time.Second)
	if v, err := m.Get(ctx, "a"); err != nil || v != "2" {
		t.Fatalf("expected updated live key, got %q, %v", v, err)
	}

	now = now.Add(2 * time.Second)
	if _, err := m.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected original expiry to hold, got %v", err)
	}
}

func TestKeyShapes(t *testing.T) {
	cases := []struct {
		got  string
		want string
	}{
		{SessionKey("01ABC"), "session:01ABC"},
		{ActiveSessionKey("u1"), "active_session:u1"},
		{RefreshTokenKey("u1"), "refresh_token:u1"},
		{CSRFKey("u1"), "csrf:u1"},
		{OTPKey("a@x.com"), "otp:a@x.com"},
		{VerifyKey("tok"), "verify:tok"},
		{UserCacheKey("u1"), "user:u1"},
		{RateLimitKey("login", "1.2.3.4", "a@x.com"), "login-rate-limit:1.2.3.4:a@x.com"},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Fatalf("key shape %q, want %q", c.got, c.want)
		}
	}
}
