package csrf

import (
	"context"
	"errors"
	"testing"
	"time"

	"warden/cmd/internal/kv"
)

func TestIssueAndVerify(t *testing.T) {
	ctx := context.Background()
	g := NewGuard(kv.NewMemory(), time.Hour)

	token, err := g.Issue(ctx, "u1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if len(token) != 64 {
		t.Fatalf("expected 32-byte hex token, got %d chars", len(token))
	}

	if err := g.Verify(ctx, "u1", token); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerifyMissing(t *testing.T) {
	ctx := context.Background()
	g := NewGuard(kv.NewMemory(), time.Hour)

	if err := g.Verify(ctx, "u1", ""); !errors.Is(err, ErrMissing) {
		t.Fatalf("expected ErrMissing, got %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	now := time.Now().UTC()
	store.Now = func() time.Time { return now }

	g := NewGuard(store, time.Hour)
	token, err := g.Issue(ctx, "u1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	now = now.Add(time.Hour + time.Second)
	if err := g.Verify(ctx, "u1", token); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestVerifyMismatch(t *testing.T) {
	ctx := context.Background()
	g := NewGuard(kv.NewMemory(), time.Hour)

	if _, err := g.Issue(ctx, "u1"); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if err := g.Verify(ctx, "u1", "deadbeef"); !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected ErrMismatch, got %v", err)
	}
}

func TestRotateInvalidatesOldToken(t *testing.T) {
	ctx := context.Background()
	g := NewGuard(kv.NewMemory(), time.Hour)

	old, err := g.Issue(ctx, "u1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	fresh, err := g.Rotate(ctx, "u1")
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if fresh == old {
		t.Fatalf("expected a new token after rotation")
	}

	if err := g.Verify(ctx, "u1", old); !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected old token to mismatch, got %v", err)
	}
	if err := g.Verify(ctx, "u1", fresh); err != nil {
		t.Fatalf("expected fresh token to verify, got %v", err)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	g := NewGuard(kv.NewMemory(), time.Hour)

	if err := g.Revoke(ctx, "u1"); err != nil {
		t.Fatalf("Revoke on absent token: %v", err)
	}
}
