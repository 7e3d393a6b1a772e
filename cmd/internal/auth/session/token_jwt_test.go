package session

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testCodec(t *testing.T) *Codec {
	t.Helper()
	cfg := DefaultConfig()
	cfg.JWTSecret = strings.Repeat("s", 32)
	codec, err := NewCodec(cfg)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec
}

func TestCodecRoundTrip(t *testing.T) {
	codec := testCodec(t)
	now := time.Now().UTC()

	tok, exp, err := codec.Issue("u1", "s1", KindAccess, 15*time.Minute, now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !exp.After(now) {
		t.Fatalf("expected exp after now")
	}

	claims, err := codec.Verify(tok, KindAccess, now.Add(time.Second))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "u1" || claims.SessionID != "s1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestCodecExpiry(t *testing.T) {
	codec := testCodec(t)
	now := time.Now().UTC()

	tok, _, err := codec.Issue("u1", "s1", KindAccess, 15*time.Minute, now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := codec.Verify(tok, KindAccess, now.Add(15*time.Minute+time.Second)); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestCodecKindConfusion(t *testing.T) {
	codec := testCodec(t)
	now := time.Now().UTC()

	refresh, _, err := codec.Issue("u1", "s1", KindRefresh, 7*24*time.Hour, now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// A refresh token must not verify as an access token.
	if _, err := codec.Verify(refresh, KindAccess, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for kind mismatch, got %v", err)
	}
}

func TestCodecRejectsGarbageAndForeignSignature(t *testing.T) {
	codec := testCodec(t)
	now := time.Now().UTC()

	if _, err := codec.Verify("not-a-token", KindAccess, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for malformed token, got %v", err)
	}

	otherCfg := DefaultConfig()
	otherCfg.JWTSecret = strings.Repeat("x", 32)
	other, err := NewCodec(otherCfg)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	tok, _, err := other.Issue("u1", "s1", KindAccess, time.Minute, now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := codec.Verify(tok, KindAccess, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
}

func TestNewCodecRejectsShortSecret(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JWTSecret = "short"
	if _, err := NewCodec(cfg); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}
