package identity

import (
	"context"
	"testing"
)

func TestMemoryStoreCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	hash, err := HashPassword("Secret1!", DefaultBcryptCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	u, err := st.Create(ctx, CreateUserInput{Name: "Ana", Email: "Ana@X.com", PasswordHash: hash})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID == "" || u.Role != RoleUser {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.EmailNorm != "ana@x.com" {
		t.Fatalf("expected normalized email, got %q", u.EmailNorm)
	}

	got, err := st.GetByEmail(ctx, "ANA@x.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("lookup mismatch: %q vs %q", got.ID, u.ID)
	}

	if _, err := st.Create(ctx, CreateUserInput{Name: "Ana2", Email: "ana@x.com", PasswordHash: hash}); !IsConflict(err) {
		t.Fatalf("expected conflict on duplicate email, got %v", err)
	}

	exists, err := st.ExistsByEmail(ctx, "ana@x.com")
	if err != nil || !exists {
		t.Fatalf("ExistsByEmail: %v, %v", exists, err)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("Secret1!", DefaultBcryptCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword("Secret1!", hash) {
		t.Fatalf("expected password to verify")
	}
	if VerifyPassword("wrong-password", hash) {
		t.Fatalf("expected wrong password to fail")
	}

	if _, err := HashPassword("short", DefaultBcryptCost); err != ErrPasswordTooShort {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}

func TestPublicViewHasNoPassword(t *testing.T) {
	u := User{ID: "u1", Name: "Ana", Email: "ana@x.com", PasswordHash: "hash", Role: RoleAdmin}
	pub := u.PublicView()
	if pub.ID != "u1" || pub.Email != "ana@x.com" || pub.Role != RoleAdmin {
		t.Fatalf("unexpected public view: %+v", pub)
	}
}
