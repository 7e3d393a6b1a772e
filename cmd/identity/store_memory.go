package identity

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is a dev/test Store. It enforces the same email-uniqueness
// contract as the Postgres implementation.
type MemoryStore struct {
	mu      sync.Mutex
	byID    map[string]User
	byEmail map[string]string // email_norm -> id
}

// NewMemoryStore constructs an empty in-memory directory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]User),
		byEmail: make(map[string]string),
	}
}

// Create implements Store.
func (s *MemoryStore) Create(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.Create"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	name := strings.TrimSpace(in.Name)
	emailNorm := NormalizeEmail(in.Email)
	if name == "" || emailNorm == "" || in.PasswordHash == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "name, email and password hash are required"}
	}

	role := in.Role
	if role == "" {
		role = RoleUser
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[emailNorm]; taken {
		return User{}, OpError{Op: op, Kind: ErrConflict, Msg: "email"}
	}

	u := User{
		ID:           id,
		Name:         name,
		Email:        strings.TrimSpace(in.Email),
		EmailNorm:    emailNorm,
		PasswordHash: in.PasswordHash,
		Role:         role,
		CreatedAt:    now,
	}
	s.byID[id] = u
	s.byEmail[emailNorm] = id
	return u, nil
}

// GetByEmail implements Store.
func (s *MemoryStore) GetByEmail(ctx context.Context, email string) (User, error) {
	const op = "identity.GetByEmail"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return User{}, OpError{Op: op, Kind: ErrNotFound, Msg: "user"}
	}
	return s.byID[id], nil
}

// GetByID implements Store.
func (s *MemoryStore) GetByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetByID"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return User{}, OpError{Op: op, Kind: ErrNotFound, Msg: "user"}
	}
	return u, nil
}

// ExistsByEmail implements Store.
func (s *MemoryStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.byEmail[NormalizeEmail(email)]
	return ok, nil
}
