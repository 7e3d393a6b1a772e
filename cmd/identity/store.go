package identity

import (
	"context"
	"time"
)

// Role is the single authorization flag warden models.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is warden's canonical security principal.
// PasswordHash is a bcrypt digest and must never leave this process.
type User struct {
	ID           string
	Name         string
	Email        string
	EmailNorm    string
	PasswordHash string
	Role         Role

	CreatedAt time.Time
}

// Public is the user view safe to serialize to clients and to the kv cache.
// It deliberately has no password field.
type Public struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// PublicView strips the credential material from a user record.
func (u User) PublicView() Public {
	return Public{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// CreateUserInput describes a promotion of a verified registration into a
// durable user. The password is already hashed by the caller.
type CreateUserInput struct {
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Now          time.Time
}

// Store is the durable user directory consumed by the auth flows.
type Store interface {
	// Create inserts a new user. Returns ErrConflict if the normalized email
	// is already claimed.
	Create(ctx context.Context, in CreateUserInput) (User, error)

	// GetByEmail looks a user up by normalized email. Returns ErrNotFound.
	GetByEmail(ctx context.Context, email string) (User, error)

	// GetByID looks a user up by id. Returns ErrNotFound.
	GetByID(ctx context.Context, id string) (User, error)

	// ExistsByEmail reports whether the normalized email is claimed.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
