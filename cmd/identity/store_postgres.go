package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements the user directory over PostgreSQL.
//
// The pgx pool is owned by the caller; this store must NOT close it.
// Schema identifiers are validated to keep identifier interpolation safe.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the directory (default "warden").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" || !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "warden",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

func (s *PostgresStore) usersTable() string {
	return fmt.Sprintf("%q.users", s.schema)
}

// Create implements Store.
func (s *PostgresStore) Create(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.Create"

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
		return User{}, fmt.Errorf("%s: %w", op, err)
	}

	q := fmt.Sprintf(`
		INSERT INTO %s (id, name, email, email_norm, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, s.usersTable())

	if _, err := s.pool.Exec(ctx, q, id, name, strings.TrimSpace(in.Email), emailNorm, in.PasswordHash, string(role), now); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, OpError{Op: op, Kind: ErrConflict, Msg: "email"}
		}
		return User{}, fmt.Errorf("%s: %w", op, err)
	}

	return User{
		ID:           id,
		Name:         name,
		Email:        strings.TrimSpace(in.Email),
		EmailNorm:    emailNorm,
		PasswordHash: in.PasswordHash,
		Role:         role,
		CreatedAt:    now,
	}, nil
}

// GetByEmail implements Store.
func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (User, error) {
	const op = "identity.GetByEmail"

	emailNorm := NormalizeEmail(email)
	if emailNorm == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "email is required"}
	}

	q := fmt.Sprintf(`
		SELECT id, name, email, email_norm, password_hash, role, created_at
		FROM %s
		WHERE email_norm = $1
	`, s.usersTable())

	return s.scanUser(ctx, op, q, emailNorm)
}

// GetByID implements Store.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (User, error) {
	const op = "identity.GetByID"

	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "id is required"}
	}

	q := fmt.Sprintf(`
		SELECT id, name, email, email_norm, password_hash, role, created_at
		FROM %s
		WHERE id = $1
	`, s.usersTable())

	return s.scanUser(ctx, op, q, id)
}

// ExistsByEmail implements Store.
func (s *PostgresStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const op = "identity.ExistsByEmail"

	emailNorm := NormalizeEmail(email)
	if emailNorm == "" {
		return false, OpError{Op: op, Kind: ErrInvalidInput, Msg: "email is required"}
	}

	q := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE email_norm = $1)`, s.usersTable())

	var exists bool
	if err := s.pool.QueryRow(ctx, q, emailNorm).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

func (s *PostgresStore) scanUser(ctx context.Context, op, query string, arg any) (User, error) {
	var u User
	var role string
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.EmailNorm, &u.PasswordHash, &role, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, OpError{Op: op, Kind: ErrNotFound, Msg: "user"}
		}
		return User{}, fmt.Errorf("%s: %w", op, err)
	}
	u.Role = Role(role)
	return u, nil
}
