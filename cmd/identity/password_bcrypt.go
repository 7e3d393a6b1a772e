package identity

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Password hashing for the directory. bcrypt is salted and cost-tunable,
// which is exactly the "plaintext + cost factor" primitive the auth flows
// consume.

const (
	// DefaultBcryptCost balances login latency against brute-force cost.
	DefaultBcryptCost = 10

	minPasswordLen = 8
	// bcrypt truncates beyond 72 bytes; reject instead of silently truncating.
	maxPasswordLen = 72
)

var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
)

// HashPassword returns a salted bcrypt digest of plain at the given cost.
// A cost outside bcrypt's valid range falls back to DefaultBcryptCost.
func HashPassword(plain string, cost int) (string, error) {
	if len(plain) < minPasswordLen {
		return "", ErrPasswordTooShort
	}
	if len(plain) > maxPasswordLen {
		return "", ErrPasswordTooLong
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// VerifyPassword checks plain against a stored bcrypt digest.
// Any failure (wrong password, malformed digest) reports false; callers must
// not distinguish the reasons.
func VerifyPassword(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
