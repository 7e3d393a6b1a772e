package session

import (
	"os"
	"time"
)

// Config defines runtime configuration for the session subsystem.
//
// RefreshTokenTTL governs the refresh token, the session record, and the
// active-session pointer together; keeping the three TTLs aligned is what
// makes orphaned records from racing logins self-healing.
type Config struct {
	// Issuer is the value set in the "iss" claim of signed tokens.
	Issuer string

	// JWTSecret signs access and refresh tokens (HMAC-SHA256).
	// Must be at least 32 bytes.
	JWTSecret string

	// AccessTokenTTL is the lifetime of access tokens.
	AccessTokenTTL time.Duration

	// RefreshTokenTTL is the lifetime of refresh tokens and all
	// server-side session state.
	RefreshTokenTTL time.Duration
}

// MinJWTSecretBytes is the minimum accepted signing key length.
const MinJWTSecretBytes = 32

// DefaultConfig returns defaults suitable for development.
// The signing secret must still be provided.
func DefaultConfig() Config {
	return Config{
		Issuer:          "warden",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Required:
//   - WARDEN_JWT_SECRET (>= 32 bytes)
//
// Optional (durations must be valid Go duration strings):
//   - WARDEN_AUTH_ISSUER
//   - WARDEN_AUTH_ACCESS_TTL
//   - WARDEN_AUTH_REFRESH_TTL
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("WARDEN_AUTH_ISSUER"); v != "" {
		cfg.Issuer = v
	}

	if v := os.Getenv("WARDEN_AUTH_ACCESS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.AccessTokenTTL = d
	}

	if v := os.Getenv("WARDEN_AUTH_REFRESH_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.RefreshTokenTTL = d
	}

	cfg.JWTSecret = os.Getenv("WARDEN_JWT_SECRET")
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if len(c.JWTSecret) < MinJWTSecretBytes {
		return ErrConfig
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return ErrConfig
	}
	if c.Issuer == "" {
		return ErrConfig
	}
	return nil
}
