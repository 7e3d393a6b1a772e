package account

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls the registration and login flows.
type Config struct {
	// PendingTTL bounds how long a staged registration stays claimable.
	PendingTTL time.Duration

	// OTPTTL bounds how long a login code stays valid.
	OTPTTL time.Duration

	// RateLimitTTL is the per-(client, email) cooldown window.
	RateLimitTTL time.Duration

	// BcryptCost is passed to the password hasher.
	BcryptCost int

	// VerifyURLBase is the frontend base used to build verification links,
	// e.g. "https://app.example.com" -> ".../verify/{token}".
	VerifyURLBase string
}

// DefaultConfig returns the flow defaults.
func DefaultConfig() Config {
	return Config{
		PendingTTL:    5 * time.Minute,
		OTPTTL:        5 * time.Minute,
		RateLimitTTL:  60 * time.Second,
		BcryptCost:    10,
		VerifyURLBase: "http://localhost:5173",
	}
}

// LoadConfigFromEnv loads flow configuration with safe defaults.
//
// Optional:
//   - WARDEN_ACCOUNT_PENDING_TTL
//   - WARDEN_ACCOUNT_OTP_TTL
//   - WARDEN_ACCOUNT_RATE_LIMIT_TTL
//   - WARDEN_ACCOUNT_BCRYPT_COST
//   - WARDEN_FRONTEND_URL
func LoadConfigFromEnv() Config {
	cfg := DefaultConfig()

	cfg.PendingTTL = envDuration("WARDEN_ACCOUNT_PENDING_TTL", cfg.PendingTTL)
	cfg.OTPTTL = envDuration("WARDEN_ACCOUNT_OTP_TTL", cfg.OTPTTL)
	cfg.RateLimitTTL = envDuration("WARDEN_ACCOUNT_RATE_LIMIT_TTL", cfg.RateLimitTTL)
	cfg.BcryptCost = envInt("WARDEN_ACCOUNT_BCRYPT_COST", cfg.BcryptCost)
	if v := strings.TrimSpace(os.Getenv("WARDEN_FRONTEND_URL")); v != "" {
		cfg.VerifyURLBase = strings.TrimRight(v, "/")
	}

	return cfg
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
