package authapi

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Cookie names are part of the contract with the browser client.
const (
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"
	CSRFCookieName    = "csrfToken"
)

// csrfHeaderNames are checked in order on mutating requests.
var csrfHeaderNames = []string{"x-csrf-token", "x-xsrf-token", "csrf-token"}

// Config controls the HTTP auth boundary.
type Config struct {
	TrustProxy   bool
	MaxBodyBytes int64

	CookieDomain   string
	CookiePath     string
	CookieSecure   bool
	CookieSameSite http.SameSite

	// UserCacheTTL bounds the read-through cache of the public user view.
	UserCacheTTL time.Duration
}

// LoadConfigFromEnv loads API config with safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		TrustProxy:     envBool("WARDEN_API_TRUST_PROXY", false),
		MaxBodyBytes:   envInt64("WARDEN_API_MAX_BODY_BYTES", 1<<20), // 1 MiB
		CookieDomain:   strings.TrimSpace(os.Getenv("WARDEN_API_COOKIE_DOMAIN")),
		CookiePath:     "/",
		CookieSecure:   envBool("WARDEN_API_COOKIE_SECURE", true),
		CookieSameSite: http.SameSiteStrictMode,
		UserCacheTTL:   envDuration("WARDEN_API_USER_CACHE_TTL", time.Hour),
	}

	if v := strings.TrimSpace(os.Getenv("WARDEN_API_COOKIE_PATH")); v != "" {
		cfg.CookiePath = v
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("WARDEN_API_COOKIE_SAMESITE"))) {
	case "lax":
		cfg.CookieSameSite = http.SameSiteLaxMode
	case "none":
		cfg.CookieSameSite = http.SameSiteNoneMode
	case "strict", "":
	}

	return cfg
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
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
