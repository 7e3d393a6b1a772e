package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	RedisURL string

	SMTPAddr     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	// If true, /readyz returns 503 unless Postgres is configured and reachable.
	ReadinessRequireDB bool

	// If true, /readyz returns 503 unless Redis is configured and reachable.
	// Without Redis all session and verification state lives in process memory
	// and is lost on restart.
	ReadinessRequireRedis bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("WARDEN_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("WARDEN_LOG_LEVEL", "info"),
		LogFormat: EnvString("WARDEN_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("WARDEN_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("WARDEN_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("WARDEN_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("WARDEN_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("WARDEN_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("WARDEN_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("WARDEN_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("WARDEN_DB_MIN_CONNS", 0),

		RedisURL: EnvString("WARDEN_REDIS_URL", ""),

		SMTPAddr:     EnvString("WARDEN_SMTP_ADDR", ""),
		SMTPFrom:     EnvString("WARDEN_SMTP_FROM", ""),
		SMTPUsername: EnvString("WARDEN_SMTP_USERNAME", ""),
		SMTPPassword: EnvString("WARDEN_SMTP_PASSWORD", ""),

		ReadinessRequireDB:    EnvBool("WARDEN_READINESS_REQUIRE_DB", false),
		ReadinessRequireRedis: EnvBool("WARDEN_READINESS_REQUIRE_REDIS", false),
	}
}
