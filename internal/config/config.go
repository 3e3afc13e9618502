// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Clean     CleanConfig
	Rate      RateLimitConfig
	Security  SecurityConfig
	Logging   LoggingConfig
	Retention RetentionConfig
	Metrics   MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// StoreConfig holds run-history storage settings.
type StoreConfig struct {
	// URL selects the backend by scheme: postgres://, sqlite://, memory://
	// Supports both STORE_URL and DATABASE_URL env vars for compatibility
	URL string `env:"STORE_URL" envAlt:"DATABASE_URL" default:"memory://"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// CleanConfig holds CSV cleaning settings.
type CleanConfig struct {
	// MaxFileSize is the maximum allowed upload size in bytes (default: 20MB)
	MaxFileSize int64 `env:"CLEAN_MAX_FILE_SIZE" envAlt:"UPLOAD_MAX_FILE_SIZE" default:"20971520"`

	// MaxConcurrent is the maximum number of parallel cleans (default: 5)
	MaxConcurrent int `env:"CLEAN_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long to wait for a clean slot (default: 10s)
	MaxWaitTime time.Duration `env:"CLEAN_MAX_WAIT_TIME" default:"10s"`

	// Timeout bounds a whole clean call, read included (default: 30s)
	Timeout time.Duration `env:"CLEAN_TIMEOUT" default:"30s"`

	// GoalsLimit overrides the goals record limit (default: 73)
	GoalsLimit float64 `env:"CLEAN_GOALS_LIMIT" default:"73"`

	// MinAge is the youngest plausible age (default: 15)
	MinAge float64 `env:"CLEAN_MIN_AGE" default:"15"`

	// MaxAge is the oldest plausible age (default: 50)
	MaxAge float64 `env:"CLEAN_MAX_AGE" default:"50"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// CleanLimit is requests per minute for the clean endpoint (default: 10)
	CleanLimit int `env:"RATE_LIMIT_CLEAN" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey rejects API requests without a valid X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`

	// CORSAllowedOrigins is a comma-separated list of origins (default: *)
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// RetentionConfig holds run-history pruning settings.
type RetentionConfig struct {
	// Days is how long run records are kept (default: 30)
	Days int `env:"RUN_RETENTION_DAYS" default:"30"`

	// CheckInterval is how often to prune (default: 24h)
	CheckInterval time.Duration `env:"RUN_RETENTION_CHECK_INTERVAL" default:"24h"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes /metrics (default: true)
	Enabled bool `env:"METRICS_ENABLED" default:"true"`

	// Namespace prefixes every metric name (default: soccerstat)
	Namespace string `env:"METRICS_NAMESPACE" default:"soccerstat"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
