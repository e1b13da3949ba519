// Package config provides unified configuration for the agentgate gateway.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variables, with an optional .env file filling in
//     variables the process environment does not set
//  4. File reference resolution (_file suffix fields)
//  5. Validation
//
// The configuration is read once at start-up and never mutated afterwards.
package config

import (
	"strings"
	"time"
)

// PlaceholderSecret is the default signing secret. It only exists so that
// tooling can start without configuration and must be overridden in any
// real deployment.
const PlaceholderSecret = "mock-secret-key-for-migrations"

// Config holds all configuration for the agentgate gateway.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	Storage       StorageConfig       `yaml:"storage"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP and gRPC listener settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	GRPCPort        int           `yaml:"grpc_port"`        // default: 0 (disabled)
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 10s
	MaxBodySize     int64         `yaml:"max_body_size"`    // default: 1 MiB
}

// AuthConfig holds the authentication mode and its settings.
type AuthConfig struct {
	Type              string          `yaml:"type"`               // "noop" or "custom", default: "noop"
	SecretKey         string          `yaml:"secret_key"`         // HS256 signing secret for type=custom
	SecretKeyFile     string          `yaml:"secret_key_file"`    // _file variant for secret_key
	AllowAnonymous    bool            `yaml:"allow_anonymous"`    // admit requests without a header
	Development       bool            `yaml:"development"`        // enable lenient fallbacks
	Environment       string          `yaml:"environment"`        // "production" disables all leniency
	RequireExpiration bool            `yaml:"require_expiration"` // reject tokens without exp
	Leeway            time.Duration   `yaml:"leeway"`             // clock skew tolerance
	BypassEndpoints   []string        `yaml:"bypass_endpoints"`   // default: /healthz, /readyz, /metrics
	RateLimit         RateLimitConfig `yaml:"rate_limit"`
}

// Production reports whether the deployment is production-configured.
func (a AuthConfig) Production() bool {
	return strings.EqualFold(strings.TrimSpace(a.Environment), "production")
}

// RateLimitConfig holds per-tier request limits. 0 disables a limit.
type RateLimitConfig struct {
	RequestsPerMinute          int `yaml:"requests_per_minute"`
	AnonymousRequestsPerMinute int `yaml:"anonymous_requests_per_minute"`
}

// Enabled reports whether any tier is limited.
func (r RateLimitConfig) Enabled() bool {
	return r.RequestsPerMinute > 0 || r.AnonymousRequestsPerMinute > 0
}

// StorageConfig holds resource store settings.
type StorageConfig struct {
	Type     string         `yaml:"type"`     // "memory" or "postgres", default: "memory"
	MaxSize  int            `yaml:"max_size"` // for memory store, default: 10000
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // ERROR, WARN, INFO, DEBUG; default: INFO
	Format string `yaml:"format"` // "text" or "json", default: "text"
	Debug  string `yaml:"debug"`  // comma-separated debug categories
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodySize:     1 << 20,
		},
		Auth: AuthConfig{
			Type:            "noop",
			SecretKey:       PlaceholderSecret,
			BypassEndpoints: []string{"/healthz", "/readyz", "/metrics"},
		},
		Storage: StorageConfig{
			Type:    "memory",
			MaxSize: 10000,
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
