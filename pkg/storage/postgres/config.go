package postgres

import (
	"time"

	"github.com/rhuss/agentgate/pkg/config"
)

// Pool defaults applied to zero fields.
const (
	defaultMaxConns        int32 = 25
	defaultMinConns        int32 = 2
	defaultMaxConnLifetime       = 30 * time.Minute
)

// Config configures the PostgreSQL resource store.
type Config struct {
	// DSN is a libpq URL or keyword/value connection string.
	DSN string

	MaxConns        int32
	MinConns        int32 // clamped to MaxConns
	MaxConnLifetime time.Duration

	// MigrateOnStart applies pending embedded migrations in New.
	MigrateOnStart bool
}

// FromSettings converts the storage.postgres configuration section. The
// DSN has already been resolved from dsn_file or DATABASE_URL by the loader.
func FromSettings(s config.PostgresConfig) Config {
	return Config{
		DSN:            s.DSN,
		MaxConns:       s.MaxConns,
		MigrateOnStart: s.MigrateOnStart,
	}
}

func (c *Config) defaults() {
	c.MaxConns = orDefault(c.MaxConns, defaultMaxConns)
	c.MinConns = min(orDefault(c.MinConns, defaultMinConns), c.MaxConns)
	if c.MaxConnLifetime <= 0 {
		c.MaxConnLifetime = defaultMaxConnLifetime
	}
}

func orDefault(v, fallback int32) int32 {
	if v <= 0 {
		return fallback
	}
	return v
}
