package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}
	if c.Server.GRPCPort < 0 {
		errs = append(errs, fmt.Errorf("server.grpc_port must be >= 0, got %d", c.Server.GRPCPort))
	}

	switch c.Auth.Type {
	case "noop", "custom":
		// valid
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"noop\" or \"custom\", got %q", c.Auth.Type))
	}

	if c.Auth.Production() {
		if c.Auth.Development {
			errs = append(errs, fmt.Errorf("auth.development cannot be enabled when auth.environment is \"production\""))
		}
		if c.Auth.Type == "custom" && (c.Auth.SecretKey == "" || c.Auth.SecretKey == PlaceholderSecret) {
			errs = append(errs, fmt.Errorf("auth.secret_key must be set to a real secret when auth.environment is \"production\""))
		}
	}

	if c.Auth.Leeway < 0 {
		errs = append(errs, fmt.Errorf("auth.leeway must be >= 0, got %v", c.Auth.Leeway))
	}
	if c.Auth.RateLimit.RequestsPerMinute < 0 || c.Auth.RateLimit.AnonymousRequestsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("auth.rate_limit values must be >= 0"))
	}

	switch c.Storage.Type {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}

	if c.Storage.Type == "postgres" && c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
		errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
	}

	return errors.Join(errs...)
}
