package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, AGENTGATE_CONFIG env, ./config.yaml, /etc/agentgate/config.yaml)
//  3. Environment variables (process environment first, then the .env file)
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	env, err := newEnvironment()
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(&cfg, env)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. AGENTGATE_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/agentgate/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("AGENTGATE_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/agentgate/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// environment resolves variables from the process environment, falling
// back to values read from a .env file. The .env file never overrides a
// variable that is already set.
type environment struct {
	file map[string]string
}

// newEnvironment reads the .env file named by AGENTGATE_ENV_FILE, or
// ./.env when present. A missing default file is not an error.
func newEnvironment() (*environment, error) {
	path := os.Getenv("AGENTGATE_ENV_FILE")
	explicit := path != ""
	if !explicit {
		path = ".env"
	}

	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &environment{}, nil
		}
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}
	return &environment{file: values}, nil
}

// lookup returns the variable's value and whether it is set at all.
func (e *environment) lookup(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok {
		return v, true
	}
	v, ok := e.file[key]
	return v, ok
}

// get returns the variable's value, or empty string if unset.
func (e *environment) get(key string) string {
	v, _ := e.lookup(key)
	return v
}

// applyEnvOverrides maps environment variables to config fields. The auth
// variables keep the names used by the platform's existing deployments.
func applyEnvOverrides(cfg *Config, env *environment) {
	if v := env.get("AUTH_TYPE"); v != "" {
		cfg.Auth.Type = strings.ToLower(strings.TrimSpace(v))
	}
	// An explicitly empty SECRET_KEY clears the placeholder on purpose.
	if v, ok := env.lookup("SECRET_KEY"); ok {
		cfg.Auth.SecretKey = v
	}
	if v := env.get("ALLOW_ANONYMOUS"); v != "" {
		cfg.Auth.AllowAnonymous = strings.EqualFold(strings.TrimSpace(v), "true")
	}
	if env.get("NODE_ENV") == "development" {
		cfg.Auth.Development = true
	}
	if v := env.get("AUTH_DEVELOPMENT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Auth.Development = b
		}
	}
	if v := env.get("DEPLOYMENT_ENV"); v != "" {
		cfg.Auth.Environment = v
	}

	if v := env.get("AGENTGATE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := env.get("AGENTGATE_GRPC_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.GRPCPort = port
		}
	}
	if v := env.get("AGENTGATE_STORAGE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := env.get("AGENTGATE_STORAGE_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			cfg.Storage.MaxSize = size
		}
	}
	if v := env.get("DATABASE_URL"); v != "" {
		cfg.Storage.Postgres.DSN = v
	}
	if v := env.get("AGENTGATE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// A _file field wins over the default placeholder secret but not over an
// explicitly configured one.
func resolveFileReferences(cfg *Config) error {
	// auth.secret_key_file -> auth.secret_key
	if cfg.Auth.SecretKeyFile != "" && (cfg.Auth.SecretKey == "" || cfg.Auth.SecretKey == PlaceholderSecret) {
		val, err := readSecretFile(cfg.Auth.SecretKeyFile)
		if err != nil {
			return fmt.Errorf("auth.secret_key_file: %w", err)
		}
		cfg.Auth.SecretKey = val
	}

	// storage.postgres.dsn_file -> storage.postgres.dsn
	if cfg.Storage.Postgres.DSNFile != "" && cfg.Storage.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Storage.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("storage.postgres.dsn_file: %w", err)
		}
		cfg.Storage.Postgres.DSN = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
