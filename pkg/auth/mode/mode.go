// Package mode selects the authentication strategy for the process. The
// choice is made once at start-up from configuration and never changes
// while the process runs.
package mode

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/rhuss/agentgate/pkg/auth"
	"github.com/rhuss/agentgate/pkg/auth/jwt"
	"github.com/rhuss/agentgate/pkg/auth/noop"
	"github.com/rhuss/agentgate/pkg/auth/owner"
	"github.com/rhuss/agentgate/pkg/config"
)

const (
	// Noop admits every caller as the anonymous identity with no data scoping.
	Noop = noop.Mode

	// Custom verifies HS256 bearer tokens and scopes data to the caller.
	Custom = "custom"
)

// New returns the strategy for cfg.Type. An unrecognized type is a
// start-up error naming the accepted values.
func New(cfg config.AuthConfig) (auth.Strategy, error) {
	var strategy auth.Strategy

	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case Noop:
		strategy = noop.New()
	case Custom:
		strategy = &auth.Pair{
			Name: Custom,
			Authenticator: jwt.New(jwt.Config{
				Secret:            cfg.SecretKey,
				AllowAnonymous:    cfg.AllowAnonymous,
				Development:       cfg.Development,
				Production:        cfg.Production(),
				RequireExpiration: cfg.RequireExpiration,
				Leeway:            cfg.Leeway,
			}),
			Authorizer: &owner.Authorizer{},
		}
	default:
		return nil, fmt.Errorf("unknown auth type %q (supported: %q, %q)", cfg.Type, Noop, Custom)
	}

	slog.Info("auth mode selected",
		"mode", strategy.Mode(),
		"allow_anonymous", cfg.AllowAnonymous,
		"development", cfg.Development,
		"production", cfg.Production(),
	)
	if strategy.Mode() == Custom && cfg.SecretKey == config.PlaceholderSecret {
		slog.Warn("auth secret is the built-in placeholder, set SECRET_KEY")
	}
	return strategy, nil
}
