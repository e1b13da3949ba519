// Package noop provides the access-control-disabled strategy: every request
// is accepted as the anonymous caller and no resource filter is applied.
// Used for local development and fully trusted networks.
package noop

import (
	"context"

	"github.com/rhuss/agentgate/pkg/auth"
)

// Mode is the AUTH_TYPE value selecting this strategy.
const Mode = "noop"

// Authenticator always returns the fixed anonymous identity.
type Authenticator struct{}

func (a *Authenticator) Authenticate(_ context.Context, _ auth.Headers) (*auth.Identity, error) {
	return &auth.Identity{
		Subject:         "anonymous",
		DisplayName:     "Anonymous User",
		IsAuthenticated: true,
	}, nil
}

// Authorizer always returns an unrestricted filter and leaves the
// operation untouched.
type Authorizer struct{}

func (a *Authorizer) Authorize(_ context.Context, _ *auth.Identity, _ *auth.Operation) (auth.Filter, error) {
	return auth.Filter{}, nil
}

// New returns the noop strategy.
func New() auth.Strategy {
	return &auth.Pair{
		Name:          Mode,
		Authenticator: &Authenticator{},
		Authorizer:    &Authorizer{},
	}
}
