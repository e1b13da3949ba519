// Package owner provides the owner-scoped authorizer: every caller sees and
// mutates only the resources stamped with its own subject. This is the
// tenant isolation boundary of the gateway.
package owner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rhuss/agentgate/pkg/auth"
)

// Authorizer restricts every operation to resources owned by the caller.
type Authorizer struct{}

// Authorize returns a filter on the caller's subject and stamps the same
// owner into the operation metadata, preserving unrelated keys. Classified
// auth errors pass through unchanged; anything else becomes an
// authorization system error. On error the filter is never usable.
func (a *Authorizer) Authorize(ctx context.Context, id *auth.Identity, op *auth.Operation) (filter auth.Filter, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during authorization: %v", r)
		}
		if err == nil {
			return
		}
		filter = auth.Filter{}
		var ae *auth.Error
		if !errors.As(err, &ae) {
			slog.Error("authorization error", "error", err)
			err = auth.AuthorizationSystemError(err)
		}
	}()

	if id == nil || id.Subject == "" {
		slog.Error("missing user identity in authorization context")
		return auth.Filter{}, auth.InvalidIdentity()
	}

	filter = auth.Filter{Owner: id.Subject}
	if op != nil {
		Stamp(op, filter)
	}
	return filter, nil
}

// Stamp writes the filter's owner into op.Metadata, creating the map if
// needed. Stamping the same owner again leaves the metadata unchanged.
func Stamp(op *auth.Operation, filter auth.Filter) {
	if op.Metadata == nil {
		op.Metadata = make(map[string]any, 1)
	}
	op.Metadata[auth.MetadataOwnerKey] = filter.Owner
}
