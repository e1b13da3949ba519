package auth

import "context"

// Identity represents an authenticated caller. It is built fresh for every
// request and must not be modified after it is returned.
type Identity struct {
	// Subject is the unique identifier (required, non-empty).
	Subject string

	// DisplayName is a human-readable label, best effort.
	DisplayName string

	// IsAuthenticated is true only when the credential was validated
	// cryptographically or explicitly accepted. Anonymous fallbacks may
	// carry false.
	IsAuthenticated bool

	// Email is populated for verified tokens only.
	Email string

	// Permissions lists the capabilities granted to the caller.
	Permissions []string

	// Metadata carries provider-supplied claims (provider, org_id, ...).
	Metadata map[string]string
}

// HasPermission reports whether the identity carries the given capability.
func (id *Identity) HasPermission(p string) bool {
	if id == nil {
		return false
	}
	for _, have := range id.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

// Filter is the access constraint returned by an Authorizer. The zero value
// places no restriction on the caller.
type Filter struct {
	Owner string `json:"owner,omitempty"`
}

// Unrestricted reports whether the filter places no constraint.
func (f Filter) Unrestricted() bool {
	return f.Owner == ""
}

// Matches reports whether a resource owned by owner is visible under f.
func (f Filter) Matches(owner string) bool {
	return f.Unrestricted() || f.Owner == owner
}

// Action names the kind of operation being authorized.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionSearch Action = "search"
)

// Mutating reports whether the action writes the resource.
func (a Action) Mutating() bool {
	return a == ActionCreate || a == ActionUpdate
}

// Operation is the input to an Authorizer: the targeted resource kind, the
// action, and the payload metadata. Authorizers may stamp ownership keys into
// Metadata.
type Operation struct {
	Resource string
	Action   Action
	Metadata map[string]any
}

// MetadataOwnerKey is the metadata key carrying the owner stamp.
const MetadataOwnerKey = "owner"

// Authenticator converts request headers into an Identity, or fails with an
// *Error.
type Authenticator interface {
	Authenticate(ctx context.Context, headers Headers) (*Identity, error)
}

// Authorizer converts an authenticated Identity and an Operation into a
// Filter, or fails with an *Error. A failure always denies access.
type Authorizer interface {
	Authorize(ctx context.Context, id *Identity, op *Operation) (Filter, error)
}

// Strategy is the Authenticator and Authorizer pair selected at start-up.
type Strategy interface {
	Authenticator
	Authorizer

	// Mode returns the configured mode name ("noop" or "custom").
	Mode() string
}

// Pair composes an Authenticator and an Authorizer into a Strategy.
type Pair struct {
	Name string
	Authenticator
	Authorizer
}

// Mode returns the pair's name.
func (p *Pair) Mode() string {
	return p.Name
}

var _ Strategy = (*Pair)(nil)
