package auth

import (
	"errors"
	"net/http"
)

// Kind classifies an authentication or authorization failure.
type Kind string

const (
	KindCredentialMissing   Kind = "credential_missing"
	KindCredentialMalformed Kind = "credential_malformed"
	KindCredentialExpired   Kind = "credential_expired"
	KindCredentialInvalid   Kind = "credential_invalid"
	KindIdentityMissing     Kind = "identity_missing"
	KindConfiguration       Kind = "configuration_error"
	KindInternal            Kind = "internal_error"
	KindRateLimited         Kind = "rate_limited"
)

// Status returns the HTTP-style status code exposed for the kind.
func (k Kind) Status() int {
	switch k {
	case KindConfiguration, KindInternal:
		return http.StatusInternalServerError
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusUnauthorized
	}
}

// Error is a classified auth failure. Message is safe to return to the
// caller; Err is the internal cause and is only ever logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface without exposing the cause.
func (e *Error) Error() string {
	switch e.Kind.Status() {
	case http.StatusUnauthorized:
		return "Unauthorized: " + e.Message
	case http.StatusTooManyRequests:
		return "TooManyRequests: " + e.Message
	default:
		return "InternalError: " + e.Message
	}
}

// Unwrap returns the internal cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so the exported sentinels
// work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Status returns the HTTP-style status code for the error.
func (e *Error) Status() int {
	return e.Kind.Status()
}

// Sentinels for errors.Is matching on kind alone.
var (
	ErrCredentialMissing   = &Error{Kind: KindCredentialMissing}
	ErrCredentialMalformed = &Error{Kind: KindCredentialMalformed}
	ErrCredentialExpired   = &Error{Kind: KindCredentialExpired}
	ErrCredentialInvalid   = &Error{Kind: KindCredentialInvalid}
	ErrIdentityMissing     = &Error{Kind: KindIdentityMissing}
	ErrConfiguration       = &Error{Kind: KindConfiguration}
	ErrInternal            = &Error{Kind: KindInternal}
	ErrTooManyRequests     = &Error{Kind: KindRateLimited}
)

// NewError creates a classified error with an optional internal cause.
func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// CredentialMissing is returned when no bearer header is present.
func CredentialMissing() *Error {
	return NewError(KindCredentialMissing, "header required", nil)
}

// CredentialMalformed is returned when the header lacks the Bearer scheme.
func CredentialMalformed() *Error {
	return NewError(KindCredentialMalformed, "invalid format", nil)
}

// CredentialExpired is returned for a valid signature past its expiry.
func CredentialExpired(cause error) *Error {
	return NewError(KindCredentialExpired, "token expired", cause)
}

// CredentialInvalid is returned when the token fails verification.
func CredentialInvalid(cause error) *Error {
	return NewError(KindCredentialInvalid, "invalid token", cause)
}

// IdentityMissing is returned when a verified token has no identity claim.
func IdentityMissing() *Error {
	return NewError(KindIdentityMissing, "missing identity", nil)
}

// InvalidIdentity is returned by authorizers handed an empty subject.
func InvalidIdentity() *Error {
	return NewError(KindIdentityMissing, "invalid identity", nil)
}

// NotConfigured is returned when the signing secret is absent.
func NotConfigured() *Error {
	return NewError(KindConfiguration, "auth not configured", nil)
}

// AuthenticationSystemError wraps an unexpected failure during verification.
func AuthenticationSystemError(cause error) *Error {
	return NewError(KindInternal, "authentication system error", cause)
}

// AuthorizationSystemError wraps an unexpected failure during authorization.
func AuthorizationSystemError(cause error) *Error {
	return NewError(KindInternal, "authorization system error", cause)
}

// AsError extracts an *Error from err. Unclassified errors are reported as
// a generic internal error so no cause text reaches the caller.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return NewError(KindInternal, "authentication system error", err)
}

// StatusCode returns the exposed status for err, or 200 when err is nil.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return AsError(err).Status()
}

// Type returns the API error type used in the JSON error envelope.
func (e *Error) Type() string {
	switch e.Kind.Status() {
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusTooManyRequests:
		return "too_many_requests"
	default:
		return "server_error"
	}
}
