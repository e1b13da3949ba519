package auth

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorRendering(t *testing.T) {
	tests := []struct {
		err        *Error
		wantText   string
		wantStatus int
		wantType   string
	}{
		{CredentialMissing(), "Unauthorized: header required", http.StatusUnauthorized, "unauthorized"},
		{CredentialMalformed(), "Unauthorized: invalid format", http.StatusUnauthorized, "unauthorized"},
		{CredentialExpired(nil), "Unauthorized: token expired", http.StatusUnauthorized, "unauthorized"},
		{CredentialInvalid(nil), "Unauthorized: invalid token", http.StatusUnauthorized, "unauthorized"},
		{IdentityMissing(), "Unauthorized: missing identity", http.StatusUnauthorized, "unauthorized"},
		{InvalidIdentity(), "Unauthorized: invalid identity", http.StatusUnauthorized, "unauthorized"},
		{NotConfigured(), "InternalError: auth not configured", http.StatusInternalServerError, "server_error"},
		{AuthenticationSystemError(nil), "InternalError: authentication system error", http.StatusInternalServerError, "server_error"},
		{AuthorizationSystemError(nil), "InternalError: authorization system error", http.StatusInternalServerError, "server_error"},
		{NewError(KindRateLimited, "rate limit exceeded", nil), "TooManyRequests: rate limit exceeded", http.StatusTooManyRequests, "too_many_requests"},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Kind), func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantText {
				t.Errorf("Error() = %q, want %q", got, tt.wantText)
			}
			if got := tt.err.Status(); got != tt.wantStatus {
				t.Errorf("Status() = %d, want %d", got, tt.wantStatus)
			}
			if got := tt.err.Type(); got != tt.wantType {
				t.Errorf("Type() = %q, want %q", got, tt.wantType)
			}
		})
	}
}

func TestErrorHidesCause(t *testing.T) {
	cause := errors.New("signature is invalid: secret=hunter2")
	err := CredentialInvalid(cause)
	if got := err.Error(); got != "Unauthorized: invalid token" {
		t.Errorf("Error() leaked cause: %q", got)
	}
	if !errors.Is(err, cause) {
		t.Error("cause should be reachable through Unwrap")
	}
}

func TestErrorIs(t *testing.T) {
	wrapped := fmt.Errorf("authenticate: %w", CredentialExpired(nil))

	if !errors.Is(wrapped, ErrCredentialExpired) {
		t.Error("expected match on kind sentinel")
	}
	if errors.Is(wrapped, ErrCredentialInvalid) {
		t.Error("unexpected match on different kind")
	}
	if !errors.Is(InvalidIdentity(), ErrIdentityMissing) {
		t.Error("invalid identity should match identity_missing kind")
	}
	if errors.Is(InvalidIdentity(), IdentityMissing()) {
		t.Error("message-bearing target should require the same message")
	}
}

func TestAsError(t *testing.T) {
	if AsError(nil) != nil {
		t.Error("AsError(nil) should be nil")
	}

	ae := AsError(fmt.Errorf("wrap: %w", CredentialMissing()))
	if ae.Kind != KindCredentialMissing {
		t.Errorf("Kind = %q, want credential_missing", ae.Kind)
	}

	plain := errors.New("db down")
	ae = AsError(plain)
	if ae.Kind != KindInternal || ae.Error() != "InternalError: authentication system error" {
		t.Errorf("AsError(plain) = %q (%s)", ae.Error(), ae.Kind)
	}
	if !errors.Is(ae, plain) {
		t.Error("plain cause should be preserved")
	}
}

func TestStatusCode(t *testing.T) {
	if got := StatusCode(nil); got != http.StatusOK {
		t.Errorf("StatusCode(nil) = %d, want 200", got)
	}
	if got := StatusCode(CredentialMissing()); got != http.StatusUnauthorized {
		t.Errorf("StatusCode(missing) = %d, want 401", got)
	}
	if got := StatusCode(errors.New("boom")); got != http.StatusInternalServerError {
		t.Errorf("StatusCode(plain) = %d, want 500", got)
	}
}
