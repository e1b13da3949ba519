package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rhuss/agentgate/pkg/api"
	"github.com/rhuss/agentgate/pkg/auth"
)

func TestHTTPStatusFromError(t *testing.T) {
	tests := []struct {
		name       string
		errType    api.ErrorType
		wantStatus int
	}{
		{"invalid_request -> 400", api.ErrorTypeInvalidRequest, http.StatusBadRequest},
		{"unauthorized -> 401", api.ErrorTypeUnauthorized, http.StatusUnauthorized},
		{"not_found -> 404", api.ErrorTypeNotFound, http.StatusNotFound},
		{"conflict -> 409", api.ErrorTypeConflict, http.StatusConflict},
		{"too_many_requests -> 429", api.ErrorTypeTooManyRequests, http.StatusTooManyRequests},
		{"server_error -> 500", api.ErrorTypeServerError, http.StatusInternalServerError},
		{"unknown type -> 500", api.ErrorType("unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HTTPStatusFromError(&api.APIError{Type: tt.errType, Message: "test"})
			if got != tt.wantStatus {
				t.Errorf("HTTPStatusFromError(%q) = %d, want %d", tt.errType, got, tt.wantStatus)
			}
		})
	}
}

func TestAPIErrorFromAuth(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType api.ErrorType
		wantMsg  string
	}{
		{"missing", auth.CredentialMissing(), api.ErrorTypeUnauthorized, "Unauthorized: header required"},
		{"expired", auth.CredentialExpired(errors.New("exp")), api.ErrorTypeUnauthorized, "Unauthorized: token expired"},
		{"invalid identity", auth.InvalidIdentity(), api.ErrorTypeUnauthorized, "Unauthorized: invalid identity"},
		{"not configured", auth.NotConfigured(), api.ErrorTypeServerError, "InternalError: auth not configured"},
		{"rate limited", auth.NewError(auth.KindRateLimited, "rate limit exceeded", nil), api.ErrorTypeTooManyRequests, "TooManyRequests: rate limit exceeded"},
		{"unclassified", errors.New("pq: connection reset"), api.ErrorTypeServerError, "InternalError: authentication system error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := APIErrorFromAuth(tt.err)
			if got.Type != tt.wantType || got.Message != tt.wantMsg {
				t.Errorf("APIErrorFromAuth = %+v, want %s %q", got, tt.wantType, tt.wantMsg)
			}
		})
	}
}

func TestAsAPIError(t *testing.T) {
	orig := api.NewNotFoundError("gone")
	if got := AsAPIError(orig); got != orig {
		t.Errorf("AsAPIError should return the APIError itself")
	}
	got := AsAPIError(errors.New("secret detail"))
	if got.Type != api.ErrorTypeServerError || strings.Contains(got.Message, "secret") {
		t.Errorf("AsAPIError(plain) = %+v", got)
	}
}

func TestWriteErrorResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteErrorResponse(rec, api.NewInvalidRequestError("limit", "negative"), http.StatusBadRequest)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Header().Get("WWW-Authenticate") != "" {
		t.Error("non-401 responses should not carry a challenge")
	}

	var resp api.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error == nil || resp.Error.Param != "limit" {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestWriteAPIErrorUnauthorized(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteAPIError(rec, APIErrorFromAuth(auth.CredentialInvalid(nil)))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("WWW-Authenticate"), "Bearer") {
		t.Errorf("WWW-Authenticate = %q", rec.Header().Get("WWW-Authenticate"))
	}
}
