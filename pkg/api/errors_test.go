package api

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestAPIErrorString(t *testing.T) {
	withParam := NewInvalidRequestError("id", "id must be a UUID")
	if got, want := withParam.Error(), "invalid_request: id must be a UUID (param: id)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got, want := NewServerError("internal failure").Error(), "server_error: internal failure"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrorTypeStatus(t *testing.T) {
	tests := map[ErrorType]int{
		ErrorTypeInvalidRequest:  http.StatusBadRequest,
		ErrorTypeUnauthorized:    http.StatusUnauthorized,
		ErrorTypeNotFound:        http.StatusNotFound,
		ErrorTypeConflict:        http.StatusConflict,
		ErrorTypeTooManyRequests: http.StatusTooManyRequests,
		ErrorTypeServerError:     http.StatusInternalServerError,
		ErrorType("mystery"):     http.StatusInternalServerError,
	}
	for typ, want := range tests {
		if got := typ.Status(); got != want {
			t.Errorf("%q.Status() = %d, want %d", typ, got, want)
		}
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name      string
		err       *APIError
		wantType  ErrorType
		wantParam string
		wantCode  string
	}{
		{"invalid request", NewInvalidRequestError("limit", "negative"), ErrorTypeInvalidRequest, "limit", ""},
		{"not found", NewNotFoundError("gone"), ErrorTypeNotFound, "", ""},
		{"conflict", NewConflictError("taken"), ErrorTypeConflict, "", ""},
		{"unauthorized", NewUnauthorizedError("credential_missing", "Unauthorized: header required"), ErrorTypeUnauthorized, "", "credential_missing"},
		{"server error", NewServerError("internal failure"), ErrorTypeServerError, "", ""},
		{"too many requests", NewTooManyRequestsError("rate_limited", "TooManyRequests: rate limit exceeded"), ErrorTypeTooManyRequests, "", "rate_limited"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", tt.err.Type, tt.wantType)
			}
			if tt.err.Param != tt.wantParam {
				t.Errorf("Param = %q, want %q", tt.err.Param, tt.wantParam)
			}
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.wantCode)
			}
		})
	}
}

func TestResourceErrors(t *testing.T) {
	id := "123e4567-e89b-12d3-a456-426614174000"

	nf := NewResourceNotFound(KindThread, id)
	if nf.Type != ErrorTypeNotFound || nf.Message != "thread "+id+" not found" {
		t.Errorf("NewResourceNotFound = %+v", nf)
	}

	c := NewResourceConflict(KindAssistant, id)
	if c.Type != ErrorTypeConflict || c.Message != "assistant "+id+" already exists" {
		t.Errorf("NewResourceConflict = %+v", c)
	}
}

func TestErrorResponseJSON(t *testing.T) {
	data, err := json.Marshal(ErrorResponse{Error: NewUnauthorizedError("credential_expired", "Unauthorized: token expired")})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	want := `{"error":{"type":"unauthorized","code":"credential_expired","message":"Unauthorized: token expired"}}`
	if string(data) != want {
		t.Errorf("JSON = %s, want %s", data, want)
	}

	data, err = json.Marshal(NewServerError("fail"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if want := `{"type":"server_error","message":"fail"}`; string(data) != want {
		t.Errorf("empty code and param should be omitted, got %s", data)
	}
}
