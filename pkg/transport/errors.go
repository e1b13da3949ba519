package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rhuss/agentgate/pkg/api"
	"github.com/rhuss/agentgate/pkg/auth"
)

// HTTPStatusFromError returns the status for an APIError. Transport-level
// errors (body too large, unsupported content type) are written with an
// explicit status by the HTTP adapter.
func HTTPStatusFromError(err *api.APIError) int {
	return err.Type.Status()
}

// APIErrorFromAuth converts an auth failure into the API error envelope.
// Only the caller-safe message is carried over.
func APIErrorFromAuth(err error) *api.APIError {
	ae := auth.AsError(err)
	switch ae.Status() {
	case http.StatusUnauthorized:
		return api.NewUnauthorizedError(string(ae.Kind), ae.Error())
	case http.StatusTooManyRequests:
		return api.NewTooManyRequestsError(string(ae.Kind), ae.Error())
	default:
		return &api.APIError{Type: api.ErrorTypeServerError, Code: string(ae.Kind), Message: ae.Error()}
	}
}

// AsAPIError extracts an *api.APIError from err, falling back to a generic
// server error.
func AsAPIError(err error) *api.APIError {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return api.NewServerError("internal server error")
}

// WriteErrorResponse writes a JSON error response using the ErrorResponse
// wrapper format from pkg/api. It sets the Content-Type header and writes
// the HTTP status code.
func WriteErrorResponse(w http.ResponseWriter, apiErr *api.APIError, statusCode int) {
	if statusCode == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="agentgate"`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: apiErr})
}

// WriteAPIError writes an APIError response, deriving the HTTP status code
// from the error type.
func WriteAPIError(w http.ResponseWriter, apiErr *api.APIError) {
	WriteErrorResponse(w, apiErr, HTTPStatusFromError(apiErr))
}
