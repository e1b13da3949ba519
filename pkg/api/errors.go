package api

import (
	"fmt"
	"net/http"
)

// ErrorType is the category of an API error. Each type maps to exactly one
// HTTP status.
type ErrorType string

const (
	ErrorTypeServerError     ErrorType = "server_error"
	ErrorTypeInvalidRequest  ErrorType = "invalid_request"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeConflict        ErrorType = "conflict"
	ErrorTypeUnauthorized    ErrorType = "unauthorized"
	ErrorTypeTooManyRequests ErrorType = "too_many_requests"
)

var errorStatus = map[ErrorType]int{
	ErrorTypeInvalidRequest:  http.StatusBadRequest,
	ErrorTypeUnauthorized:    http.StatusUnauthorized,
	ErrorTypeNotFound:        http.StatusNotFound,
	ErrorTypeConflict:        http.StatusConflict,
	ErrorTypeTooManyRequests: http.StatusTooManyRequests,
}

// Status returns the HTTP status for t. Unknown types are server errors.
func (t ErrorType) Status() int {
	if s, ok := errorStatus[t]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// APIError is the body of the {"error": ...} envelope. Code carries the
// auth failure kind for auth errors; Param names the offending field.
type APIError struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code,omitempty"`
	Param   string    `json:"param,omitempty"`
	Message string    `json:"message"`
}

func (e *APIError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Type, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorResponse is the top-level error envelope.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

func newError(t ErrorType, code, message string) *APIError {
	return &APIError{Type: t, Code: code, Message: message}
}

// NewInvalidRequestError reports a bad request field.
func NewInvalidRequestError(param, message string) *APIError {
	e := newError(ErrorTypeInvalidRequest, "", message)
	e.Param = param
	return e
}

func NewNotFoundError(message string) *APIError { return newError(ErrorTypeNotFound, "", message) }
func NewConflictError(message string) *APIError { return newError(ErrorTypeConflict, "", message) }
func NewServerError(message string) *APIError   { return newError(ErrorTypeServerError, "", message) }

// NewUnauthorizedError reports a rejected credential; code is the auth
// failure kind.
func NewUnauthorizedError(code, message string) *APIError {
	return newError(ErrorTypeUnauthorized, code, message)
}

// NewTooManyRequestsError reports a rate-limited caller.
func NewTooManyRequestsError(code, message string) *APIError {
	return newError(ErrorTypeTooManyRequests, code, message)
}

// NewResourceNotFound reports a missing resource. Resources owned by other
// callers are reported the same way.
func NewResourceNotFound(kind Kind, id string) *APIError {
	return NewNotFoundError(fmt.Sprintf("%s %s not found", kind.Singular(), id))
}

// NewResourceConflict reports a create with an id that is already taken.
func NewResourceConflict(kind Kind, id string) *APIError {
	return NewConflictError(fmt.Sprintf("%s %s already exists", kind.Singular(), id))
}
