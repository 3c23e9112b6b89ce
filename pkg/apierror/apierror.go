// Package apierror provides the standard error envelope returned by
// every API handler.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/phishsim/api/pkg/domain/shared"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeBadRequest        Code = "BAD_REQUEST"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeValidationFailed  Code = "VALIDATION_FAILED"
	CodeInternalError     Code = "INTERNAL_ERROR"
	CodeRateLimitExceeded Code = "RATE_LIMIT_EXCEEDED"
)

// Error is a standardized API error.
type Error struct {
	Status  int    `json:"-"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	Err     error  `json:"-"` // internal, never exposed to clients
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Response is the wire shape of an error.
type Response struct {
	Error     string `json:"error"`
	Code      Code   `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteJSON writes the error envelope to the response writer.
func (e *Error) WriteJSON(w http.ResponseWriter) {
	e.WriteJSONWithRequestID(w, "")
}

// WriteJSONWithRequestID writes the envelope including the request id.
func (e *Error) WriteJSONWithRequestID(w http.ResponseWriter, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	if requestID != "" {
		w.Header().Set("X-Request-ID", requestID)
	}
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(Response{
		Error:     string(e.Code),
		Code:      e.Code,
		Message:   e.Message,
		Details:   e.Details,
		RequestID: requestID,
	})
}

// New creates an API error.
func New(status int, code Code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// WithDetails attaches details to the error.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

// WithError attaches an internal error for logging.
func (e *Error) WithError(err error) *Error {
	e.Err = err
	return e
}

// BadRequest creates a 400 error.
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, CodeBadRequest, message)
}

// NotFound creates a 404 error for the named resource.
func NotFound(resource string) *Error {
	message := "Resource not found"
	if resource != "" {
		message = resource + " not found"
	}
	return New(http.StatusNotFound, CodeNotFound, message)
}

// Conflict creates a 409 error.
func Conflict(message string) *Error {
	return New(http.StatusConflict, CodeConflict, message)
}

// ValidationFailed creates a 422 error with field details.
func ValidationFailed(message string, details any) *Error {
	return &Error{
		Status:  http.StatusUnprocessableEntity,
		Code:    CodeValidationFailed,
		Message: message,
		Details: details,
	}
}

// InternalError creates a 500 error; the cause is kept internal and
// never leaks to the caller.
func InternalError(err error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternalError,
		Message: "An internal error occurred",
		Err:     err,
	}
}

// TooManyRequests creates a 429 error.
func TooManyRequests(message string) *Error {
	if message == "" {
		message = "Rate limit exceeded"
	}
	return New(http.StatusTooManyRequests, CodeRateLimitExceeded, message)
}

// FromError maps any error to an API error. Domain sentinel errors map
// to their HTTP equivalents; anything unrecognized becomes a generic
// 500 with the cause kept internal.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			return New(http.StatusNotFound, CodeNotFound, domainErr.Message).WithError(err)
		case errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrInvalidInput):
			return New(http.StatusBadRequest, CodeBadRequest, domainErr.Message).WithError(err)
		case errors.Is(err, shared.ErrConflict), errors.Is(err, shared.ErrAlreadyExists):
			return New(http.StatusConflict, CodeConflict, domainErr.Message).WithError(err)
		}
	}

	return InternalError(err)
}

// ValidationError is one field-level validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects field-level failures.
type ValidationErrors []ValidationError

// Add appends a validation error.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message})
}

// HasErrors reports whether any failures were collected.
func (v ValidationErrors) HasErrors() bool { return len(v) > 0 }

// ToAPIError converts the collection to a 422 API error.
func (v ValidationErrors) ToAPIError() *Error {
	return ValidationFailed("Validation failed", v)
}
