// Package errors contains the error contract of the query API.
package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	TraceID    string `json:"trace_id,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError describes one rejected field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details any) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Error codes
const (
	CodeInvalidParameter = "INVALID_PARAMETER"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	CodeTimeout          = "REQUEST_TIMEOUT"
	CodeInternal         = "INTERNAL_SERVER_ERROR"
	CodeUnavailable      = "SERVICE_UNAVAILABLE"
)

// InvalidParameter reports a path or query value that could not be parsed
func InvalidParameter(name string, err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidParameter,
		fmt.Sprintf("invalid value for %s", name), err.Error())
}

// NewValidationErrors reports every rejected field at once
func NewValidationErrors(fields []ValidationError) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidationFailed, "Request validation failed", fields)
}

// NotFound reports a missing resource
func NotFound(resource string) *APIError {
	return New(http.StatusNotFound, CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// RateLimited is returned when the limiter rejects a request
func RateLimited() *APIError {
	return New(http.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded")
}

// Timeout is returned when the request context expires
func Timeout() *APIError {
	return New(http.StatusGatewayTimeout, CodeTimeout, "The request took too long to process")
}

// Internal hides err behind a generic message
func Internal() *APIError {
	return New(http.StatusInternalServerError, CodeInternal, "Internal server error")
}

// Unavailable reports a dependency that cannot be reached
func Unavailable(message string) *APIError {
	return New(http.StatusServiceUnavailable, CodeUnavailable, message)
}
