package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
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

// ValidationError represents a single field validation failure
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
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined error types for common scenarios
var (
	// 400 Bad Request
	ErrInvalidRequest   = New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrValidationFailed = New(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed")
	ErrMissingParameter = New(http.StatusBadRequest, "MISSING_PARAMETER", "Required parameter is missing")

	// 404 Not Found
	ErrNotFound     = New(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrFileNotFound = New(http.StatusNotFound, "FILE_NOT_FOUND", "Input file not found")

	// 409 Conflict
	ErrConflict = New(http.StatusConflict, "CONFLICT", "Resource conflict")

	// 422 Unprocessable Entity
	ErrUnprocessableEntity = New(http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY", "Request could not be processed")

	// 429 Too Many Requests
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")

	// 500 Internal Server Error
	ErrInternalServer = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
)

// ErrValidation creates a field validation error
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed",
		[]ValidationError{{Field: field, Message: message}})
}

// NewValidationError creates a simple validation error with a message
func NewValidationError(message string) *APIError {
	return New(http.StatusBadRequest, "VALIDATION_FAILED", message)
}

// InvalidRequestWithError creates an invalid request error with details
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", err.Error())
}

// NotFoundWithMessage creates a not found error with a custom message
func NotFoundWithMessage(message string) *APIError {
	return New(http.StatusNotFound, "NOT_FOUND", message)
}

// FromCondition maps a core engine condition onto the API error it should
// render as. Unknown errors map to an internal server error.
func FromCondition(err error) *APIError {
	switch {
	case stderrors.Is(err, ErrInsufficientHistory):
		return NewWithDetails(http.StatusUnprocessableEntity, "INSUFFICIENT_HISTORY",
			"Required history is missing for this transform", err.Error())
	case stderrors.Is(err, ErrZeroDivisor):
		return NewWithDetails(http.StatusUnprocessableEntity, "ZERO_DIVISOR",
			"Baseline value is zero for a percent transform", err.Error())
	case stderrors.Is(err, ErrNonNumericInput):
		return NewWithDetails(http.StatusBadRequest, "NON_NUMERIC_INPUT",
			"Edit value is not a number", err.Error())
	case stderrors.Is(err, ErrLockedSeries):
		return NewWithDetails(http.StatusConflict, "SERIES_LOCKED",
			"Series is locked against editing", err.Error())
	case stderrors.Is(err, ErrUnresolvedLabel):
		return NewWithDetails(http.StatusBadRequest, "UNRESOLVED_LABEL",
			"Label not found on the axis", err.Error())
	case stderrors.Is(err, ErrContextMismatch):
		return NewWithDetails(http.StatusConflict, "CONTEXT_SUPERSEDED",
			"A newer selection superseded this request", err.Error())
	case stderrors.Is(err, ErrUnknownFile):
		return NewWithDetails(http.StatusNotFound, "FILE_NOT_FOUND",
			"Input file not found", err.Error())
	case stderrors.Is(err, ErrUnknownSeries):
		return NewWithDetails(http.StatusNotFound, "SERIES_NOT_FOUND",
			"Series not found in input file", err.Error())
	default:
		return NewWithDetails(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR",
			"Internal server error", err.Error())
	}
}

// WriteError writes an APIError as JSON to the response writer
func WriteError(w http.ResponseWriter, err *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	json.NewEncoder(w).Encode(err)
}
