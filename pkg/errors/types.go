package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode represents a structured error code
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"

	// Request validation errors
	ErrCodeInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrCodeSchemaMismatch ErrorCode = "SCHEMA_MISMATCH"
	ErrCodeTypeMismatch   ErrorCode = "TYPE_MISMATCH"
	ErrCodeInvalidPattern ErrorCode = "INVALID_PATTERN"

	// Upstream lookup errors
	ErrCodeUserNotFound ErrorCode = "USER_NOT_FOUND"

	// External service errors
	ErrCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrCodeUpstreamTimeout     ErrorCode = "UPSTREAM_TIMEOUT"
	ErrCodeAPIRateLimit        ErrorCode = "API_RATE_LIMIT"

	// Internal errors
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// AppError represents a structured application error
type AppError struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Details  map[string]interface{} `json:"details,omitempty"`
	Cause    error                  `json:"-"`
	HTTPCode int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying cause
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// GetHTTPCode returns the appropriate HTTP status code
func (e *AppError) GetHTTPCode() int {
	if e.HTTPCode != 0 {
		return e.HTTPCode
	}
	return getDefaultHTTPCode(e.Code)
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		HTTPCode: getDefaultHTTPCode(code),
	}
}

// Newf creates a new AppError with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		HTTPCode: getDefaultHTTPCode(code),
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(cause error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Cause:    cause,
		HTTPCode: getDefaultHTTPCode(code),
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(cause error, code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Cause:    cause,
		HTTPCode: getDefaultHTTPCode(code),
	}
}

// getDefaultHTTPCode returns the default HTTP status code for an error code
func getDefaultHTTPCode(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidInput, ErrCodeSchemaMismatch, ErrCodeTypeMismatch, ErrCodeInvalidPattern:
		return http.StatusBadRequest
	case ErrCodeUserNotFound:
		return http.StatusNotFound
	case ErrCodeAPIRateLimit:
		return http.StatusTooManyRequests
	case ErrCodeUpstreamUnavailable:
		return http.StatusBadGateway
	case ErrCodeUpstreamTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors

// SchemaError creates an error for a request whose key set is not exactly the expected one
func SchemaError(expected []string, reason string) *AppError {
	quoted := make([]string, len(expected))
	for i, key := range expected {
		quoted[i] = "'" + key + "'"
	}
	return New(ErrCodeSchemaMismatch, fmt.Sprintf("request must have exactly keys [%s]", strings.Join(quoted, ", "))).
		WithDetail("expected", expected).
		WithDetail("reason", reason)
}

// TypeMismatchError creates an error for a field holding a value of the wrong type
func TypeMismatchError(field string, expected string) *AppError {
	return New(ErrCodeTypeMismatch, fmt.Sprintf("%s must be a %s", field, expected)).
		WithDetail("field", field).
		WithDetail("expected", expected)
}

// InvalidPatternError creates an error for a pattern that does not compile
func InvalidPatternError(pattern string, cause error) *AppError {
	return Wrap(cause, ErrCodeInvalidPattern, fmt.Sprintf("invalid pattern: %v", cause)).
		WithDetail("pattern", pattern)
}

// UserNotFoundError creates an error for a username upstream refused to list gists for
func UserNotFoundError(username string, upstreamMessage string) *AppError {
	return New(ErrCodeUserNotFound, fmt.Sprintf("username %s: %s", username, upstreamMessage)).
		WithDetail("username", username)
}

// UpstreamError creates an error for a failed call to the gist hosting API
func UpstreamError(operation string, cause error) *AppError {
	return Wrap(cause, ErrCodeUpstreamUnavailable, fmt.Sprintf("upstream %s failed", operation)).
		WithDetail("operation", operation)
}

// ConfigError creates a configuration error
func ConfigError(key string, reason string) *AppError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("configuration error for '%s': %s", key, reason)).
		WithDetail("key", key).
		WithDetail("reason", reason)
}

// TimeoutError creates a timeout error
func TimeoutError(operation string, timeout string) *AppError {
	return New(ErrCodeUpstreamTimeout, fmt.Sprintf("operation '%s' timed out after %s", operation, timeout)).
		WithDetail("operation", operation).
		WithDetail("timeout", timeout)
}

// Is checks if an error (or anything it wraps) is an AppError with the given code
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// GetHTTPCode extracts the HTTP status code from an error
func GetHTTPCode(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.GetHTTPCode()
	}
	return http.StatusInternalServerError
}

// AsAppError returns err as an AppError, wrapping unknown errors as internal
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, ErrCodeInternal, "internal server error")
}
