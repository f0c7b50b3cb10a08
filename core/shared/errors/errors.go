package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Startup errors
	ErrCodeDSNResolution ErrorCode = "DSN_RESOLUTION_ERROR"
	ErrCodeDSNParse      ErrorCode = "DSN_PARSE_ERROR"
	ErrCodeConnection    ErrorCode = "CONNECTION_ERROR"

	// Request errors
	ErrCodeReadOnlyViolation ErrorCode = "READONLY_VIOLATION"
	ErrCodeExecution         ErrorCode = "EXECUTION_ERROR"
	ErrCodeUnsupported       ErrorCode = "UNSUPPORTED"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeInvalidInput      ErrorCode = "INVALID_INPUT"

	// Transport errors
	ErrCodeAuth   ErrorCode = "AUTH_ERROR"
	ErrCodeOrigin ErrorCode = "ORIGIN_ERROR"

	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// AppError represents an application error with code and context
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
	Status  int // HTTP status code
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Status:  getHTTPStatus(code),
	}
}

// ReadOnlyViolation reports a statement rejected by the read-only gate.
func ReadOnlyViolation(statement string) *AppError {
	return NewAppError(ErrCodeReadOnlyViolation,
		fmt.Sprintf("read-only mode: statement '%s' is not allowed", truncate(statement, 80)), nil)
}

// Execution wraps a driver error. The driver message is kept verbatim as the
// AppError message so clients see exactly what the database reported.
func Execution(err error) *AppError {
	return NewAppError(ErrCodeExecution, err.Error(), err)
}

// Unsupported reports a capability missing from a dialect.
func Unsupported(dialect, capability string) *AppError {
	return NewAppError(ErrCodeUnsupported,
		fmt.Sprintf("%s is not supported by %s", capability, dialect), nil)
}

// getHTTPStatus maps error codes to HTTP status codes
func getHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeInvalidInput, ErrCodeDSNParse, ErrCodeDSNResolution:
		return http.StatusBadRequest
	case ErrCodeAuth:
		return http.StatusUnauthorized
	case ErrCodeOrigin, ErrCodeReadOnlyViolation:
		return http.StatusForbidden
	case ErrCodeUnsupported:
		return http.StatusNotImplemented
	case ErrCodeExecution, ErrCodeConnection:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf returns the code of the first AppError in err's chain, or
// ErrCodeInternalError when there is none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternalError
}

// MessageOf returns the AppError message in err's chain, falling back to
// err.Error().
func MessageOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return Is(err, ErrCodeNotFound)
}

// IsUnsupported checks if the error marks a capability the dialect lacks
func IsUnsupported(err error) bool {
	return Is(err, ErrCodeUnsupported)
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i] + "..."
		}
		count++
	}
	return s
}
