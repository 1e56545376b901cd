package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-sql-driver/mysql"
)

// ErrorType represents different categories of backup subsystem errors
type ErrorType string

const (
	// ErrorTypeValidation represents bad caller input (name/description bounds,
	// malformed archive id, unsupported export type)
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeRateLimited represents an operation attempted inside its cooldown
	ErrorTypeRateLimited ErrorType = "rate_limited"
	// ErrorTypeNotFound represents a referenced archive that does not exist
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeSizeLimit represents an archive exceeding the configured ceiling
	ErrorTypeSizeLimit ErrorType = "size_limit_exceeded"
	// ErrorTypeDataRetrieval represents a failed table read or value-escaping step
	ErrorTypeDataRetrieval ErrorType = "data_retrieval"
	// ErrorTypeInvalidArchive represents an archive that failed structural or
	// export validation
	ErrorTypeInvalidArchive ErrorType = "invalid_archive"
	// ErrorTypeStorage represents a blob store failure
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeInternal represents unexpected internal failures
	ErrorTypeInternal ErrorType = "internal"
)

// AppError represents an application-specific error with context
type AppError struct {
	Type        ErrorType
	Message     string
	Cause       error
	Context     map[string]interface{}
	Recoverable bool
	UserMessage string

	// RetryAfter carries the remaining cooldown for rate_limited errors
	RetryAfter time.Duration
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// GetUserMessage returns a user-friendly error message
func (e *AppError) GetUserMessage() string {
	if e.UserMessage != "" {
		return e.UserMessage
	}
	return e.Message
}

// IsRecoverable returns whether the error is recoverable by waiting or retrying
func (e *AppError) IsRecoverable() bool {
	return e.Recoverable
}

// WithContext adds context information to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// HTTPStatus maps the error type to the status the external HTTP layer
// should respond with
func (e *AppError) HTTPStatus() int {
	switch e.Type {
	case ErrorTypeValidation, ErrorTypeInvalidArchive:
		return http.StatusBadRequest
	case ErrorTypeRateLimited:
		return http.StatusTooManyRequests
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeSizeLimit:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// NewAppError creates a new application error
func NewAppError(errorType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:        errorType,
		Message:     message,
		Cause:       cause,
		Context:     make(map[string]interface{}),
		Recoverable: false,
	}
}

// Common constructors

// NewValidationError creates a validation error for bad caller input
func NewValidationError(message string, cause error) *AppError {
	return NewAppError(ErrorTypeValidation, message, cause)
}

// NewRateLimitedError creates a rate_limited error carrying the remaining cooldown
func NewRateLimitedError(message string, retryAfter time.Duration) *AppError {
	err := NewAppError(ErrorTypeRateLimited, message, nil)
	err.Recoverable = true
	err.RetryAfter = retryAfter
	return err.WithContext("retry_after_seconds", int(retryAfter.Seconds())+1)
}

// NewNotFoundError creates a not_found error
func NewNotFoundError(message string, cause error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, cause)
}

// NewSizeLimitError creates a size_limit_exceeded error
func NewSizeLimitError(message string, cause error) *AppError {
	return NewAppError(ErrorTypeSizeLimit, message, cause)
}

// NewDataRetrievalError creates a data_retrieval error
func NewDataRetrievalError(message string, cause error) *AppError {
	return NewAppError(ErrorTypeDataRetrieval, message, cause)
}

// NewInvalidArchiveError creates an invalid_archive error
func NewInvalidArchiveError(message string, cause error) *AppError {
	return NewAppError(ErrorTypeInvalidArchive, message, cause)
}

// NewStorageError creates a storage error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrorTypeStorage, message, cause)
}

// NewInternalError creates an internal error
func NewInternalError(message string, cause error) *AppError {
	return NewAppError(ErrorTypeInternal, message, cause)
}

// GetErrorType returns the error type of an error
func GetErrorType(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// IsType reports whether err carries the given error type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// FormatUserError formats an error for display to operators
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.GetUserMessage()
	}

	return "An unexpected error occurred. Please check the logs for more details."
}

// ClassifyDataError wraps a data-access failure as a data_retrieval error,
// using MySQL error numbers to produce an actionable message
func ClassifyDataError(table string, err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.WithContext("table", table)
	}

	message := fmt.Sprintf("failed to read table %s", table)

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1045:
			message = fmt.Sprintf("access denied reading table %s", table)
		case 1146:
			message = fmt.Sprintf("table %s does not exist", table)
		case 1054:
			message = fmt.Sprintf("unknown column while reading table %s", table)
		case 2003, 2006:
			message = fmt.Sprintf("lost database connection reading table %s", table)
		}
		return NewDataRetrievalError(message, err).
			WithContext("table", table).
			WithContext("mysql_error_code", mysqlErr.Number)
	}

	if errors.Is(err, sql.ErrConnDone) {
		message = fmt.Sprintf("database connection closed reading table %s", table)
	}
	if errors.Is(err, context.Canceled) {
		message = fmt.Sprintf("read of table %s canceled", table)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		message = fmt.Sprintf("read of table %s timed out", table)
	}

	return NewDataRetrievalError(message, err).WithContext("table", table)
}
