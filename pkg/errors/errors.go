package errors

import (
	"errors"
	"fmt"
)

// Common application errors
var (
	// Data errors
	ErrEmptyTable        = errors.New("table has no rows")
	ErrEmptyQuasiSet     = errors.New("quasi-identifier set is empty")
	ErrColumnNotFound    = errors.New("column not found")
	ErrNoHeader          = errors.New("input has no header row")
	ErrRaggedRow         = errors.New("row length does not match header")
	ErrNoTrueIdentifiers = errors.New("no true-identifiers table loaded")

	// Configuration errors
	ErrInvalidNoiseScale    = errors.New("noise scale must be positive")
	ErrInvalidBucketWidth   = errors.New("bucket width must be positive")
	ErrColumnNotNumeric     = errors.New("column is not numeric")
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// Storage errors
	ErrSessionNotFound         = errors.New("session not found")
	ErrStorageConnectionFailed = errors.New("storage connection failed")
	ErrStoreClosed             = errors.New("session store is closed")

	// Internal errors
	ErrInternal = errors.New("internal error")
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	// ErrorTypeData marks input tables that are structurally unusable for the
	// requested operation (empty table, absent column, empty quasi set).
	ErrorTypeData ErrorType = "data"

	// ErrorTypeConfig marks user-supplied parameters that are invalid for the
	// operation (non-positive noise scale, non-numeric column selection).
	ErrorTypeConfig ErrorType = "config"

	ErrorTypeStorage  ErrorType = "storage"
	ErrorTypeInternal ErrorType = "internal"
)

// AppError represents an application-specific error with additional context
type AppError struct {
	Type       ErrorType              `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Context    map[string]interface{} `json:"context,omitempty"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:       errType,
		Code:       code,
		Message:    message,
		HTTPStatus: getDefaultHTTPStatus(errType),
	}
}

// WrapError wraps an existing error with application context
func WrapError(err error, errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:       errType,
		Code:       code,
		Message:    message,
		Cause:      err,
		HTTPStatus: getDefaultHTTPStatus(errType),
	}
}

// NewDataError creates a data error: the input table cannot support the
// requested operation. These are reported to the caller and never retried.
func NewDataError(code, message string) *AppError {
	return NewAppError(ErrorTypeData, code, message)
}

// NewConfigError creates a configuration error: a user-supplied parameter is
// invalid for the operation. These are reported to the caller and never retried.
func NewConfigError(code, message string) *AppError {
	return NewAppError(ErrorTypeConfig, code, message)
}

// NewStorageError creates a session storage error
func NewStorageError(code, message string) *AppError {
	return NewAppError(ErrorTypeStorage, code, message)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       CodeInternalError,
		Message:    message,
		HTTPStatus: 500,
	}
}

// IsDataError reports whether err is (or wraps) a data error
func IsDataError(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeData
	}
	return false
}

// IsConfigError reports whether err is (or wraps) a configuration error
func IsConfigError(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeConfig
	}
	return false
}

// getDefaultHTTPStatus returns the default HTTP status for an error type
func getDefaultHTTPStatus(errType ErrorType) int {
	switch errType {
	case ErrorTypeData:
		return 422
	case ErrorTypeConfig:
		return 400
	case ErrorTypeStorage:
		return 404
	case ErrorTypeInternal:
		return 500
	default:
		return 500
	}
}

// ErrorResponse represents an error response for APIs
type ErrorResponse struct {
	Error     *AppError `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp string    `json:"timestamp"`
	Path      string    `json:"path,omitempty"`
}

// Error codes for different error scenarios
const (
	// Data error codes
	CodeEmptyTable        = "EMPTY_TABLE"
	CodeEmptyQuasiSet     = "EMPTY_QUASI_SET"
	CodeColumnNotFound    = "COLUMN_NOT_FOUND"
	CodeMalformedCSV      = "MALFORMED_CSV"
	CodeNoTrueIdentifiers = "NO_TRUE_IDENTIFIERS"
	CodeNoAnonymizedData  = "NO_ANONYMIZED_DATA"

	// Configuration error codes
	CodeInvalidNoiseScale  = "INVALID_NOISE_SCALE"
	CodeInvalidBucketWidth = "INVALID_BUCKET_WIDTH"
	CodeColumnNotNumeric   = "COLUMN_NOT_NUMERIC"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeMissingField       = "MISSING_FIELD"

	// Storage error codes
	CodeSessionNotFound  = "SESSION_NOT_FOUND"
	CodeConnectionFailed = "CONNECTION_FAILED"
	CodeStoreClosed      = "STORE_CLOSED"
	CodeWriteFailed      = "WRITE_FAILED"
	CodeReadFailed       = "READ_FAILED"

	// Internal error codes
	CodeInternalError  = "INTERNAL_ERROR"
	CodeNotImplemented = "NOT_IMPLEMENTED"
)
