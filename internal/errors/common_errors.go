package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrTypeSchema marks a required column that is absent. Not retried.
	ErrTypeSchema ErrorType = "SCHEMA"
	// ErrTypeValue marks an unparsable cell value.
	ErrTypeValue ErrorType = "VALUE"
	// ErrTypeEmptyResult marks a filter or grouping that left nothing.
	ErrTypeEmptyResult ErrorType = "EMPTY_RESULT"
	// ErrTypeReferenceData marks a reference set that could not be loaded.
	ErrTypeReferenceData ErrorType = "REFERENCE_DATA"
	// ErrTypeTask marks a failed concurrent chunk task.
	ErrTypeTask       ErrorType = "TASK"
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConfig     ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsType reports whether err carries an AppError of type t.
func IsType(err error, t ErrorType) bool {
	return TypeOf(err) == t
}

// NewSchemaError reports required columns that are absent from the input.
func NewSchemaError(missing []string) *AppError {
	return NewAppError(ErrTypeSchema,
		fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")), nil).
		WithContext("missing_columns", missing)
}

// NewGroupingError reports key fields that are absent from the input.
func NewGroupingError(missing []string) *AppError {
	return NewAppError(ErrTypeSchema,
		fmt.Sprintf("grouping fields not found: %s", strings.Join(missing, ", ")), nil).
		WithContext("missing_columns", missing)
}

// NewValueError reports a cell that could not be interpreted.
func NewValueError(message string, cause error) *AppError {
	return NewAppError(ErrTypeValue, message, cause)
}

// NewEmptyResultError reports a pass that produced no rows.
func NewEmptyResultError(message string) *AppError {
	return NewAppError(ErrTypeEmptyResult, message, nil)
}

// NewReferenceDataError reports an unusable reference workbook.
func NewReferenceDataError(message string, cause error) *AppError {
	return NewAppError(ErrTypeReferenceData, message, cause)
}

// NewTaskError wraps a failure raised by a chunk task.
func NewTaskError(chunk int, cause error) *AppError {
	return NewAppError(ErrTypeTask, fmt.Sprintf("chunk %d failed", chunk), cause).
		WithContext("chunk", chunk)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
