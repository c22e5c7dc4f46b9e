// Package errors provides structured error types for the Brewline system.
// All errors include a category, code, message, and retryable flag for
// consistent error handling across components.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by system component.
type ErrorCategory string

const (
	ErrCategoryValidation ErrorCategory = "VALIDATION"
	ErrCategoryStorage    ErrorCategory = "STORAGE"
	ErrCategoryQuery      ErrorCategory = "QUERY"
	ErrCategoryInternal   ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Validation codes
	CodeReferentialIntegrity = "REFERENTIAL_INTEGRITY"
	CodeMalformedSnapshot    = "MALFORMED_SNAPSHOT"
	CodeConflictingDimension = "CONFLICTING_DIMENSION"
	CodeEmptySnapshot        = "EMPTY_SNAPSHOT"

	// Storage codes
	CodeUploadFailed   = "UPLOAD_FAILED"
	CodeDownloadFailed = "DOWNLOAD_FAILED"
	CodeObjectNotFound = "OBJECT_NOT_FOUND"

	// Query codes
	CodeUnknownOperation = "UNKNOWN_OPERATION"
	CodeInvalidPeriod    = "INVALID_PERIOD"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// BrewlineError is the structured error type used throughout the system.
type BrewlineError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Details   map[string]interface{}
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *BrewlineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *BrewlineError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *BrewlineError) Is(target error) bool {
	var t *BrewlineError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new BrewlineError.
func New(category ErrorCategory, code, message string) *BrewlineError {
	return &BrewlineError{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new BrewlineError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *BrewlineError {
	return &BrewlineError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *BrewlineError) WithDetails(details map[string]interface{}) *BrewlineError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var be *BrewlineError
	if errors.As(err, &be) {
		return be.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a BrewlineError.
func GetCategory(err error) ErrorCategory {
	var be *BrewlineError
	if errors.As(err, &be) {
		return be.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a BrewlineError.
func GetCode(err error) string {
	var be *BrewlineError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// isRetryable determines if an error code is retryable. Only transient
// storage failures qualify; load-time validation and query errors never do.
func isRetryable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategoryStorage && code == CodeUploadFailed:
		return true
	case category == ErrCategoryStorage && code == CodeDownloadFailed:
		return true
	default:
		return false
	}
}

// Convenience constructors for common errors.

func NewValidationError(code, message string) *BrewlineError {
	return New(ErrCategoryValidation, code, message)
}

func NewStorageError(code, message string, cause error) *BrewlineError {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewQueryError(code, message string) *BrewlineError {
	return New(ErrCategoryQuery, code, message)
}

func NewInternalError(message string, cause error) *BrewlineError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
