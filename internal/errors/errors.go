// Package errors provides a lightweight structured error type (IncremitError)
// for category-based classification of cycle failures in the orchestrator and CLI.
package errors

import (
	stdErrors "errors"
	"fmt"
)

// ErrorCategory represents the category of an incremit error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Rebuild cycle errors
	CategoryAnalysis    ErrorCategory = "analysis"
	CategoryConsistency ErrorCategory = "consistency"
	CategoryFileSystem  ErrorCategory = "filesystem"

	// Runtime and infrastructure errors
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// IncremitError is a structured error with category, retryability, and context
type IncremitError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for IncremitError
type ContextFields map[string]any

// Error implements the error interface
func (e *IncremitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *IncremitError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *IncremitError) WithContext(key string, value any) *IncremitError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// WithRetryable marks whether retrying the failed operation may succeed
func (e *IncremitError) WithRetryable(retryable bool) *IncremitError {
	e.Retryable = retryable
	return e
}

// New creates a new IncremitError
func New(category ErrorCategory, severity ErrorSeverity, message string) *IncremitError {
	return &IncremitError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new IncremitError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *IncremitError {
	return &IncremitError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// As extracts the first IncremitError in err's chain.
func As(err error) (*IncremitError, bool) {
	var ie *IncremitError
	if stdErrors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if ie, ok := As(err); ok {
		return ie.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if ie, ok := As(err); ok {
		return ie.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not an IncremitError
func GetCategory(err error) ErrorCategory {
	if ie, ok := As(err); ok {
		return ie.Category
	}
	return CategoryInternal
}
