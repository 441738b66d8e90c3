// Package errors provides structured error types for the collections service.
//
// Errors carry a category, a specific code, an optional suggestion for the
// operator, and free-form context. Categories map to CLI exit codes so that
// scheduled runs can distinguish data problems from store outages.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile          ErrorCategory = "file"
	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryStore         ErrorCategory = "store"
	CategoryMatching      ErrorCategory = "matching"
	CategoryAnalysis      ErrorCategory = "analysis"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound  ErrorCode = "file_not_found"
	CodeFileCorrupted ErrorCode = "file_corrupted"

	// Validation errors
	CodeInvalidAmount ErrorCode = "invalid_amount"
	CodeInvalidDate   ErrorCode = "invalid_date"
	CodeMissingField  ErrorCode = "missing_field"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Store errors
	CodeStoreUnavailable ErrorCode = "store_unavailable"
	CodeWriteFailed      ErrorCode = "write_failed"
	CodeReadFailed       ErrorCode = "read_failed"

	// Matching errors
	CodeMatchingFailed ErrorCode = "matching_failed"

	// Analysis errors
	CodeAnalysisFailed ErrorCode = "analysis_failed"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// CollectionsError is the base error type for all application errors
type CollectionsError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *CollectionsError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *CollectionsError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *CollectionsError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryMatching, CategoryAnalysis, CategoryInternal:
		return 5
	case CategoryStore:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *CollectionsError) WithContext(key string, value interface{}) *CollectionsError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *CollectionsError) WithSuggestion(suggestion string) *CollectionsError {
	e.Suggestion = suggestion
	return e
}

// New creates a new CollectionsError
func New(category ErrorCategory, code ErrorCode, message string) *CollectionsError {
	return &CollectionsError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with CollectionsError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *CollectionsError {
	if err == nil {
		return nil
	}

	return &CollectionsError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *CollectionsError {
	var message, suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFileCorrupted:
		message = fmt.Sprintf("file could not be decoded: %s", path)
		suggestion = "verify the file contains valid JSON"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	result := wrapOrNew(err, CategoryFile, code, message)
	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, err error) *CollectionsError {
	var message, suggestion string

	switch code {
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in field '%s': %v", field, value)
		suggestion = "ensure amounts are valid decimal numbers (e.g., '12.34')"
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in field '%s': %v", field, value)
		suggestion = "use date format YYYY-MM-DD or an RFC3339 timestamp"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	result := wrapOrNew(err, CategoryValidation, code, message)
	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *CollectionsError {
	var message, suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	result := wrapOrNew(err, CategoryConfiguration, code, message)
	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// StoreError creates a persistence-related error
func StoreError(code ErrorCode, collection string, err error) *CollectionsError {
	var message, suggestion string

	switch code {
	case CodeStoreUnavailable:
		message = fmt.Sprintf("memory store unavailable while accessing %s", collection)
		suggestion = "check DATABASE_URL or the data directory and retry"
	case CodeWriteFailed:
		message = fmt.Sprintf("failed to persist %s", collection)
		suggestion = "computed results are still valid; retry the write"
	case CodeReadFailed:
		message = fmt.Sprintf("failed to load %s", collection)
		suggestion = "check store connectivity and data integrity"
	default:
		message = fmt.Sprintf("store error on %s", collection)
		suggestion = "check the persistent store and try again"
	}

	result := wrapOrNew(err, CategoryStore, code, message)
	return result.
		WithSuggestion(suggestion).
		WithContext("collection", collection)
}

// MatchingError creates a matching-related error
func MatchingError(code ErrorCode, operation string, err error) *CollectionsError {
	message := fmt.Sprintf("matching error during %s", operation)
	result := wrapOrNew(err, CategoryMatching, code, message)
	return result.WithContext("operation", operation)
}

// AnalysisError creates an escalation-analysis error
func AnalysisError(code ErrorCode, operation string, err error) *CollectionsError {
	message := fmt.Sprintf("analysis error during %s", operation)
	result := wrapOrNew(err, CategoryAnalysis, code, message)
	return result.WithContext("operation", operation)
}

func wrapOrNew(err error, category ErrorCategory, code ErrorCode, message string) *CollectionsError {
	if err != nil {
		return Wrap(err, category, code, message)
	}
	return New(category, code, message)
}

// IsCollectionsError checks if an error is a CollectionsError
func IsCollectionsError(err error) bool {
	_, ok := err.(*CollectionsError)
	return ok
}

// AsCollectionsError extracts a CollectionsError from an error chain
func AsCollectionsError(err error) (*CollectionsError, bool) {
	var collErr *CollectionsError
	if errors.As(err, &collErr) {
		return collErr, true
	}
	return nil, false
}
