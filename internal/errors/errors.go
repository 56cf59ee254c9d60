// Package errors provides a lightweight structured error type (WebCompileError)
// for category-based classification across the compile pipeline and CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a webcompile error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Per-unit compilation errors
	CategoryIO        ErrorCategory = "io"
	CategoryCompile   ErrorCategory = "compile"
	CategoryReference ErrorCategory = "reference"

	// External system integration errors
	CategoryGit ErrorCategory = "git"

	// Runtime and infrastructure errors
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Aborts the whole run
	SeverityError   ErrorSeverity = "error"   // Fails the unit, run may continue
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// WebCompileError is a structured error with category and context
type WebCompileError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for WebCompileError
type ContextFields map[string]any

// Error implements the error interface
func (e *WebCompileError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *WebCompileError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *WebCompileError) WithContext(key string, value any) *WebCompileError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new WebCompileError
func New(category ErrorCategory, severity ErrorSeverity, message string) *WebCompileError {
	return &WebCompileError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new WebCompileError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *WebCompileError {
	return &WebCompileError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if wce, ok := err.(*WebCompileError); ok {
		return wce.Category == category
	}
	return false
}

// IsFatal reports whether an error should abort the run before any unit executes.
func IsFatal(err error) bool {
	if wce, ok := err.(*WebCompileError); ok {
		return wce.Severity == SeverityFatal
	}
	return false
}
