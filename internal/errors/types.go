// Package errors provides the structured error type shared by kiln's
// configuration store, path resolver and command layer.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeResolve    ErrorType = "resolve"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeInternal   ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeConfigInvalid      = "ERR_CONFIG_INVALID"
	ErrCodeConfigNotFound     = "ERR_CONFIG_NOT_FOUND"
	ErrCodeConfigNotPublished = "ERR_CONFIG_NOT_PUBLISHED"
	ErrCodeMergeFailed        = "ERR_MERGE_FAILED"
	ErrCodeMalformedSpecifier = "ERR_MALFORMED_SPECIFIER"
	ErrCodeBinaryNotFound     = "ERR_BINARY_NOT_FOUND"
	ErrCodeNotResolved        = "ERR_NOT_RESOLVED"
	ErrCodeToolchainWrite     = "ERR_TOOLCHAIN_WRITE"
	ErrCodeValidationFailed   = "ERR_VALIDATION_FAILED"
	ErrCodeInternalError      = "ERR_INTERNAL"
)

// KilnError is a structured error type with context.
type KilnError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Component   string
	FilePath    string
	Recoverable bool
}

// Error implements the error interface.
func (e *KilnError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *KilnError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *KilnError) Is(target error) bool {
	var t *KilnError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *KilnError) WithContext(key string, value interface{}) *KilnError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithFile adds file location information.
func (e *KilnError) WithFile(filePath string) *KilnError {
	e.FilePath = filePath

	return e
}

// WithComponent adds component context.
func (e *KilnError) WithComponent(component string) *KilnError {
	e.Component = component

	return e
}

// Error creation functions

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *KilnError {
	return &KilnError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewConfigError creates a configuration error. Configuration errors are
// recoverable: the store falls back to defaults.
func NewConfigError(code, message string, cause error) *KilnError {
	return &KilnError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewResolveError creates a resolution error.
func NewResolveError(code, message string) *KilnError {
	return &KilnError{
		Type:        ErrorTypeResolve,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *KilnError {
	return &KilnError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *KilnError {
	return &KilnError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var ke *KilnError
	if errors.As(err, &ke) {
		return ke.Recoverable
	}

	return false
}

// IsConfigError checks if an error is configuration-related.
func IsConfigError(err error) bool {
	return hasType(err, ErrorTypeConfig)
}

// IsResolveError checks if an error came from specifier resolution.
func IsResolveError(err error) bool {
	return hasType(err, ErrorTypeResolve)
}

// IsIOError checks if an error is an I/O failure.
func IsIOError(err error) bool {
	return hasType(err, ErrorTypeIO)
}

func hasType(err error, t ErrorType) bool {
	var ke *KilnError
	if errors.As(err, &ke) {
		return ke.Type == t
	}

	return false
}

// ErrMalformedSpecifier creates the error returned for specifiers the
// resolver cannot interpret.
func ErrMalformedSpecifier(specifier, reason string) *KilnError {
	return NewResolveError(ErrCodeMalformedSpecifier, "malformed specifier: "+reason).
		WithContext("specifier", specifier)
}

// ErrBinaryNotFound creates the error returned when no install location
// holds the requested binary.
func ErrBinaryNotFound(name string) *KilnError {
	return NewResolveError(ErrCodeBinaryNotFound, "binary not found: "+name)
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs an error at a level matching its category. Recoverable
// errors are warnings.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var ke *KilnError
	if !errors.As(err, &ke) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	if ke.Recoverable {
		h.logger.Warn(ctx, err, "Recoverable error occurred",
			"type", ke.Type,
			"code", ke.Code,
			"component", ke.Component)
		return
	}

	h.logger.Error(ctx, err, "Error occurred",
		"type", ke.Type,
		"code", ke.Code,
		"component", ke.Component,
		"file", ke.FilePath)
}
