// Package errors provides the coded error type used across rulemaker.
//
// Every operation the editor refuses (removing a step that still has
// outgoing connections, renaming onto an existing id, importing a file with
// no rules) returns an *Error whose Message is the text shown to the user
// and whose Code lets the CLI and the HTTP service decide how to report it.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeStepNotFound, "Node with ID '%s' not found.", id)
//	if errors.Is(err, errors.ErrCodeStepNotFound) {
//	    // ...
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidJSON, origErr, "failed to parse %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidJSON   Code = "INVALID_JSON"
	ErrCodeInvalidStepID Code = "INVALID_STEP_ID"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Resource errors
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeNoRules      Code = "NO_RULES"
	ErrCodeStepNotFound Code = "STEP_NOT_FOUND"
	ErrCodeNoRuleLoaded Code = "NO_RULE_LOADED"

	// Graph mutation refusals
	ErrCodeDuplicateStep   Code = "DUPLICATE_STEP"
	ErrCodeStepHasChildren Code = "STEP_HAS_CHILDREN"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsInputError reports whether err was caused by bad caller input rather
// than an internal failure. The HTTP service maps these to 400.
func IsInputError(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodeInvalidJSON,
		ErrCodeInvalidStepID, ErrCodeInvalidConfig, ErrCodeNoRules,
		ErrCodeStepNotFound, ErrCodeDuplicateStep, ErrCodeStepHasChildren:
		return true
	}
	return false
}
