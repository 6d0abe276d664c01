// Package errors provides structured error types for segraph.
//
// This package defines error codes that let the pipeline classify failures
// without string matching:
//   - Component-level failures (structural, infeasible, timeout, size bound)
//     degrade a single component and never abort a run
//   - Input failures (invalid graph, invalid format) abort before processing
//   - Internal failures indicate a bug
//
// # Error Codes
//
// Codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - SOLVER_*: Outcomes of the exact component solver
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidGraph, "edge %d references node %d", i, n)
//	if errors.Is(err, errors.ErrCodeInvalidGraph) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStructural, origErr, "component %d", id)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidGraph  Code = "INVALID_GRAPH"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeFileNotFound  Code = "FILE_NOT_FOUND"

	// Component-level errors
	ErrCodeStructural Code = "STRUCTURAL_INCONSISTENCY"
	ErrCodeInfeasible Code = "SOLVER_INFEASIBLE"
	ErrCodeTimeout    Code = "TIMEOUT"
	ErrCodeSizeBound  Code = "SIZE_BOUND_OVERFLOW"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// IsComponentLevel reports whether err degrades a single component rather than
// the whole run. Structural inconsistencies, solver infeasibility, solver
// timeouts and size-bound overflows are component-level.
func IsComponentLevel(err error) bool {
	switch GetCode(err) {
	case ErrCodeStructural, ErrCodeInfeasible, ErrCodeTimeout, ErrCodeSizeBound:
		return true
	}
	return false
}

// ComponentError attaches the identity of the failing component to a coded error.
type ComponentError struct {
	Component int   // Component label
	Err       error // Underlying coded error
}

// Error implements the error interface.
func (e *ComponentError) Error() string {
	return fmt.Sprintf("component %d: %v", e.Component, e.Err)
}

// Unwrap returns the underlying error.
func (e *ComponentError) Unwrap() error { return e.Err }

// Code returns the code of the wrapped error.
func (e *ComponentError) Code() Code { return GetCode(e.Err) }
