package marco

import (
	"errors"
	"fmt"
)

// RuntimeError represents an operational problem that should lead to exit
// code 2: invalid configuration, unreadable files, panics. It is never
// used for test outcomes.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError creates a new RuntimeError
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// TestFailureError represents failed, errored, or unparseable tests
// (exit code 1).
type TestFailureError struct {
	Message string
}

func (e *TestFailureError) Error() string {
	return fmt.Sprintf("test failure: %s", e.Message)
}

// NewTestFailureError creates a new TestFailureError
func NewTestFailureError(message string) *TestFailureError {
	return &TestFailureError{Message: message}
}

// IsTestFailureError checks if the error is or wraps a TestFailureError
func IsTestFailureError(err error) bool {
	var testErr *TestFailureError
	return err != nil && errors.As(err, &testErr)
}

// NoTestFilesError means the input pattern matched nothing (exit code 3),
// distinct from a run whose tests failed.
type NoTestFilesError struct {
	Pattern string
}

func (e *NoTestFilesError) Error() string {
	return fmt.Sprintf("no test files found for pattern %q", e.Pattern)
}

func NewNoTestFilesError(pattern string) *NoTestFilesError {
	return &NoTestFilesError{Pattern: pattern}
}

// IsNoTestFilesError checks if the error is or wraps a NoTestFilesError
func IsNoTestFilesError(err error) bool {
	var noFilesErr *NoTestFilesError
	return err != nil && errors.As(err, &noFilesErr)
}
