package errors

import (
	"errors"
	"fmt"
)

// Error represents a pipeline operation error with context about the operation
// that failed. It wraps the underlying collaborator error with a code so callers
// can classify the failure without string matching.
type Error struct {
	// Op is the operation that failed (e.g., "registry.publish", "scan.invoke").
	Op string

	// Code classifies the error condition.
	Code ErrorCode

	// Err is the underlying error from the collaborator or other source.
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s [%s]: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("%s [%s]", e.Op, e.Code)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error with the given operation, code, and message.
func New(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Code: code, Err: errors.New(msg)}
}

// Wrap creates a new Error wrapping an underlying error.
func Wrap(op string, code ErrorCode, err error) *Error {
	return &Error{Op: op, Code: code, Err: err}
}

// Wrapf creates a new Error wrapping an underlying error with a formatted message.
func Wrapf(op string, code ErrorCode, err error, format string, args ...any) *Error {
	return &Error{
		Op:   op,
		Code: code,
		Err:  fmt.Errorf(format+": %w", append(args, err)...),
	}
}

// Code extracts the error code from an error chain.
// Returns CodeUnknown if the chain contains no *Error.
func Code(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// ClassOf extracts the failure class from an error chain.
func ClassOf(err error) Class {
	return Code(err).Class()
}

// IsInfrastructure reports whether the error chain carries an infrastructure code.
// Errors without a code are treated as infrastructure failures: an unclassified
// error means the collaborator result never arrived, not that a policy failed.
func IsInfrastructure(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code.Class() == ClassInfrastructure
	}
	return true
}

// IsAssertion reports whether the error chain carries an assertion code.
func IsAssertion(err error) bool {
	return ClassOf(err) == ClassAssertion
}

// IsConfiguration reports whether the error chain carries a configuration code.
func IsConfiguration(err error) bool {
	return ClassOf(err) == ClassConfiguration
}

// Standard library passthroughs so callers don't need a second errors import.

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return errors.As(err, target) }
