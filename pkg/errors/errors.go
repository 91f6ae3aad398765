package errors

import (
	"fmt"
	"strings"
)

// ErrorCode defines known error types in the system.
type ErrorCode int

const (
	// Core error codes.
	Unknown ErrorCode = iota
	InvalidInput
	ValidationFailed
	ResourceNotFound
	Canceled

	// Evolution engine errors.
	MissingFitnessFunction
	EmptyPopulation
	InvalidParameter
)

// Error represents a structured error with context.
type Error struct {
	code     ErrorCode // Type of error
	message  string    // Human-readable message
	original error     // Original/wrapped error
	fields   Fields    // Additional context
}

// Fields carries structured data about the error.
type Fields map[string]interface{}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.message)

	if e.original != nil {
		b.WriteString(": ")
		b.WriteString(e.original.Error())
	}

	if len(e.fields) > 0 {
		b.WriteString(" [")
		for k, v := range e.fields {
			fmt.Fprintf(&b, "%s=%v ", k, v)
		}
		b.WriteString("]")
	}

	return strings.TrimSpace(b.String())
}

func (e *Error) Unwrap() error {
	return e.original
}

func (e *Error) Code() ErrorCode {
	return e.code
}

// New creates a new error with a code and message.
func New(code ErrorCode, message string) error {
	return &Error{
		code:    code,
		message: message,
	}
}

// Newf creates a new error with a code and a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) error {
	return &Error{
		code:    code,
		message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		code:     code,
		message:  message,
		original: err,
	}
}

// WithFields adds structured context to an error.
func WithFields(err error, fields Fields) error {
	if err == nil {
		return nil
	}

	// If it's already our error type, merge fields
	if e, ok := err.(*Error); ok {
		merged := make(Fields, len(e.fields)+len(fields))
		for k, v := range e.fields {
			merged[k] = v
		}
		for k, v := range fields {
			merged[k] = v
		}

		return &Error{
			code:     e.code,
			message:  e.message,
			original: e.original,
			fields:   merged,
		}
	}

	return &Error{
		code:     Unknown,
		message:  err.Error(),
		original: err,
		fields:   fields,
	}
}

// Is implements error matching: two errors match when their codes match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.code == t.code
}

// As implements error type casting for errors.As.
func (e *Error) As(target interface{}) bool {
	errorPtr, ok := target.(**Error)
	if !ok {
		return false
	}
	*errorPtr = e
	return true
}

// Fields returns a copy of the error's structured context.
func (e *Error) Fields() Fields {
	if e.fields == nil {
		return Fields{}
	}
	fields := make(Fields, len(e.fields))
	for k, v := range e.fields {
		fields[k] = v
	}
	return fields
}
