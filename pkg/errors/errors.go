// Package errors provides structured error handling for unidb with a closed
// set of error kinds, key-value context, and stack traces.
//
// Every failure that crosses a package boundary in unidb is a *Error carrying
// exactly one Kind. Backend packages map native driver failures to a Kind at
// the point where they are first observed; no raw driver error type escapes a
// backend package.
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// Kind categorizes an error. The set is closed: callers can switch on it
// exhaustively and bindings can map each kind to a distinct host exception.
type Kind string

const (
	// KindConnection represents connection establishment or network failures,
	// including authentication rejections reported by the server.
	KindConnection Kind = "connection"
	// KindQuery represents query execution failures: malformed SQL, unknown
	// tables or columns, and other statement-level rejections.
	KindQuery Kind = "query"
	// KindConfig represents invalid connection configuration.
	KindConfig Kind = "config"
	// KindUnsupportedBackend represents a backend tag with no registered
	// connector implementation.
	KindUnsupportedBackend Kind = "unsupported_backend"
	// KindAlreadyClosed represents an operation attempted on a closed connector.
	KindAlreadyClosed Kind = "already_closed"
	// KindTimeout represents an operation that exceeded its deadline.
	KindTimeout Kind = "timeout"
	// KindConstraint represents unique, foreign key, check or not-null
	// constraint violations reported by the backend.
	KindConstraint Kind = "constraint"
	// KindInvalidParameter represents a caller-supplied value that cannot be
	// bound or rendered for the target backend.
	KindInvalidParameter Kind = "invalid_parameter"
	// KindNotImplemented represents functionality not yet available.
	KindNotImplemented Kind = "not_implemented"
	// KindSerialization represents encoding or decoding failures.
	KindSerialization Kind = "serialization"
	// KindIO represents file system failures.
	KindIO Kind = "io"
)

// Error is a structured error with a kind, optional cause, key-value details
// and the call stack captured at creation.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame is a single frame of the call stack at error creation.
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail attaches a key-value detail and returns the error for chaining.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates an error of the given kind, capturing the call stack.
func New(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps err with a kind and message, preserving err as the cause.
// If err is already a *Error its original stack is kept. Returns nil for a
// nil err.
func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}

	var existing *Error
	if errors.As(err, &existing) {
		return &Error{
			Kind:    kind,
			Message: message,
			Cause:   err,
			Stack:   existing.Stack,
		}
	}

	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// KindOf returns the kind of err, or KindQuery if err is not a *Error.
// Non-structured errors only ever appear when a backend package has a mapping
// gap, and query failure is the safest attribution for those.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return KindQuery
	}
	return e.Kind
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// IsRetryable reports whether the error kind is transient. Connection and
// timeout failures may succeed on retry; everything else is deterministic.
// unidb itself never retries; this is a hint for callers.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindConnection, KindTimeout:
		return true
	default:
		return false
	}
}

// captureStack records the call stack up to maxFrames deep, skipping the
// given number of frames.
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
