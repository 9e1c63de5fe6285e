package tsdb

import (
	"errors"
	"fmt"

	"github.com/dd0wney/enod/pkg/datafile"
)

// Error kinds. Every error returned by an Engine matches exactly one of
// ErrIO, ErrFormat, ErrNotFound, ErrOutOfOrder, ErrClosed or ErrReadOnly
// under errors.Is.
var (
	ErrIO         = errors.New("i/o failure")
	ErrFormat     = errors.New("invalid data file format")
	ErrNotFound   = errors.New("sample not found")
	ErrOutOfOrder = errors.New("timestamp out of order")
	ErrClosed     = errors.New("engine is closed")
	ErrReadOnly   = datafile.ErrReadOnly
)

// Error carries the failed operation and the file it ran against.
type Error struct {
	Op      string // Operation that failed (e.g. "open", "insert")
	Path    string // Data file path
	Kind    error  // One of the Err* kinds above
	Cause   error  // Underlying error, may be nil
	Context string // Additional context
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Kind)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the kind and the cause for error chain support.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// ErrorBuilder provides a fluent interface for building Errors.
type ErrorBuilder struct {
	err Error
}

// newError starts an error for op on path.
func newError(op, path string) *ErrorBuilder {
	return &ErrorBuilder{err: Error{Op: op, Path: path}}
}

func (b *ErrorBuilder) IO(cause error) *ErrorBuilder {
	b.err.Kind = ErrIO
	b.err.Cause = cause
	return b
}

func (b *ErrorBuilder) Format(context string, args ...any) *ErrorBuilder {
	b.err.Kind = ErrFormat
	b.err.Context = fmt.Sprintf(context, args...)
	return b
}

func (b *ErrorBuilder) Kind(kind error) *ErrorBuilder {
	b.err.Kind = kind
	return b
}

func (b *ErrorBuilder) Context(context string, args ...any) *ErrorBuilder {
	b.err.Context = fmt.Sprintf(context, args...)
	return b
}

func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	if b.err.Kind == nil {
		b.err.Kind = ErrIO
	}
	return &b.err
}

// OutOfOrderError reports an insert whose timestamp is below the current
// maximum. The engine state is unchanged; the caller may retry with a later
// timestamp.
type OutOfOrderError struct {
	Timestamp uint64
	Max       uint64
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("timestamp %d is before current maximum %d", e.Timestamp, e.Max)
}

// Is matches ErrOutOfOrder.
func (e *OutOfOrderError) Is(target error) bool {
	return target == ErrOutOfOrder
}

// IsNotFound returns true if err is a point lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsFormat returns true if err reports a corrupt or foreign data file.
func IsFormat(err error) bool {
	return errors.Is(err, ErrFormat)
}

// IsOutOfOrder returns true if err is a rejected out-of-order insert.
func IsOutOfOrder(err error) bool {
	return errors.Is(err, ErrOutOfOrder)
}

// IsIO returns true if err comes from the underlying file.
func IsIO(err error) bool {
	return errors.Is(err, ErrIO)
}
