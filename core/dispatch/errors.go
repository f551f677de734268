package dispatch

import (
	"errors"
	"fmt"
)

var (
	// Build-time errors. Any of these aborts Build; a malformed table entry
	// is never silently skipped.
	ErrInvalidRouteKey   = errors.New("invalid route key")
	ErrUnknownMethod     = errors.New("unknown http method")
	ErrInvalidPattern    = errors.New("invalid route path pattern")
	ErrInvalidRouteValue = errors.New("invalid route table value")
	ErrNilHandler        = errors.New("nil route handler")
	ErrNilMount          = errors.New("nil mount function")
	ErrNilTransport      = errors.New("nil transport")

	// ErrNoContract is returned by contract helpers on a route that declared
	// no operation.
	ErrNoContract = errors.New("route has no contract")
)

// PanicError allows error handlers to detect recovered panics and access the
// original panic value and stack trace.
type PanicError interface {
	error
	// Value returns the original panic value.
	Value() any
	// Stack returns the stack trace captured at the panic point.
	Stack() []byte
}

type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

func (e *panicError) Value() any { return e.value }

func (e *panicError) Stack() []byte { return e.stack }

// Unwrap allows errors.Is/As to work with wrapped panics.
func (e *panicError) Unwrap() error {
	if err, ok := e.value.(error); ok {
		return err
	}
	return nil
}

// statusCode is implemented by errors that carry an HTTP status hint.
type statusCode interface {
	StatusCode() int
}
