package contract

import (
	"fmt"
	"net/http"

	"github.com/dmitrymomot/apikit/core/schema"
)

// ValidationError reports a request-shape problem. It is always recoverable
// and is surfaced to the caller with field-level detail.
type ValidationError struct {
	Message string
	Status  int // status hint; 400 when zero
	Issues  []schema.Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (%d issues)", e.Message, len(e.Issues))
}

// StatusCode returns the HTTP status hint for the error.
func (e *ValidationError) StatusCode() int {
	if e.Status == 0 {
		return http.StatusBadRequest
	}
	return e.Status
}

func newValidationError(message string, issues ...schema.Issue) *ValidationError {
	return &ValidationError{Message: message, Issues: issues}
}

// SerializationError reports a server-side contract bug: the handler produced
// data that violates its own declared response schema. Deliberately a
// distinct type from ValidationError so error handling can apply a
// conservative external message while logging full detail server-side.
type SerializationError struct {
	Message string
	Status  int // status hint; 500 when zero
	Issues  []schema.Issue
}

func (e *SerializationError) Error() string {
	if len(e.Issues) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (%d issues)", e.Message, len(e.Issues))
}

// StatusCode returns the HTTP status hint for the error.
func (e *SerializationError) StatusCode() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}
