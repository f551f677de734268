package contract

import (
	"context"
	"encoding/json"
	"net/http"
)

// bodiless reports whether the status code must not carry a response body.
func bodiless(status int) bool {
	return status < 200 || status == http.StatusNoContent || status == http.StatusNotModified
}

// WriteTyped emits status and data as-is: no runtime check, no field
// stripping. It is the trust-the-caller fast path for handlers whose payload
// type is already known to satisfy the declared schema. No body is written
// when the contract declares no schema for the status, the status is a
// no-body code, or data is nil.
func (op *Operation) WriteTyped(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", op.responseContentType())
	w.WriteHeader(status)

	entry, declared := op.contract.Response.Content[status]
	if !declared || entry.Schema == nil || bodiless(status) || data == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteValidated parses data through the schema declared for status and
// emits the parsed value: unknown fields stripped, defaults applied, nested
// objects and arrays normalized recursively. A schema violation returns
// SerializationError before any bytes reach the response. Without a declared
// schema (or for no-body statuses, or nil data) only the status is written.
func (op *Operation) WriteValidated(ctx context.Context, w http.ResponseWriter, status int, data any) error {
	entry, declared := op.contract.Response.Content[status]
	if !declared || entry.Schema == nil || bodiless(status) || data == nil {
		w.Header().Set("Content-Type", op.responseContentType())
		w.WriteHeader(status)
		return nil
	}

	parsed, issues := entry.Schema.Parse(ctx, data)
	if len(issues) > 0 {
		return &SerializationError{
			Message: "response validation failed",
			Issues:  issues,
		}
	}

	w.Header().Set("Content-Type", op.responseContentType())
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(parsed)
}
