// Package contract implements typed route contracts: a declarative pairing of
// request-part schemas (body, path params, query, headers) with per-status-code
// response schemas. A contract drives one composite validation pass over the
// incoming request and schema-checked serialization of outgoing responses, and
// exposes enough metadata for an external API-document renderer.
package contract

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/apikit/core/schema"
)

// DefaultContentType is used for request and response bodies when the
// contract does not declare one.
const DefaultContentType = "application/json"

var (
	// ErrNoResponseContent is returned by New for a contract without any
	// declared response status codes.
	ErrNoResponseContent = errors.New("contract: response content must declare at least one status code")

	// ErrInvalidStatus is returned by New for a response status code outside
	// the valid HTTP range.
	ErrInvalidStatus = errors.New("contract: invalid response status code")
)

// RequestContract declares the schemas applied to the incoming request.
// Parts left nil are not validated and pass through as originally parsed.
type RequestContract struct {
	Body    schema.Schema
	Params  schema.Schema
	Query   schema.Schema
	Headers schema.Schema

	// ContentType lists the accepted request media types when Body is
	// declared. Empty means DefaultContentType only.
	ContentType []string
}

// ResponseEntry declares the schema and documentation for one status code.
type ResponseEntry struct {
	Schema      schema.Schema
	Description string
}

// ResponseContract declares the per-status-code response surface.
type ResponseContract struct {
	// ContentType overrides the emitted Content-Type header.
	ContentType string
	Content     map[int]ResponseEntry
}

// Contract is the single source of truth for one route's request validation
// and response serialization. Immutable after registration.
type Contract struct {
	Request  *RequestContract
	Response ResponseContract
}

// Operation is the registration handle pairing a contract with the metadata
// the dispatcher and documentation renderers need. It replaces out-of-band
// identity-keyed registries: whoever holds the Operation holds the contract.
type Operation struct {
	contract  Contract
	composite *schema.ObjectSchema
	mediaset  []string
	manual    bool
	name      string
}

// Option configures an Operation.
type Option func(*Operation)

// WithManualValidation disables automatic request validation; the route
// handler is expected to call Validate itself (or skip it deliberately).
func WithManualValidation() Option {
	return func(op *Operation) {
		op.manual = true
	}
}

// WithName sets a human-readable operation name, merged into the per-request
// route info alongside the route-level name.
func WithName(name string) Option {
	return func(op *Operation) {
		op.name = name
	}
}

// New builds an Operation from a contract. The composite request schema is
// assembled once here, not per request. Contract problems are reported at
// registration time so a broken route can never start serving.
func New(c Contract, opts ...Option) (*Operation, error) {
	if len(c.Response.Content) == 0 {
		return nil, ErrNoResponseContent
	}
	for status := range c.Response.Content {
		if status < 100 || status > 599 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, status)
		}
	}

	op := &Operation{contract: c}
	for _, opt := range opts {
		opt(op)
	}

	if c.Request != nil {
		fields := schema.Fields{}
		if c.Request.Body != nil {
			fields["body"] = c.Request.Body
		}
		if c.Request.Params != nil {
			fields["params"] = c.Request.Params
		}
		if c.Request.Query != nil {
			fields["query"] = c.Request.Query
		}
		if c.Request.Headers != nil {
			fields["headers"] = c.Request.Headers
		}
		if len(fields) > 0 {
			op.composite = schema.Object(fields)
		}

		op.mediaset = c.Request.ContentType
		if len(op.mediaset) == 0 {
			op.mediaset = []string{DefaultContentType}
		}
	}

	return op, nil
}

// MustNew is like New but panics on a broken contract. Intended for
// startup-time route tables where failing fast is the point.
func MustNew(c Contract, opts ...Option) *Operation {
	op, err := New(c, opts...)
	if err != nil {
		panic(err)
	}
	return op
}

// Contract returns the declared contract for documentation rendering.
func (op *Operation) Contract() Contract { return op.contract }

// Manual reports whether automatic validation is disabled for this operation.
func (op *Operation) Manual() bool { return op.manual }

// Name returns the operation name, if one was set.
func (op *Operation) Name() string { return op.name }

// responseContentType resolves the emitted Content-Type header.
func (op *Operation) responseContentType() string {
	if op.contract.Response.ContentType != "" {
		return op.contract.Response.ContentType
	}
	return DefaultContentType + "; charset=utf-8"
}
