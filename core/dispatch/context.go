package dispatch

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/apikit/core/contract"
	"github.com/dmitrymomot/apikit/core/response"
	"github.com/dmitrymomot/apikit/core/tracectx"
)

// Context is the request-scoped state object threaded through the stage
// chain. It carries the response writer, path parameters, the span tree
// (root plus the currently active span, passed explicitly instead of through
// an ambient global), RouteInfo, and the route's contract state. One Context
// per request; never shared across requests.
type Context struct {
	w      *ResponseWriter
	r      *http.Request
	params map[string]string
	values map[any]any
	logger *slog.Logger

	root *tracectx.Span
	span *tracectx.Span

	info *RouteInfo

	op        *contract.Operation
	snapshot  *contract.Snapshot
	validated *contract.Validated
	vstate    contract.State
}

// Deadline delegates to the request's context.
func (c *Context) Deadline() (time.Time, bool) { return c.r.Context().Deadline() }

// Done delegates to the request's context.
func (c *Context) Done() <-chan struct{} { return c.r.Context().Done() }

// Err delegates to the request's context.
func (c *Context) Err() error { return c.r.Context().Err() }

// Value checks the per-request value bag first, then the request's context.
func (c *Context) Value(key any) any {
	if v, ok := c.values[key]; ok {
		return v
	}
	return c.r.Context().Value(key)
}

// SetValue stores a request-scoped value readable through Value.
func (c *Context) SetValue(key, val any) {
	if c.values == nil {
		c.values = make(map[any]any)
	}
	c.values[key] = val
}

// Request returns the underlying *http.Request.
func (c *Context) Request() *http.Request { return c.r }

// ResponseWriter returns the commit-tracking response writer.
func (c *Context) ResponseWriter() *ResponseWriter { return c.w }

// Param returns a path parameter by name, or "" when absent.
func (c *Context) Param(key string) string {
	if c.params == nil {
		return ""
	}
	return c.params[key]
}

// RouteInfo returns the per-request route metadata. It is nil only before
// the route-info stage has run.
func (c *Context) RouteInfo() *RouteInfo { return c.info }

// RootSpan returns the request's root span.
func (c *Context) RootSpan() *tracectx.Span { return c.root }

// Span returns the currently active span (the innermost live stage).
func (c *Context) Span() *tracectx.Span { return c.span }

// Logger returns the dispatcher logger for use inside stages and handlers.
func (c *Context) Logger() *slog.Logger { return c.logger }

// JSON writes v as an application/json response with the given status.
func (c *Context) JSON(status int, v any) error {
	return response.JSONWithStatus(v, status)(c.w, c.r)
}

// String writes a text/plain response with the given status.
func (c *Context) String(status int, content string) error {
	return response.StringWithStatus(content, status)(c.w, c.r)
}

// NoContent writes a 204 response.
func (c *Context) NoContent() error {
	return response.NoContent()(c.w, c.r)
}

// Operation returns the route's contract operation, or nil for plain routes.
func (c *Context) Operation() *contract.Operation { return c.op }

// ValidationState reports the request's validation progress.
func (c *Context) ValidationState() contract.State { return c.vstate }

// Validated returns the post-validation request view, or nil before a
// successful Validate.
func (c *Context) Validated() *contract.Validated { return c.validated }

// Validate runs the route's contract against the request. The body is
// snapshotted on first call (it can only be consumed once); validation
// itself re-runs on every call. Routes declared with manual validation call
// this from their handler.
func (c *Context) Validate() error {
	if c.op == nil {
		return ErrNoContract
	}
	c.vstate = contract.StateValidating
	if c.snapshot == nil {
		snap, err := c.op.NewSnapshot(c.r, c.params)
		if err != nil {
			c.vstate = contract.StateFailed
			return err
		}
		c.snapshot = snap
	}
	validated, err := c.op.Validate(c, c.snapshot)
	if err != nil {
		c.vstate = contract.StateFailed
		return err
	}
	c.validated = validated
	c.vstate = contract.StateValidated
	return nil
}

// SendTyped emits a response through the contract's unchecked fast path.
func (c *Context) SendTyped(status int, data any) error {
	if c.op == nil {
		return ErrNoContract
	}
	return c.op.WriteTyped(c.w, status, data)
}

// SendValidated emits a response validated against the schema declared for
// the status code; the written body is the normalized value.
func (c *Context) SendValidated(status int, data any) error {
	if c.op == nil {
		return ErrNoContract
	}
	return c.op.WriteValidated(c, c.w, status, data)
}
