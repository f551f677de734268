package dispatch

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/apikit/core/contract"
	"github.com/dmitrymomot/apikit/core/response"
	"github.com/dmitrymomot/apikit/core/schema"
)

// FinalErrorHandler handles errors the classifier does not recognize.
// Returning false falls through to the built-in default handler.
type FinalErrorHandler func(c *Context, err error) bool

// Error codes emitted in classified error bodies.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeResponseInvalid = "RESPONSE_VALIDATION_FAILED"
)

type validationErrorBody struct {
	Error  string         `json:"error"`
	Code   string         `json:"code"`
	Issues []schema.Issue `json:"issues"`
}

type serializationErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// classify is the terminal error handling for a request. Validation errors
// surface with field-level detail; serialization errors surface with a
// stable code only (full detail is logged server-side); everything else
// falls to the user-supplied final handler, then the built-in default.
// Nothing ever writes over a committed response.
func (d *Dispatcher) classify(c *Context, err error) {
	var (
		verr *contract.ValidationError
		serr *contract.SerializationError
	)

	switch {
	case errors.As(err, &verr):
		if c.w.Written() {
			d.logger.Warn("validation error after response committed", slog.Any("error", err))
			return
		}
		body := validationErrorBody{
			Error:  verr.Message,
			Code:   CodeValidationError,
			Issues: verr.Issues,
		}
		if body.Issues == nil {
			body.Issues = []schema.Issue{}
		}
		d.render(c, response.JSONWithStatus(body, verr.StatusCode()))

	case errors.As(err, &serr):
		d.logger.Error("response validation failed",
			slog.String("path", c.r.URL.Path),
			slog.String("method", c.r.Method),
			slog.Any("issues", serr.Issues),
		)
		if c.w.Written() {
			return
		}
		body := serializationErrorBody{
			Error: "response validation failed",
			Code:  CodeResponseInvalid,
		}
		d.render(c, response.JSONWithStatus(body, serr.StatusCode()))

	default:
		if d.finalErr != nil && d.finalErr(c, err) {
			return
		}
		d.defaultErrorHandler(c, err)
	}
}

// defaultErrorHandler logs and emits a minimal text body: the error's own
// message for 4xx status hints, a generic message otherwise so internal
// detail never leaks. The status hint is looked up through the wrap chain,
// so a wrapped sentinel keeps its status.
func (d *Dispatcher) defaultErrorHandler(c *Context, err error) {
	status := http.StatusInternalServerError
	var sc statusCode
	if errors.As(err, &sc) {
		if s := sc.StatusCode(); s >= 400 && s < 600 {
			status = s
		}
	}

	attrs := []slog.Attr{
		slog.String("path", c.r.URL.Path),
		slog.String("method", c.r.Method),
		slog.Int("status", status),
		slog.Any("error", err),
	}
	var perr PanicError
	if errors.As(err, &perr) {
		attrs = append(attrs, slog.String("stack", string(perr.Stack())))
	}
	level := slog.LevelError
	if status < 500 {
		level = slog.LevelWarn
	}
	d.logger.LogAttrs(c, level, "request failed", attrs...)

	if c.w.Written() {
		return
	}
	message := http.StatusText(status)
	if status < 500 {
		message = err.Error()
	}
	d.render(c, response.StringWithStatus(message, status))
}

func (d *Dispatcher) render(c *Context, resp response.Response) {
	if err := resp(c.w, c.r); err != nil {
		d.logger.Error("failed to render error response", slog.Any("error", err))
	}
}
