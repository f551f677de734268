package tracectx

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Option configures a root span during creation.
type Option func(*Span)

// WithTracer mirrors the span tree into OpenTelemetry spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Span) {
		s.tracer = t
	}
}

// WithLogger emits a debug record when each span ends.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Span) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithParentContext links the root OTel span to an incoming context, so a
// propagated upstream trace becomes the parent of this request's tree.
func WithParentContext(ctx context.Context) Option {
	return func(s *Span) {
		if ctx != nil {
			s.otelCtx = ctx
		}
	}
}

// WithAttrs attaches initial attributes to the root span.
func WithAttrs(attrs ...slog.Attr) Option {
	return func(s *Span) {
		s.attrs = append(s.attrs, attrs...)
	}
}
