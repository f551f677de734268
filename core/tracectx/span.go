// Package tracectx provides hierarchical request spans: one root per inbound
// request, a child per middleware stage or handler, with idempotent End,
// failure recording, and optional mirroring into OpenTelemetry spans.
package tracectx

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span is a hierarchical, per-invocation unit of execution state carrying
// tracing and logging attributes. A root span is created once per inbound
// request and owns the request's lifetime; children are created per
// middleware or handler invocation and are strictly shorter-lived.
//
// End must be called exactly once per span; calling it again is a no-op,
// never an error. A span that is never ended counts against the root's open
// descendant counter, which makes leaks diagnosable in tests and telemetry.
type Span struct {
	name   string
	parent *Span
	root   *Span

	logger *slog.Logger
	tracer trace.Tracer

	// otelCtx carries the mirrored OTel span so children start nested.
	otelCtx  context.Context
	otelSpan trace.Span

	start time.Time
	ended atomic.Bool

	// open counts live (unended) spans in the whole tree, shared from root.
	open *atomic.Int64

	mu     sync.Mutex
	end    time.Time
	attrs  []slog.Attr
	failed bool
	cause  error
}

// New creates a root span. The root represents the whole request and should
// be ended when the request completes.
func New(name string, opts ...Option) *Span {
	s := &Span{
		name:    name,
		start:   time.Now(),
		otelCtx: context.Background(),
		open:    &atomic.Int64{},
	}
	s.root = s
	for _, opt := range opts {
		opt(s)
	}
	s.open.Add(1)
	s.startOtel()
	return s
}

// Child creates a sub-span. The child inherits the tracer and logger and
// keeps a non-owning back-reference to its parent.
func (s *Span) Child(name string) *Span {
	c := &Span{
		name:    name,
		parent:  s,
		root:    s.root,
		logger:  s.logger,
		tracer:  s.tracer,
		otelCtx: s.otelCtx,
		start:   time.Now(),
		open:    s.open,
	}
	c.open.Add(1)
	c.startOtel()
	return c
}

func (s *Span) startOtel() {
	if s.tracer == nil {
		return
	}
	s.otelCtx, s.otelSpan = s.tracer.Start(s.otelCtx, s.name)
}

// End marks the span finished. The first call releases the span and emits
// telemetry; any later call is a no-op.
func (s *Span) End() {
	if !s.ended.CompareAndSwap(false, true) {
		return
	}
	s.open.Add(-1)

	s.mu.Lock()
	s.end = time.Now()
	failed := s.failed
	attrs := s.attrs
	s.mu.Unlock()

	if s.otelSpan != nil {
		s.otelSpan.End()
	}
	if s.logger != nil {
		logAttrs := make([]slog.Attr, 0, len(attrs)+3)
		logAttrs = append(logAttrs,
			slog.String("span", s.name),
			slog.Duration("duration", s.end.Sub(s.start)),
			slog.Bool("failed", failed),
		)
		logAttrs = append(logAttrs, attrs...)
		s.logger.LogAttrs(context.Background(), slog.LevelDebug, "span ended", logAttrs...)
	}
}

// Fail marks the span as failed and records the cause. Calling Fail on an
// already ended span is a no-op so late errors cannot resurrect telemetry.
func (s *Span) Fail(err error) {
	if err == nil || s.ended.Load() {
		return
	}
	s.mu.Lock()
	s.failed = true
	s.cause = err
	s.mu.Unlock()

	if s.otelSpan != nil {
		s.otelSpan.RecordError(err)
		s.otelSpan.SetStatus(codes.Error, err.Error())
	}
}

// SetAttr attaches logging attributes to the span. String-valued attributes
// are mirrored onto the OTel span when tracing is enabled.
func (s *Span) SetAttr(attrs ...slog.Attr) {
	s.mu.Lock()
	s.attrs = append(s.attrs, attrs...)
	s.mu.Unlock()

	if s.otelSpan != nil {
		for _, a := range attrs {
			s.otelSpan.SetAttributes(attribute.String(a.Key, a.Value.String()))
		}
	}
}

// Name returns the span name given at creation.
func (s *Span) Name() string { return s.name }

// Parent returns the parent span, or nil for a root span.
func (s *Span) Parent() *Span { return s.parent }

// Root returns the root of the span tree (itself for a root span).
func (s *Span) Root() *Span { return s.root }

// Ended reports whether End has been called.
func (s *Span) Ended() bool { return s.ended.Load() }

// Failed reports whether Fail has been called before End.
func (s *Span) Failed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

// Cause returns the error recorded by Fail, if any.
func (s *Span) Cause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cause
}

// Duration returns the elapsed time of the span: up to End for ended spans,
// up to now for live ones.
func (s *Span) Duration() time.Duration {
	s.mu.Lock()
	end := s.end
	s.mu.Unlock()
	if end.IsZero() {
		return time.Since(s.start)
	}
	return end.Sub(s.start)
}

// Open returns the number of live spans in the tree this span belongs to.
// After a request fully completes it must be zero; anything else is a leak.
func (s *Span) Open() int64 { return s.open.Load() }
