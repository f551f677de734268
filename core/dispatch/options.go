package dispatch

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Option configures a Dispatcher during creation.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithTracer mirrors request span trees into OpenTelemetry.
func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) {
		d.tracer = t
	}
}

// WithAuthHandler installs the auth stage, which runs on every route whose
// effective auth policy is not disabled. The stage reads the policy from
// RouteInfo.
func WithAuthHandler(s Stage) Option {
	return func(d *Dispatcher) {
		d.auth = s
	}
}

// WithDefaultAuthPolicy sets the policy applied to routes without an
// explicit override. Without this option the default is AuthDisabled.
func WithDefaultAuthPolicy(p AuthPolicy) Option {
	return func(d *Dispatcher) {
		d.defaultAuthPolicy = p
	}
}

// WithCSRF installs the CSRF stage, which runs directly after auth on
// auth-enabled routes.
func WithCSRF(s Stage) Option {
	return func(d *Dispatcher) {
		d.csrf = s
	}
}

// WithSecurityHeaders installs the security-header stage near the front of
// every chain.
func WithSecurityHeaders(s Stage) Option {
	return func(d *Dispatcher) {
		d.securityHeaders = s
	}
}

// WithCachingHeaders enables the caching-policy stage: responses of routes
// that did not set EnableCaching are marked non-storable.
func WithCachingHeaders() Option {
	return func(d *Dispatcher) {
		d.cachingHeaders = true
	}
}

// WithBeforeAuth appends global stages that run before the auth stage, after
// the built-in route-info/caching/security stages and before route-level
// BeforeAuth stages.
func WithBeforeAuth(stages ...Stage) Option {
	return func(d *Dispatcher) {
		d.beforeAuth = append(d.beforeAuth, stages...)
	}
}

// WithAfterAuth appends global stages that run after route-level AfterAuth
// stages, directly ahead of contract validation and the handler.
func WithAfterAuth(stages ...Stage) Option {
	return func(d *Dispatcher) {
		d.afterAuth = append(d.afterAuth, stages...)
	}
}

// WithFinalErrorHandler installs a fallback for errors the classifier does
// not recognize. Returning true marks the error handled; false falls through
// to the built-in default handler.
func WithFinalErrorHandler(h FinalErrorHandler) Option {
	return func(d *Dispatcher) {
		d.finalErr = h
	}
}

// WithParamExtractor overrides how path parameters are read from a matched
// request. The default reads chi's route context.
func WithParamExtractor(p ParamExtractor) Option {
	return func(d *Dispatcher) {
		if p != nil {
			d.params = p
		}
	}
}

// WithTransportFactory overrides the transport created for mounted
// sub-dispatchers. The default creates a chi router.
func WithTransportFactory(f TransportFactory) Option {
	return func(d *Dispatcher) {
		if f != nil {
			d.transports = f
		}
	}
}
