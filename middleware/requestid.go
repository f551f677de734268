package middleware

import (
	"github.com/dmitrymomot/apikit/core/dispatch"
	"github.com/dmitrymomot/apikit/core/logger"
	"github.com/google/uuid"
)

// requestIDContextKey is the context bag key for the request ID.
type requestIDContextKey struct{}

// RequestIDConfig configures the request ID stage.
type RequestIDConfig struct {
	// Skip skips the stage for specific requests.
	Skip func(c *dispatch.Context) bool
	// Generator creates new request IDs (default: UUID v4).
	Generator func() string
	// HeaderName is the request ID header (default: "X-Request-ID").
	HeaderName string
	// UseExisting reuses an incoming request ID header when present.
	UseExisting bool
}

// RequestID creates a request ID stage with default configuration. It
// generates a UUID for each request, stores it in the context bag, annotates
// the request span, and echoes it in the response headers.
func RequestID() dispatch.Stage {
	return RequestIDWithConfig(RequestIDConfig{UseExisting: true})
}

// RequestIDWithConfig creates a request ID stage with custom configuration.
func RequestIDWithConfig(cfg RequestIDConfig) dispatch.Stage {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-Request-ID"
	}
	if cfg.Generator == nil {
		cfg.Generator = func() string {
			return uuid.New().String()
		}
	}

	return func(c *dispatch.Context, next dispatch.Next) error {
		if cfg.Skip != nil && cfg.Skip(c) {
			next()
			return nil
		}

		var requestID string
		if cfg.UseExisting {
			requestID = c.Request().Header.Get(cfg.HeaderName)
		}
		if requestID == "" {
			requestID = cfg.Generator()
		}

		c.SetValue(requestIDContextKey{}, requestID)
		c.RootSpan().SetAttr(logger.RequestID(requestID))
		c.ResponseWriter().Header().Set(cfg.HeaderName, requestID)

		next()
		return nil
	}
}

// GetRequestID retrieves the request ID from the context bag.
func GetRequestID(c *dispatch.Context) (string, bool) {
	id, ok := c.Value(requestIDContextKey{}).(string)
	return id, ok
}
