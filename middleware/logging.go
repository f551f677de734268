package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/apikit/core/dispatch"
	"github.com/dmitrymomot/apikit/core/logger"
)

// LoggingConfig configures the request logging stage.
type LoggingConfig struct {
	// Skip skips the stage for specific requests.
	Skip func(c *dispatch.Context) bool

	// Logger is the slog logger to use (default: slog.Default()).
	Logger *slog.Logger

	// LogLevel for completed requests (default: slog.LevelInfo).
	LogLevel slog.Level

	// SlowRequestThreshold logs slow requests at warning level (default: 5s).
	SlowRequestThreshold time.Duration

	// Component name for structured logging (default: "http").
	Component string
}

// Logging creates a request logging stage that records method, path, route
// telemetry, status, and duration for each completed request.
func Logging(log *slog.Logger) dispatch.Stage {
	return LoggingWithConfig(LoggingConfig{Logger: log})
}

// LoggingWithConfig creates a request logging stage with custom configuration.
func LoggingWithConfig(cfg LoggingConfig) dispatch.Stage {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SlowRequestThreshold <= 0 {
		cfg.SlowRequestThreshold = 5 * time.Second
	}
	if cfg.Component == "" {
		cfg.Component = "http"
	}
	log := cfg.Logger.With(logger.Component(cfg.Component))

	return func(c *dispatch.Context, next dispatch.Next) error {
		if cfg.Skip != nil && cfg.Skip(c) {
			next()
			return nil
		}

		r := c.Request()
		start := time.Now()

		next()

		elapsed := time.Since(start)
		ww := c.ResponseWriter()
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		attrs := []slog.Attr{
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.StatusCode(status),
			logger.Duration(elapsed),
			logger.BytesOut(ww.BytesWritten()),
			logger.RemoteAddr(r.RemoteAddr),
		}
		if q := r.URL.RawQuery; q != "" {
			attrs = append(attrs, logger.Query(q))
		}
		if info := c.RouteInfo(); info != nil {
			attrs = append(attrs,
				logger.Handler(info.HandlerName),
				logger.AuthPolicy(info.AuthPolicy.String()),
			)
		}
		if id, ok := GetRequestID(c); ok {
			attrs = append(attrs, logger.RequestID(id))
		}

		level := cfg.LogLevel
		msg := "request completed"
		switch {
		case elapsed > cfg.SlowRequestThreshold:
			level = slog.LevelWarn
			msg = "slow request completed"
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		log.LogAttrs(c, level, msg, attrs...)
		return nil
	}
}
