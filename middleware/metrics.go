package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/apikit/core/dispatch"
)

// Metrics holds Prometheus collectors for dispatched requests.
type Metrics struct {
	// RequestsTotal counts completed requests by method, route, and status.
	RequestsTotal *prometheus.CounterVec
	// RequestDuration records request duration in seconds by method and route.
	RequestDuration *prometheus.HistogramVec
	// RequestsInFlight tracks requests currently being handled.
	RequestsInFlight prometheus.Gauge
}

// NewMetrics creates request collectors and registers them with reg. Pass
// prometheus.DefaultRegisterer to use the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total handled requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Requests currently being handled",
			},
		),
	}
	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.RequestsInFlight)
	return m
}

// Stage returns a dispatch stage recording request metrics. The route label
// uses the resolved handler name rather than the raw URL path, keeping label
// cardinality bounded.
func (m *Metrics) Stage() dispatch.Stage {
	return func(c *dispatch.Context, next dispatch.Next) error {
		start := time.Now()
		m.RequestsInFlight.Inc()

		next()

		m.RequestsInFlight.Dec()

		route := "unknown"
		if info := c.RouteInfo(); info != nil && info.HandlerName != "" {
			route = info.HandlerName
		}
		method := c.Request().Method
		status := c.ResponseWriter().Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return nil
	}
}
