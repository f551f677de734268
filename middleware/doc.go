// Package middleware provides reusable dispatch stages for cross-cutting
// request concerns: request identification, logging, security headers, and
// Prometheus metrics.
//
// Every constructor returns a dispatch.Stage, so the results plug directly
// into dispatcher options or per-route stage lists:
//
//	d := dispatch.New(
//		dispatch.WithSecurityHeaders(middleware.SecurityHeaders()),
//		dispatch.WithBeforeAuth(
//			middleware.RequestID(),
//			middleware.Logging(logger),
//		),
//	)
package middleware
