package middleware

import (
	"maps"

	"github.com/dmitrymomot/apikit/core/dispatch"
)

// SecurityHeadersConfig configures the security headers stage. Empty fields
// leave the corresponding header unset.
type SecurityHeadersConfig struct {
	// Skip skips the stage for specific requests.
	Skip func(c *dispatch.Context) bool

	ContentTypeOptions        string
	FrameOptions              string
	XSSProtection             string
	StrictTransportSecurity   string
	ContentSecurityPolicy     string
	ReferrerPolicy            string
	PermissionsPolicy         string
	CrossOriginOpenerPolicy   string
	CrossOriginEmbedderPolicy string
	CrossOriginResourcePolicy string

	// CustomHeaders adds additional headers on top of the standard set.
	CustomHeaders map[string]string

	// IsDevelopment disables HSTS for local development.
	IsDevelopment bool
}

// Predefined security configurations.
var (
	// StrictSecurity provides maximum protection with strict policies.
	// May break iframe embedding, inline scripts, and third-party widgets.
	StrictSecurity = SecurityHeadersConfig{
		ContentTypeOptions:        "nosniff",
		FrameOptions:              "DENY",
		XSSProtection:             "1; mode=block",
		StrictTransportSecurity:   "max-age=63072000; includeSubDomains; preload",
		ContentSecurityPolicy:     "default-src 'none'; script-src 'self'; style-src 'self'; img-src 'self'; font-src 'self'; connect-src 'self'; frame-ancestors 'none'; base-uri 'self'; form-action 'self'",
		ReferrerPolicy:            "no-referrer",
		PermissionsPolicy:         "accelerometer=(), camera=(), geolocation=(), gyroscope=(), magnetometer=(), microphone=(), payment=(), usb=()",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginEmbedderPolicy: "require-corp",
		CrossOriginResourcePolicy: "same-origin",
	}

	// BalancedSecurity provides good security with broad compatibility.
	// Suitable for most JSON APIs.
	BalancedSecurity = SecurityHeadersConfig{
		ContentTypeOptions:        "nosniff",
		FrameOptions:              "SAMEORIGIN",
		XSSProtection:             "1; mode=block",
		StrictTransportSecurity:   "max-age=31536000; includeSubDomains",
		ContentSecurityPolicy:     "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; font-src 'self' data:",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		PermissionsPolicy:         "geolocation=(), microphone=(), camera=()",
		CrossOriginOpenerPolicy:   "same-origin-allow-popups",
		CrossOriginResourcePolicy: "cross-origin",
	}

	// RelaxedSecurity provides basic protection for maximum compatibility.
	RelaxedSecurity = SecurityHeadersConfig{
		ContentTypeOptions: "nosniff",
		XSSProtection:      "1; mode=block",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}

	// DevelopmentSecurity provides minimal headers without HSTS.
	// Never use in production.
	DevelopmentSecurity = SecurityHeadersConfig{
		ContentTypeOptions: "nosniff",
		XSSProtection:      "1; mode=block",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		IsDevelopment:      true,
	}
)

// SecurityHeaders creates a security headers stage with the balanced
// configuration.
func SecurityHeaders() dispatch.Stage {
	return SecurityHeadersWithConfig(BalancedSecurity)
}

// SecurityHeadersStrict creates a security headers stage with the strict
// configuration.
func SecurityHeadersStrict() dispatch.Stage {
	return SecurityHeadersWithConfig(StrictSecurity)
}

// SecurityHeadersWithConfig creates a security headers stage with custom
// configuration. Headers are set before the rest of the chain runs, so
// downstream stages may still override individual values.
func SecurityHeadersWithConfig(cfg SecurityHeadersConfig) dispatch.Stage {
	if cfg.IsDevelopment {
		cfg.StrictTransportSecurity = ""
	}

	// Pre-build the header set once at registration time.
	headers := make(map[string]string)
	set := func(name, value string) {
		if value != "" {
			headers[name] = value
		}
	}
	set("X-Content-Type-Options", cfg.ContentTypeOptions)
	set("X-Frame-Options", cfg.FrameOptions)
	set("X-XSS-Protection", cfg.XSSProtection)
	set("Strict-Transport-Security", cfg.StrictTransportSecurity)
	set("Content-Security-Policy", cfg.ContentSecurityPolicy)
	set("Referrer-Policy", cfg.ReferrerPolicy)
	set("Permissions-Policy", cfg.PermissionsPolicy)
	set("Cross-Origin-Opener-Policy", cfg.CrossOriginOpenerPolicy)
	set("Cross-Origin-Embedder-Policy", cfg.CrossOriginEmbedderPolicy)
	set("Cross-Origin-Resource-Policy", cfg.CrossOriginResourcePolicy)
	maps.Copy(headers, cfg.CustomHeaders)

	return func(c *dispatch.Context, next dispatch.Next) error {
		if cfg.Skip != nil && cfg.Skip(c) {
			next()
			return nil
		}

		h := c.ResponseWriter().Header()
		for key, value := range headers {
			h.Set(key, value)
		}

		next()
		return nil
	}
}
