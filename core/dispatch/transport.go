package dispatch

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Transport is the routing capability the dispatcher binds onto. chi.Router
// satisfies it directly; any mux with method-scoped registration and prefix
// mounting can stand in.
type Transport interface {
	http.Handler
	Method(method, pattern string, h http.Handler)
	Mount(pattern string, h http.Handler)
}

// TransportFactory creates the transport for a mounted sub-dispatcher.
type TransportFactory func() Transport

func defaultTransportFactory() Transport {
	return chi.NewRouter()
}

// ParamExtractor reads path parameters from a matched request.
type ParamExtractor func(r *http.Request) map[string]string

// chiParams extracts path parameters from chi's route context.
func chiParams(r *http.Request) map[string]string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return nil
	}
	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		if key == "*" || i >= len(rctx.URLParams.Values) {
			continue
		}
		params[key] = rctx.URLParams.Values[i]
	}
	return params
}

// convertPattern rewrites ":name" path segments into the "{name}" form the
// transport understands, so route tables can use either style.
func convertPattern(pattern string) string {
	if !strings.Contains(pattern, ":") {
		return pattern
	}
	segments := strings.Split(pattern, "/")
	for i, seg := range segments {
		if strings.HasPrefix(seg, ":") && len(seg) > 1 {
			segments[i] = "{" + seg[1:] + "}"
		}
	}
	return strings.Join(segments, "/")
}
