// Package dispatch turns a declarative route table into transport bindings
// with a fixed, trace-instrumented middleware pipeline.
//
// Routes are declared as a map of "METHOD /path" keys to handlers or route
// descriptors ("MOUNT /path" nests a sub-dispatcher). At build time every
// table entry is parsed, normalized, and bound onto a Transport; malformed
// keys or values fail the build, never a request.
//
// Each request runs inside a tree of tracectx spans: one root span for the
// request, one child span per middleware stage, and one handler span created
// directly from the root so handler isolation does not depend on chain depth.
// A stage either hands off to the rest of the chain (at most once) or
// short-circuits into the error classifier; spans are always ended exactly
// once regardless of which path an error takes.
//
// Basic usage:
//
//	d := dispatch.New(dispatch.WithLogger(logger))
//	err := d.Build(dispatch.Routes{
//		"GET /ping": func(c *dispatch.Context) error {
//			return c.String(http.StatusOK, "pong")
//		},
//		"POST /items": dispatch.Route{
//			Handler:   createItem,
//			Operation: itemOperation,
//		},
//	}, chi.NewRouter())
package dispatch
