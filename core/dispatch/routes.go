package dispatch

import (
	"fmt"
	"net/http"
	"path"
	"reflect"
	"runtime"
	"strings"

	"github.com/dmitrymomot/apikit/core/contract"
)

// Handler is the terminal route handler. It writes the response through the
// context helpers and reports failures through its error return, which feeds
// the error classifier.
type Handler func(c *Context) error

// Next hands control to the rest of the chain. Only the first call per stage
// invocation has any effect; later calls are no-ops.
type Next func()

// Stage is one middleware step in the per-route chain. A stage either calls
// next (at most once), completes the response itself, or returns an error.
// An error returned after next has fired is discarded from the response path.
type Stage func(c *Context, next Next) error

// MountFunc declares the routes of a nested sub-dispatcher. The sub
// dispatcher shares the parent's configuration.
type MountFunc func(sub *Dispatcher) Routes

// Routes is the declarative route table: "METHOD /path" keys mapping to a
// Handler, a Route descriptor, or (under "MOUNT /path") a MountFunc.
type Routes map[string]any

// AuthPolicy controls whether and how the auth stage runs for a route.
type AuthPolicy int

const (
	// AuthUnset defers to the dispatcher-wide default.
	AuthUnset AuthPolicy = iota
	AuthDisabled
	AuthOptional
	AuthRequired
	AuthRedirect
)

func (p AuthPolicy) String() string {
	switch p {
	case AuthDisabled:
		return "disabled"
	case AuthOptional:
		return "optional"
	case AuthRequired:
		return "required"
	case AuthRedirect:
		return "redirect"
	default:
		return "unset"
	}
}

// Route is the full declarative descriptor for one table entry. Immutable
// once registered.
type Route struct {
	Handler   Handler
	Operation *contract.Operation

	// Name overrides the handler name recorded in RouteInfo.
	Name string

	BeforeAuth []Stage
	AfterAuth  []Stage

	// AuthPolicy overrides the dispatcher default when not AuthUnset.
	AuthPolicy AuthPolicy

	// EnableCaching opts the route out of the no-store caching policy.
	EnableCaching bool

	// Metadata is free-form route metadata surfaced through RouteInfo.
	Metadata map[string]any
}

// method is the closed set of dispatchable methods, decided once at
// registration instead of per-request string dispatch.
type method uint8

const (
	methodGet method = iota
	methodHead
	methodOptions
	methodPost
	methodPut
	methodPatch
	methodDelete
	methodMount
)

var methodByName = map[string]method{
	"GET":     methodGet,
	"HEAD":    methodHead,
	"OPTIONS": methodOptions,
	"POST":    methodPost,
	"PUT":     methodPut,
	"PATCH":   methodPatch,
	"DELETE":  methodDelete,
	"MOUNT":   methodMount,
}

var methodHTTP = map[method]string{
	methodGet:     http.MethodGet,
	methodHead:    http.MethodHead,
	methodOptions: http.MethodOptions,
	methodPost:    http.MethodPost,
	methodPut:     http.MethodPut,
	methodPatch:   http.MethodPatch,
	methodDelete:  http.MethodDelete,
}

// parseRouteKey splits a "METHOD /path" table key. Method matching is
// case-insensitive; the pattern must be rooted.
func parseRouteKey(key string) (method, string, error) {
	fields := strings.Fields(key)
	if len(fields) != 2 {
		return 0, "", fmt.Errorf("%w: %q (want \"METHOD /path\")", ErrInvalidRouteKey, key)
	}
	m, ok := methodByName[strings.ToUpper(fields[0])]
	if !ok {
		return 0, "", fmt.Errorf("%w: %q in route %q", ErrUnknownMethod, fields[0], key)
	}
	pattern := fields[1]
	if !strings.HasPrefix(pattern, "/") {
		return 0, "", fmt.Errorf("%w: %q in route %q", ErrInvalidPattern, pattern, key)
	}
	return m, pattern, nil
}

// routeDescriptor is the resolved, immutable configuration for one binding.
type routeDescriptor struct {
	key        string
	method     method
	pattern    string
	name       string
	handler    Handler
	op         *contract.Operation
	beforeAuth []Stage
	afterAuth  []Stage
	authPolicy AuthPolicy
	caching    bool
	metadata   map[string]any
}

// normalizeRoute widens the accepted table value shapes into a full Route.
func normalizeRoute(key string, value any) (Route, error) {
	switch v := value.(type) {
	case Route:
		if v.Handler == nil {
			return Route{}, fmt.Errorf("%w: route %q", ErrNilHandler, key)
		}
		return v, nil
	case Handler:
		if v == nil {
			return Route{}, fmt.Errorf("%w: route %q", ErrNilHandler, key)
		}
		return Route{Handler: v}, nil
	case func(c *Context) error:
		if v == nil {
			return Route{}, fmt.Errorf("%w: route %q", ErrNilHandler, key)
		}
		return Route{Handler: v}, nil
	default:
		return Route{}, fmt.Errorf("%w: route %q has %T", ErrInvalidRouteValue, key, value)
	}
}

// funcName extracts a short name from a function value for telemetry.
func funcName(fn any) string {
	if fn == nil {
		return ""
	}
	pc := reflect.ValueOf(fn).Pointer()
	f := runtime.FuncForPC(pc)
	if f == nil {
		return ""
	}
	name := path.Base(f.Name())
	// Trim the package qualifier and closure suffixes.
	if idx := strings.Index(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.TrimSuffix(name, "-fm")
	return name
}
