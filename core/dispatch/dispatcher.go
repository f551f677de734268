package dispatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sort"

	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/apikit/core/contract"
	"github.com/dmitrymomot/apikit/core/tracectx"
)

// Dispatcher turns route tables into transport bindings. Configuration is
// fixed at creation; Build may be called for several tables, and all
// registered state is read-only while serving.
type Dispatcher struct {
	logger *slog.Logger
	tracer trace.Tracer

	auth              Stage
	csrf              Stage
	securityHeaders   Stage
	defaultAuthPolicy AuthPolicy
	cachingHeaders    bool

	beforeAuth []Stage
	afterAuth  []Stage

	finalErr   FinalErrorHandler
	params     ParamExtractor
	transports TransportFactory

	bound []BoundRoute
}

// BoundRoute describes one registered binding; enough metadata for an
// external API-document renderer to consume.
type BoundRoute struct {
	Method    string
	Pattern   string
	Name      string
	Operation *contract.Operation
}

// New creates a dispatcher with the given options.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		params:     chiParams,
		transports: defaultTransportFactory,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Build parses the route table, assembles the per-route stage chains, and
// binds them onto the transport. Any malformed entry aborts the build with
// an error; nothing is registered per-request.
func (d *Dispatcher) Build(routes Routes, t Transport) error {
	if t == nil {
		return ErrNilTransport
	}

	// Deterministic registration order.
	keys := make([]string, 0, len(routes))
	for key := range routes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		m, pattern, err := parseRouteKey(key)
		if err != nil {
			return err
		}

		if m == methodMount {
			if err := d.mount(key, pattern, routes[key], t); err != nil {
				return err
			}
			continue
		}

		rt, err := d.resolve(key, m, pattern, routes[key])
		if err != nil {
			return err
		}

		steps := d.buildSteps(rt, d.wrapHandler(rt))
		t.Method(methodHTTP[m], convertPattern(pattern), d.bindHTTP(rt, steps))
		d.bound = append(d.bound, BoundRoute{
			Method:    methodHTTP[m],
			Pattern:   pattern,
			Name:      rt.name,
			Operation: rt.op,
		})
	}
	return nil
}

// Bound returns all registered bindings in registration order.
func (d *Dispatcher) Bound() []BoundRoute { return d.bound }

// resolve normalizes a table entry into an immutable route descriptor with
// the effective auth policy.
func (d *Dispatcher) resolve(key string, m method, pattern string, value any) (*routeDescriptor, error) {
	route, err := normalizeRoute(key, value)
	if err != nil {
		return nil, err
	}

	policy := route.AuthPolicy
	if policy == AuthUnset {
		policy = d.defaultAuthPolicy
	}
	if policy == AuthUnset {
		policy = AuthDisabled
	}

	name := route.Name
	if name == "" {
		name = funcName(route.Handler)
	}
	if name == "" {
		name = key
	}

	return &routeDescriptor{
		key:        key,
		method:     m,
		pattern:    pattern,
		name:       name,
		handler:    route.Handler,
		op:         route.Operation,
		beforeAuth: route.BeforeAuth,
		afterAuth:  route.AfterAuth,
		authPolicy: policy,
		caching:    route.EnableCaching,
		metadata:   route.Metadata,
	}, nil
}

// buildSteps assembles the fixed stage order. Optional stages appear only
// when configured; the order itself is never reconfigurable.
func (d *Dispatcher) buildSteps(rt *routeDescriptor, terminal step) []step {
	steps := make([]step, 0, 8+len(d.beforeAuth)+len(rt.beforeAuth)+len(rt.afterAuth)+len(d.afterAuth))
	add := func(name string, s Stage) {
		steps = append(steps, d.wrapStage(name, s))
	}

	add("dispatch.route_info", routeInfoStage(rt))
	if d.cachingHeaders {
		add("dispatch.caching", cachingStage)
	}
	if d.securityHeaders != nil {
		add("dispatch.security_headers", d.securityHeaders)
	}
	for _, s := range d.beforeAuth {
		add(stageName(s), s)
	}
	for _, s := range rt.beforeAuth {
		add(stageName(s), s)
	}
	if rt.authPolicy != AuthDisabled {
		if d.auth != nil {
			add("dispatch.auth", d.auth)
		}
		if d.csrf != nil {
			add("dispatch.csrf", d.csrf)
		}
	}
	for _, s := range rt.afterAuth {
		add(stageName(s), s)
	}
	for _, s := range d.afterAuth {
		add(stageName(s), s)
	}
	if rt.op != nil && !rt.op.Manual() {
		add("contract.validate", validationStage)
	}

	return append(steps, terminal)
}

func stageName(s Stage) string {
	if name := funcName(s); name != "" {
		return "stage." + name
	}
	return "stage"
}

// bindHTTP adapts a built chain to the transport's http.Handler surface.
func (d *Dispatcher) bindHTTP(rt *routeDescriptor, steps []step) http.Handler {
	spanName := methodHTTP[rt.method] + " " + rt.pattern
	if rt.method == methodMount {
		spanName = "mount " + rt.pattern
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.serve(spanName, rt, steps, w, r)
	})
}

func (d *Dispatcher) serve(spanName string, rt *routeDescriptor, steps []step, w http.ResponseWriter, r *http.Request) {
	var (
		ww   *ResponseWriter
		root *tracectx.Span
	)

	// A request entering through a mount already carries a root span and a
	// commit-tracking writer; reuse both so the request has exactly one root.
	outer := outerContext(r.Context())
	if outer != nil {
		ww = outer.w
		root = outer.root
	} else {
		ww = NewResponseWriter(w)
		root = tracectx.New(spanName,
			tracectx.WithTracer(d.tracer),
			tracectx.WithLogger(d.logger),
			tracectx.WithParentContext(r.Context()),
		)
		defer root.End()
	}

	c := &Context{
		w:      ww,
		r:      r,
		params: d.params(r),
		logger: d.logger,
		root:   root,
		span:   root,
		op:     rt.op,
	}
	if outer != nil {
		// One request, one value bag: state set by parent-level stages must
		// stay readable inside the mounted subtree and vice versa.
		if outer.values == nil {
			outer.values = make(map[any]any)
		}
		c.values = outer.values
		// Hand the resolved route's info back so parent-level telemetry
		// stages report the inner route, not the mount entry.
		defer func() {
			if c.info != nil {
				outer.info = c.info
			}
		}()
	}

	// Steps recover their own panics; this guards the runner itself.
	defer func() {
		if p := recover(); p != nil {
			perr := &panicError{value: p, stack: debug.Stack()}
			if ww.Written() {
				d.logger.Error("panic after response written",
					slog.Any("value", perr.value),
					slog.String("stack", string(perr.stack)),
					slog.String("path", r.URL.Path),
					slog.String("method", r.Method),
				)
				return
			}
			d.classify(c, perr)
		}
	}()

	rn := &runner{d: d, c: c, steps: steps}
	rn.run()
}

// mount builds a nested sub-dispatcher and attaches it under the path
// prefix, with the parent's stage chain applied ahead of the subtree.
func (d *Dispatcher) mount(key, pattern string, value any, t Transport) error {
	fn, ok := value.(MountFunc)
	if !ok {
		if f, isFn := value.(func(sub *Dispatcher) Routes); isFn {
			fn = f
		} else {
			return fmt.Errorf("%w: route %q has %T (want MountFunc)", ErrInvalidRouteValue, key, value)
		}
	}
	if fn == nil {
		return fmt.Errorf("%w: route %q", ErrNilMount, key)
	}

	sub := d.child()
	subTransport := d.transports()
	if err := sub.Build(fn(sub), subTransport); err != nil {
		return fmt.Errorf("mount %q: %w", pattern, err)
	}

	rt := &routeDescriptor{
		key:        key,
		method:     methodMount,
		pattern:    pattern,
		name:       "mount " + pattern,
		authPolicy: AuthDisabled,
	}
	steps := d.buildSteps(rt, d.mountStep(subTransport))
	t.Mount(pattern, d.bindHTTP(rt, steps))

	for _, br := range sub.bound {
		br.Pattern = joinPatterns(pattern, br.Pattern)
		d.bound = append(d.bound, br)
	}
	return nil
}

func joinPatterns(prefix, pattern string) string {
	if pattern == "/" {
		return prefix
	}
	return prefix + pattern
}

// child creates the sub-dispatcher for a mount. It shares the parent's
// ambient configuration but not its per-mount stage chain: mounted routes
// already run behind the parent chain, so duplicating global stages (or the
// built-in route-info/caching/security stages) would execute them twice.
func (d *Dispatcher) child() *Dispatcher {
	return &Dispatcher{
		logger:            d.logger,
		tracer:            d.tracer,
		auth:              d.auth,
		csrf:              d.csrf,
		defaultAuthPolicy: d.defaultAuthPolicy,
		finalErr:          d.finalErr,
		params:            d.params,
		transports:        d.transports,
	}
}

type outerCtxKey struct{}

func withOuterContext(ctx context.Context, c *Context) context.Context {
	return context.WithValue(ctx, outerCtxKey{}, c)
}

func outerContext(ctx context.Context) *Context {
	c, _ := ctx.Value(outerCtxKey{}).(*Context)
	return c
}
