package dispatch

import (
	"log/slog"
	"runtime/debug"
	"sync/atomic"
)

// step is one wrapped link in the per-route chain. It either advances via
// next(nil), short-circuits via next(err), or completes the response itself.
type step func(c *Context, next func(error))

// runner walks the built steps in order. A stage fully hands off before the
// following stage begins; an error anywhere routes into the classifier and
// skips the remaining steps.
type runner struct {
	d     *Dispatcher
	c     *Context
	steps []step
	idx   int
}

func (rn *runner) run() { rn.advance(nil) }

func (rn *runner) advance(err error) {
	if err != nil {
		rn.d.classify(rn.c, err)
		return
	}
	if rn.idx >= len(rn.steps) {
		return
	}
	s := rn.steps[rn.idx]
	rn.idx++
	s(rn.c, rn.advance)
}

// wrapStage runs one stage inside a fresh child span and normalizes its
// control flow:
//
//   - next fires the remainder of the chain at most once; later calls no-op
//   - an error (or panic) before next fails the child span and routes the
//     error to the classifier exactly once
//   - an error after next is discarded from the response path and logged at
//     debug, a deliberate choice over silent discard
//
// The active span is swapped to the child for the stage body and restored to
// the parent on every exit path, via the request state object rather than
// any ambient pointer.
func (d *Dispatcher) wrapStage(name string, stage Stage) step {
	return func(c *Context, next func(error)) {
		parent := c.span
		child := parent.Child(name)
		c.span = child

		var advanced atomic.Bool
		stageNext := func() {
			if !advanced.CompareAndSwap(false, true) {
				return
			}
			c.span = parent
			child.End()
			next(nil)
		}

		err := runStage(stage, c, stageNext)
		if err == nil {
			if !advanced.Load() {
				// The stage completed the response itself.
				c.span = parent
				child.End()
			}
			return
		}

		if advanced.Load() {
			d.logger.Debug("stage error after hand-off discarded",
				slog.String("stage", name),
				slog.Any("error", err),
			)
			return
		}

		advanced.Store(true)
		child.Fail(err)
		child.End()
		c.span = parent
		next(err)
	}
}

// wrapHandler runs the terminal handler. Its child span is always created
// from the request's root span, not from whatever span the last middleware
// left active, so handler isolation does not depend on chain depth.
func (d *Dispatcher) wrapHandler(rt *routeDescriptor) step {
	opName := ""
	if rt.op != nil {
		opName = rt.op.Name()
	}
	return func(c *Context, next func(error)) {
		child := c.root.Child("handler." + rt.name)
		c.span = child

		if c.info != nil {
			c.info.mergeHandlerName(opName)
		}

		err := runHandler(rt.handler, c)
		c.span = c.root
		if err != nil {
			child.Fail(err)
			child.End()
			next(err)
			return
		}
		child.End()
	}
}

// mountStep serves a mounted sub-dispatcher as the terminal of the parent
// chain, carrying the current Context so the subtree reuses the same root
// span, writer, and value bag instead of opening a second request.
func (d *Dispatcher) mountStep(sub Transport) step {
	return func(c *Context, next func(error)) {
		r := c.r.WithContext(withOuterContext(c.r.Context(), c))
		sub.ServeHTTP(c.w, r)
	}
}

func runStage(stage Stage, c *Context, next Next) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &panicError{value: p, stack: debug.Stack()}
		}
	}()
	return stage(c, next)
}

func runHandler(h Handler, c *Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &panicError{value: p, stack: debug.Stack()}
		}
	}()
	return h(c)
}

// routeInfoStage attaches the per-request RouteInfo. Always the first stage.
func routeInfoStage(rt *routeDescriptor) Stage {
	return func(c *Context, next Next) error {
		c.info = &RouteInfo{
			HandlerName:   rt.name,
			AuthPolicy:    rt.authPolicy,
			EnableCaching: rt.caching,
			Metadata:      rt.metadata,
		}
		next()
		return nil
	}
}

// cachingStage applies the conservative caching policy: unless the route
// opted in, responses are marked non-storable.
func cachingStage(c *Context, next Next) error {
	if c.info == nil || !c.info.EnableCaching {
		c.w.Header().Set("Cache-Control", "no-store, max-age=0")
	}
	next()
	return nil
}

// validationStage runs contract validation ahead of the handler for routes
// that did not opt into manual validation.
func validationStage(c *Context, next Next) error {
	if err := c.Validate(); err != nil {
		return err
	}
	next()
	return nil
}
