package dispatch

// RouteInfo is the per-request mutable record describing which route and
// handler serve the current request. It is written once by the route-info
// stage, merged by the handler wrapper, and read by downstream stages and
// the final telemetry emission. Never shared between requests.
type RouteInfo struct {
	HandlerName   string
	AuthPolicy    AuthPolicy
	EnableCaching bool
	Metadata      map[string]any
}

// mergeHandlerName records the function-level handler name. When a
// route-level name was already set, the compound "base(override)" form keeps
// both identities visible to telemetry consumers.
func (ri *RouteInfo) mergeHandlerName(name string) {
	if name == "" {
		return
	}
	if ri.HandlerName == "" || ri.HandlerName == name {
		ri.HandlerName = name
		return
	}
	ri.HandlerName = ri.HandlerName + "(" + name + ")"
}
