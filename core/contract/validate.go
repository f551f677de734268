package contract

import (
	"context"
)

// State tracks per-request validation progress.
type State int

const (
	StateNotValidated State = iota
	StateValidating
	StateValidated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotValidated:
		return "not_validated"
	case StateValidating:
		return "validating"
	case StateValidated:
		return "validated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Validated holds the post-validation view of the request. Declared parts
// carry the coerced and defaulted values produced by their schemas;
// undeclared parts carry the raw snapshot unchanged.
type Validated struct {
	Body    any
	Params  any
	Query   any
	Headers any
}

// Validate runs the composite schema against the snapshot. It re-runs
// validation on every call; callers that want a single pass cache the result
// themselves. On failure all part issues are aggregated into one
// ValidationError, each issue path prefixed with its part name.
func (op *Operation) Validate(ctx context.Context, snap *Snapshot) (*Validated, error) {
	out := &Validated{
		Body:    snap.Body,
		Params:  snap.Params,
		Query:   snap.Query,
		Headers: snap.Headers,
	}
	if op.composite == nil {
		return out, nil
	}

	input := map[string]any{}
	req := op.contract.Request
	if req.Body != nil {
		input["body"] = snap.Body
	}
	if req.Params != nil {
		input["params"] = toAnyMap(snap.Params)
	}
	if req.Query != nil {
		input["query"] = flattenQuery(snap.Query)
	}
	if req.Headers != nil {
		input["headers"] = toAnyMap(snap.Headers)
	}

	parsed, issues := op.composite.Parse(ctx, input)
	if len(issues) > 0 {
		return nil, newValidationError("request validation failed", issues...)
	}

	result, ok := parsed.(map[string]any)
	if !ok {
		return out, nil
	}
	if v, declared := result["body"]; declared {
		out.Body = v
	}
	if v, declared := result["params"]; declared {
		out.Params = v
	}
	if v, declared := result["query"]; declared {
		out.Query = v
	}
	if v, declared := result["headers"]; declared {
		out.Headers = v
	}
	return out, nil
}

func toAnyMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// flattenQuery keeps single values as strings and multi-values as slices so
// both scalar and array schemas address query parameters naturally.
func flattenQuery(q map[string][]string) map[string]any {
	out := make(map[string]any, len(q))
	for key, values := range q {
		switch len(values) {
		case 0:
		case 1:
			out[key] = values[0]
		default:
			out[key] = values
		}
	}
	return out
}
