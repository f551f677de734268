package schema

import (
	"context"
	"sort"
)

// Fields maps object keys to their schemas.
type Fields map[string]Schema

// ObjectSchema validates map-shaped values. Unknown keys are stripped from
// the result unless Passthrough is set; missing keys fail as required unless
// their schema is Optional or carries a Default.
type ObjectSchema struct {
	fields      Fields
	passthrough bool
}

// Object creates an object schema over the given fields.
func Object(fields Fields) *ObjectSchema {
	return &ObjectSchema{fields: fields}
}

// Passthrough keeps unknown keys in the parsed result instead of stripping.
func (s *ObjectSchema) Passthrough() *ObjectSchema {
	c := *s
	c.passthrough = true
	return &c
}

func (s *ObjectSchema) Parse(ctx context.Context, v any) (any, []Issue) {
	// Doomed requests should not pay for deep validation.
	if ctx != nil {
		select {
		case <-ctx.Done():
			return nil, issue(CodeInvalidType, "validation aborted: %v", ctx.Err())
		default:
		}
	}

	m, ok := toStringKeyedMap(v)
	if !ok {
		return nil, issue(CodeInvalidType, "expected object, got %T", v)
	}

	// Sorted field order keeps issue output deterministic.
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]any, len(m))
	var issues []Issue
	for _, name := range names {
		fs := s.fields[name]
		raw, present := m[name]
		if !present || raw == nil {
			if d, ok := fs.(defaulter); ok {
				if dv, has := d.defaultValue(); has {
					out[name] = dv
					continue
				}
			}
			if o, ok := fs.(optionaler); ok && o.isOptional() {
				continue
			}
			issues = append(issues, Issue{Path: []string{name}, Code: CodeRequired, Message: "is required"})
			continue
		}
		val, fieldIssues := fs.Parse(ctx, raw)
		if len(fieldIssues) > 0 {
			issues = append(issues, prefix(name, fieldIssues)...)
			continue
		}
		out[name] = val
	}

	if s.passthrough {
		for key, val := range m {
			if _, declared := s.fields[key]; !declared {
				out[key] = val
			}
		}
	}

	if len(issues) > 0 {
		return nil, issues
	}
	return out, nil
}

// toStringKeyedMap widens the map shapes produced by JSON decoding and by
// header/query/param snapshots into one canonical form.
func toStringKeyedMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, true
	case map[string][]string:
		out := make(map[string]any, len(m))
		for k, vals := range m {
			switch len(vals) {
			case 0:
			case 1:
				out[k] = vals[0]
			default:
				out[k] = vals
			}
		}
		return out, true
	default:
		return nil, false
	}
}
