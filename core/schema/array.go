package schema

import (
	"context"
	"strconv"
)

// ArraySchema validates slice values element by element. Issue paths use the
// element index as a path segment.
type ArraySchema struct {
	elem     Schema
	min, max int
	hasMin   bool
	hasMax   bool
}

// Array creates an array schema over the given element schema.
func Array(elem Schema) *ArraySchema {
	return &ArraySchema{elem: elem}
}

// Min requires at least n elements.
func (s *ArraySchema) Min(n int) *ArraySchema {
	c := *s
	c.min, c.hasMin = n, true
	return &c
}

// Max allows at most n elements.
func (s *ArraySchema) Max(n int) *ArraySchema {
	c := *s
	c.max, c.hasMax = n, true
	return &c
}

func (s *ArraySchema) Parse(ctx context.Context, v any) (any, []Issue) {
	items, ok := toAnySlice(v)
	if !ok {
		return nil, issue(CodeInvalidType, "expected array, got %T", v)
	}
	if s.hasMin && len(items) < s.min {
		return nil, issue(CodeTooSmall, "must contain at least %d elements", s.min)
	}
	if s.hasMax && len(items) > s.max {
		return nil, issue(CodeTooBig, "must contain at most %d elements", s.max)
	}

	out := make([]any, 0, len(items))
	var issues []Issue
	for i, item := range items {
		val, elemIssues := s.elem.Parse(ctx, item)
		if len(elemIssues) > 0 {
			issues = append(issues, prefix(strconv.Itoa(i), elemIssues)...)
			continue
		}
		out = append(out, val)
	}
	if len(issues) > 0 {
		return nil, issues
	}
	return out, nil
}

// toAnySlice widens []string inputs (multi-value query parameters) and single
// scalars (a one-element query parameter) into []any.
func toAnySlice(v any) ([]any, bool) {
	switch items := v.(type) {
	case []any:
		return items, true
	case []string:
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = item
		}
		return out, true
	case string:
		return []any{items}, true
	default:
		return nil, false
	}
}
