// Package schema provides composable value schemas with safe-parse semantics:
// parsing never panics and either returns a normalized value (unknown fields
// stripped, defaults applied, string inputs coerced) or a list of structured
// issues that map back to the offending input path.
package schema

import (
	"context"
	"fmt"
)

// Issue codes emitted by the built-in schemas.
const (
	CodeInvalidType  = "invalid_type"
	CodeRequired     = "required"
	CodeTooSmall     = "too_small"
	CodeTooBig       = "too_big"
	CodeInvalidValue = "invalid_string"
	CodeInvalidEnum  = "invalid_enum_value"
	CodeNotPositive  = "not_positive"
)

// Issue describes a single validation failure. Path is the chain of object
// keys (and array indexes) leading to the failing value.
type Issue struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
	Code    string   `json:"code"`
}

func (i Issue) String() string {
	if len(i.Path) == 0 {
		return i.Message
	}
	return fmt.Sprintf("%v: %s", i.Path, i.Message)
}

// Schema validates and normalizes a value. A nil issue slice means success
// and the returned value is the normalized result; otherwise the returned
// value is meaningless.
type Schema interface {
	Parse(ctx context.Context, v any) (any, []Issue)
}

// prefix prepends a path element to every issue.
func prefix(key string, issues []Issue) []Issue {
	for n := range issues {
		issues[n].Path = append([]string{key}, issues[n].Path...)
	}
	return issues
}

func issue(code, format string, args ...any) []Issue {
	return []Issue{{Code: code, Message: fmt.Sprintf(format, args...)}}
}

// optionaler is implemented by schemas that tolerate a missing value.
type optionaler interface {
	isOptional() bool
}

// defaulter is implemented by schemas that supply a value when absent.
type defaulter interface {
	defaultValue() (any, bool)
}

type optionalSchema struct {
	inner Schema
}

func (s optionalSchema) Parse(ctx context.Context, v any) (any, []Issue) {
	if v == nil {
		return nil, nil
	}
	return s.inner.Parse(ctx, v)
}

func (s optionalSchema) isOptional() bool { return true }

// Optional wraps a schema so that a missing (or null) value passes without
// issues instead of failing as required.
func Optional(inner Schema) Schema {
	return optionalSchema{inner: inner}
}

type defaultSchema struct {
	inner Schema
	value any
}

func (s defaultSchema) Parse(ctx context.Context, v any) (any, []Issue) {
	if v == nil {
		return s.value, nil
	}
	return s.inner.Parse(ctx, v)
}

func (s defaultSchema) isOptional() bool { return true }

func (s defaultSchema) defaultValue() (any, bool) { return s.value, true }

// Default wraps a schema so that a missing value is replaced with value
// instead of failing as required.
func Default(inner Schema, value any) Schema {
	return defaultSchema{inner: inner, value: value}
}

type anySchema struct{}

func (anySchema) Parse(_ context.Context, v any) (any, []Issue) { return v, nil }

// Any accepts every value unchanged.
func Any() Schema { return anySchema{} }
