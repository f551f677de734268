package schema

import (
	"context"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	uuidRegex  = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

type stringRule func(s string) []Issue

// StringSchema validates string values.
type StringSchema struct {
	rules []stringRule
}

// String creates a string schema.
func String() *StringSchema { return &StringSchema{} }

func (s *StringSchema) with(rule stringRule) *StringSchema {
	c := &StringSchema{rules: make([]stringRule, len(s.rules), len(s.rules)+1)}
	copy(c.rules, s.rules)
	c.rules = append(c.rules, rule)
	return c
}

// Min requires at least n characters.
func (s *StringSchema) Min(n int) *StringSchema {
	return s.with(func(v string) []Issue {
		if len(v) < n {
			return issue(CodeTooSmall, "must be at least %d characters", n)
		}
		return nil
	})
}

// Max allows at most n characters.
func (s *StringSchema) Max(n int) *StringSchema {
	return s.with(func(v string) []Issue {
		if len(v) > n {
			return issue(CodeTooBig, "must be at most %d characters", n)
		}
		return nil
	})
}

// NonEmpty rejects the empty string.
func (s *StringSchema) NonEmpty() *StringSchema {
	return s.with(func(v string) []Issue {
		if v == "" {
			return issue(CodeTooSmall, "must not be empty")
		}
		return nil
	})
}

// UUID requires the canonical lowercase UUID form.
func (s *StringSchema) UUID() *StringSchema {
	return s.with(func(v string) []Issue {
		if !uuidRegex.MatchString(strings.ToLower(v)) {
			return issue(CodeInvalidValue, "must be a valid UUID")
		}
		return nil
	})
}

// Email requires a plausible email address.
func (s *StringSchema) Email() *StringSchema {
	return s.with(func(v string) []Issue {
		if !emailRegex.MatchString(v) {
			return issue(CodeInvalidValue, "must be a valid email address")
		}
		return nil
	})
}

// Pattern requires the value to match re.
func (s *StringSchema) Pattern(re *regexp.Regexp) *StringSchema {
	return s.with(func(v string) []Issue {
		if !re.MatchString(v) {
			return issue(CodeInvalidValue, "must match %s", re.String())
		}
		return nil
	})
}

// Enum restricts the value to the given set.
func (s *StringSchema) Enum(values ...string) *StringSchema {
	return s.with(func(v string) []Issue {
		if !slices.Contains(values, v) {
			return issue(CodeInvalidEnum, "must be one of %s", strings.Join(values, ", "))
		}
		return nil
	})
}

func (s *StringSchema) Parse(_ context.Context, v any) (any, []Issue) {
	str, ok := v.(string)
	if !ok {
		return nil, issue(CodeInvalidType, "expected string, got %T", v)
	}
	var issues []Issue
	for _, rule := range s.rules {
		issues = append(issues, rule(str)...)
	}
	if len(issues) > 0 {
		return nil, issues
	}
	return str, nil
}

type intRule func(n int64) []Issue

// IntSchema validates integer values. String and JSON number inputs are
// coerced, which makes the schema usable for query and path parameters.
type IntSchema struct {
	rules []intRule
}

// Int creates an integer schema.
func Int() *IntSchema { return &IntSchema{} }

func (s *IntSchema) with(rule intRule) *IntSchema {
	c := &IntSchema{rules: make([]intRule, len(s.rules), len(s.rules)+1)}
	copy(c.rules, s.rules)
	c.rules = append(c.rules, rule)
	return c
}

// Min requires the value to be >= n.
func (s *IntSchema) Min(n int64) *IntSchema {
	return s.with(func(v int64) []Issue {
		if v < n {
			return issue(CodeTooSmall, "must be at least %d", n)
		}
		return nil
	})
}

// Max requires the value to be <= n.
func (s *IntSchema) Max(n int64) *IntSchema {
	return s.with(func(v int64) []Issue {
		if v > n {
			return issue(CodeTooBig, "must be at most %d", n)
		}
		return nil
	})
}

// Positive requires the value to be > 0.
func (s *IntSchema) Positive() *IntSchema {
	return s.with(func(v int64) []Issue {
		if v <= 0 {
			return issue(CodeNotPositive, "must be positive")
		}
		return nil
	})
}

func (s *IntSchema) Parse(_ context.Context, v any) (any, []Issue) {
	n, ok := coerceInt(v)
	if !ok {
		return nil, issue(CodeInvalidType, "expected integer, got %T", v)
	}
	var issues []Issue
	for _, rule := range s.rules {
		issues = append(issues, rule(n)...)
	}
	if len(issues) > 0 {
		return nil, issues
	}
	return n, nil
}

func coerceInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		// JSON numbers decode as float64; only whole values count as integers.
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

type floatRule func(f float64) []Issue

// FloatSchema validates floating point values with string coercion.
type FloatSchema struct {
	rules []floatRule
}

// Float creates a float schema.
func Float() *FloatSchema { return &FloatSchema{} }

func (s *FloatSchema) with(rule floatRule) *FloatSchema {
	c := &FloatSchema{rules: make([]floatRule, len(s.rules), len(s.rules)+1)}
	copy(c.rules, s.rules)
	c.rules = append(c.rules, rule)
	return c
}

// Min requires the value to be >= n.
func (s *FloatSchema) Min(n float64) *FloatSchema {
	return s.with(func(v float64) []Issue {
		if v < n {
			return issue(CodeTooSmall, "must be at least %v", n)
		}
		return nil
	})
}

// Max requires the value to be <= n.
func (s *FloatSchema) Max(n float64) *FloatSchema {
	return s.with(func(v float64) []Issue {
		if v > n {
			return issue(CodeTooBig, "must be at most %v", n)
		}
		return nil
	})
}

// Positive requires the value to be > 0.
func (s *FloatSchema) Positive() *FloatSchema {
	return s.with(func(v float64) []Issue {
		if v <= 0 {
			return issue(CodeNotPositive, "must be positive")
		}
		return nil
	})
}

func (s *FloatSchema) Parse(_ context.Context, v any) (any, []Issue) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil, issue(CodeInvalidType, "expected number, got %q", n)
		}
		f = parsed
	default:
		return nil, issue(CodeInvalidType, "expected number, got %T", v)
	}
	var issues []Issue
	for _, rule := range s.rules {
		issues = append(issues, rule(f)...)
	}
	if len(issues) > 0 {
		return nil, issues
	}
	return f, nil
}

// BoolSchema validates booleans with string coercion ("true"/"false"/"1"/"0").
type BoolSchema struct{}

// Bool creates a boolean schema.
func Bool() *BoolSchema { return &BoolSchema{} }

func (s *BoolSchema) Parse(_ context.Context, v any) (any, []Issue) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return nil, issue(CodeInvalidType, "expected boolean, got %q", b)
	default:
		return nil, issue(CodeInvalidType, "expected boolean, got %T", v)
	}
}
