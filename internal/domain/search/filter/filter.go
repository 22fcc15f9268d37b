// Package filter provides structured metadata filter expressions.
//
// A filter is an explicit sum of condition variants (equality,
// set-membership, numeric range) rather than opaque key-value JSON, so
// malformed predicates are rejected at the boundary instead of failing
// deep inside a query.
package filter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MaxConditions is the maximum number of conditions per expression.
const MaxConditions = 32

// Expression is a conjunction of conditions: every condition must
// match for an item to be eligible. Non-matching items are excluded
// before ranking, not down-ranked.
type Expression struct {
	conditions []Condition
}

// NewExpression validates and creates a filter Expression.
func NewExpression(conditions []Condition) (Expression, error) {
	if len(conditions) > MaxConditions {
		return Expression{}, fmt.Errorf("too many filter conditions (max %d)", MaxConditions)
	}
	return Expression{conditions: conditions}, nil
}

// Conditions returns the condition list.
func (e Expression) Conditions() []Condition { return e.conditions }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.conditions) == 0 }

// Matches evaluates the conjunction against an item's metadata.
func (e Expression) Matches(metadata map[string]string) bool {
	for _, c := range e.conditions {
		if !c.matches(metadata) {
			return false
		}
	}
	return true
}

// String renders the expression for query-log attribution.
func (e Expression) String() string {
	if len(e.conditions) == 0 {
		return ""
	}
	parts := make([]string, len(e.conditions))
	for i, c := range e.conditions {
		parts[i] = c.String()
	}
	sort.Strings(parts)
	return strings.Join(parts, " AND ")
}

// Condition is a single filter clause: equality, set membership, or
// numeric range. Exactly one variant is set.
type Condition struct {
	key       string
	equals    string
	anyOf     []string
	rangeExpr *Range
}

// NewEquals creates an exact-match condition.
func NewEquals(key, value string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if value == "" {
		return Condition{}, fmt.Errorf("equals value is required for key %q", key)
	}
	return Condition{key: key, equals: value}, nil
}

// NewAnyOf creates a set-membership condition: the metadata value must
// equal one of the given values.
func NewAnyOf(key string, values []string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if len(values) == 0 {
		return Condition{}, fmt.Errorf("any_of requires at least one value for key %q", key)
	}
	for _, v := range values {
		if v == "" {
			return Condition{}, fmt.Errorf("any_of values must be non-empty for key %q", key)
		}
	}
	return Condition{key: key, anyOf: values}, nil
}

// NewRange creates a numeric range condition.
func NewRange(key string, r Range) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	return Condition{key: key, rangeExpr: &r}, nil
}

// Key returns the metadata field name.
func (c Condition) Key() string { return c.key }

// Equals returns the exact-match value.
func (c Condition) Equals() string { return c.equals }

// AnyOf returns the set-membership values.
func (c Condition) AnyOf() []string { return c.anyOf }

// Range returns the numeric range, nil for other variants.
func (c Condition) Range() *Range { return c.rangeExpr }

// IsEquals reports whether this is an equality condition.
func (c Condition) IsEquals() bool { return c.equals != "" }

// IsAnyOf reports whether this is a set-membership condition.
func (c Condition) IsAnyOf() bool { return len(c.anyOf) > 0 }

// IsRange reports whether this is a range condition.
func (c Condition) IsRange() bool { return c.rangeExpr != nil }

func (c Condition) matches(metadata map[string]string) bool {
	val, ok := metadata[c.key]
	if !ok {
		return false
	}
	switch {
	case c.equals != "":
		return val == c.equals
	case len(c.anyOf) > 0:
		for _, want := range c.anyOf {
			if val == want {
				return true
			}
		}
		return false
	case c.rangeExpr != nil:
		n, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return false
		}
		return c.rangeExpr.contains(n)
	}
	return false
}

// String renders the condition for query-log attribution.
func (c Condition) String() string {
	switch {
	case c.equals != "":
		return fmt.Sprintf("%s=%s", c.key, c.equals)
	case len(c.anyOf) > 0:
		return fmt.Sprintf("%s IN (%s)", c.key, strings.Join(c.anyOf, ","))
	case c.rangeExpr != nil:
		return fmt.Sprintf("%s %s", c.key, c.rangeExpr)
	}
	return c.key
}

// Range is a numeric range with gt/gte/lt/lte boundaries.
type Range struct {
	gt  *float64
	gte *float64
	lt  *float64
	lte *float64
}

// NewRangeBounds validates and creates a Range.
// At least one boundary required. gt/gte and lt/lte are mutually exclusive.
func NewRangeBounds(gt, gte, lt, lte *float64) (Range, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	if gt != nil && gte != nil {
		return Range{}, fmt.Errorf("cannot specify both gt and gte")
	}
	if lt != nil && lte != nil {
		return Range{}, fmt.Errorf("cannot specify both lt and lte")
	}
	return Range{gt: gt, gte: gte, lt: lt, lte: lte}, nil
}

// GT returns the lower exclusive bound.
func (r Range) GT() *float64 { return r.gt }

// GTE returns the lower inclusive bound.
func (r Range) GTE() *float64 { return r.gte }

// LT returns the upper exclusive bound.
func (r Range) LT() *float64 { return r.lt }

// LTE returns the upper inclusive bound.
func (r Range) LTE() *float64 { return r.lte }

func (r Range) contains(n float64) bool {
	if r.gt != nil && n <= *r.gt {
		return false
	}
	if r.gte != nil && n < *r.gte {
		return false
	}
	if r.lt != nil && n >= *r.lt {
		return false
	}
	if r.lte != nil && n > *r.lte {
		return false
	}
	return true
}

// String renders the range for query-log attribution.
func (r Range) String() string {
	var parts []string
	if r.gt != nil {
		parts = append(parts, fmt.Sprintf("> %g", *r.gt))
	}
	if r.gte != nil {
		parts = append(parts, fmt.Sprintf(">= %g", *r.gte))
	}
	if r.lt != nil {
		parts = append(parts, fmt.Sprintf("< %g", *r.lt))
	}
	if r.lte != nil {
		parts = append(parts, fmt.Sprintf("<= %g", *r.lte))
	}
	return strings.Join(parts, " ")
}
