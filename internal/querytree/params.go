package querytree

import (
	"fmt"
	"strings"
)

// Range key suffixes for the lower and upper bound of a RangeCondition.
const (
	LowerSuffix = "#0"
	UpperSuffix = "#1"
)

// Params is the runtime parameter mapping supplied per compilation.
//
// A missing key means absent; a nil value means null. Strings are used
// as-is, other scalars are formatted with fmt. Params are never mutated by
// this module.
type Params map[string]any

// Lookup returns the string form of a bound parameter.
// Absent and null parameters report false.
func (p Params) Lookup(name string) (string, bool) {
	raw, ok := p[name]
	if !ok || raw == nil {
		return "", false
	}

	switch v := raw.(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	case fmt.Stringer:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}

// List splits a multi-valued parameter on commas.
// Pieces are trimmed and empty pieces dropped; an unbound parameter or one
// with no non-empty pieces reports false.
func (p Params) List(name string) ([]string, bool) {
	raw, ok := p.Lookup(name)
	if !ok {
		return nil, false
	}

	var out []string
	for _, piece := range strings.Split(raw, ",") {
		if piece = strings.TrimSpace(piece); piece != "" {
			out = append(out, piece)
		}
	}
	return out, len(out) > 0
}

// Bound is a decoded range parameter. An empty side is unbounded.
type Bound struct {
	Lower string
	Upper string
}

// HasLower reports whether the lower side restricts anything.
func (b Bound) HasLower() bool { return b.Lower != "" }

// HasUpper reports whether the upper side restricts anything.
func (b Bound) HasUpper() bool { return b.Upper != "" }

// Unbounded reports whether neither side restricts anything.
func (b Bound) Unbounded() bool { return !b.HasLower() && !b.HasUpper() }

// Range decodes the "name#0" / "name#1" pair for a range parameter.
// Absent, null and empty sides are all unbounded.
func (p Params) Range(name string) Bound {
	var b Bound
	if lower, ok := p.Lookup(name + LowerSuffix); ok {
		b.Lower = strings.TrimSpace(lower)
	}
	if upper, ok := p.Lookup(name + UpperSuffix); ok {
		b.Upper = strings.TrimSpace(upper)
	}
	return b
}

// RangeParams builds the boundary encoding of a range parameter.
// Empty strings are left out.
func RangeParams(name, lower, upper string) Params {
	p := Params{}
	if lower != "" {
		p[name+LowerSuffix] = lower
	}
	if upper != "" {
		p[name+UpperSuffix] = upper
	}
	return p
}

// Merge returns a new Params with the entries of all sources, later
// sources winning.
func Merge(sources ...Params) Params {
	out := Params{}
	for _, src := range sources {
		for k, v := range src {
			out[k] = v
		}
	}
	return out
}
