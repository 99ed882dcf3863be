package value

import (
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// Compare orders a against b, returning -1, 0 or +1.
// The second result is false when the values cannot be compared: either
// side is Null, or the kinds are incompatible.
//
// Int and Decimal compare numerically. Bool orders false before true,
// although callers only use it for equality.
func Compare(a, b Value) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}

	switch av := a.(type) {
	case String:
		if bv, ok := b.(String); ok {
			return strings.Compare(string(av), string(bv)), true
		}
	case Int:
		switch bv := b.(type) {
		case Int:
			return compareInt(int64(av), int64(bv)), true
		case Decimal:
			return apd.New(int64(av), 0).Cmp(bv.raw()), true
		}
	case Decimal:
		switch bv := b.(type) {
		case Decimal:
			return av.raw().Cmp(bv.raw()), true
		case Int:
			return av.raw().Cmp(apd.New(int64(bv), 0)), true
		}
	case Bool:
		if bv, ok := b.(Bool); ok {
			return compareBool(bool(av), bool(bv)), true
		}
	case Date:
		if bv, ok := b.(Date); ok {
			return time.Time(av).Compare(time.Time(bv)), true
		}
	}

	return 0, false
}

// Equal reports whether a and b are comparable and equal.
func Equal(a, b Value) bool {
	c, ok := Compare(a, b)
	return ok && c == 0
}

// Contains reports whether string value a contains string value b.
// Non-string operands never match.
func Contains(a, b Value) bool {
	as, ok := a.(String)
	if !ok {
		return false
	}
	bs, ok := b.(String)
	if !ok {
		return false
	}
	return strings.Contains(string(as), string(bs))
}

func (d Decimal) raw() *apd.Decimal {
	if d.d == nil {
		return apd.New(0, 0)
	}
	return d.d
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
