package value

import (
	"fmt"
	"time"

	"github.com/cockroachdb/apd/v3"
	"golang.org/x/text/unicode/norm"
)

// Kind identifies the type of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindDecimal
	KindBool
	KindDate

	// KindAny marks a property whose kind is only known per value,
	// e.g. an interface-typed field or a dynamic record entry.
	KindAny
)

var kindNames = map[Kind]string{
	KindNull:    "null",
	KindString:  "string",
	KindInt:     "int",
	KindDecimal: "decimal",
	KindBool:    "bool",
	KindDate:    "date",
	KindAny:     "any",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Numeric reports whether values of this kind compare numerically.
func (k Kind) Numeric() bool {
	return k == KindInt || k == KindDecimal
}

// Ordered reports whether values of this kind support <, <=, >, >=.
func (k Kind) Ordered() bool {
	switch k {
	case KindString, KindInt, KindDecimal, KindDate:
		return true
	default:
		return false
	}
}

// Comparable reports whether values of kinds a and b can be compared.
// KindAny is optimistically comparable with everything but Null; the
// actual check then happens per value in Compare.
func Comparable(a, b Kind) bool {
	if a == KindAny || b == KindAny {
		return a != KindNull && b != KindNull
	}
	if a == b {
		return a != KindNull
	}
	return a.Numeric() && b.Numeric()
}

// Value is a sealed interface representing a typed scalar.
// Only Null, String, Int, Decimal, Bool and Date implement it.
type Value interface {
	Kind() Kind
	String() string
	value() // Sealed - only these types implement it
}

// Null is the absence of a value, e.g. a nil pointer field.
type Null struct{}

func (Null) Kind() Kind { return KindNull }
func (Null) String() string { return "null" }
func (Null) value() {}

// String is an NFC-normalized string value.
// Construct with NewString to guarantee normalization.
type String string

func (String) Kind() Kind { return KindString }
func (s String) String() string { return string(s) }
func (String) value() {}

// Int is a 64-bit signed integer value.
type Int int64

func (Int) Kind() Kind { return KindInt }
func (i Int) String() string { return fmt.Sprintf("%d", int64(i)) }
func (Int) value() {}

// Bool is a boolean value.
type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (Bool) value() {}

// Date is a point in time.
type Date time.Time

func (Date) Kind() Kind { return KindDate }
func (d Date) String() string { return time.Time(d).Format(time.RFC3339Nano) }
func (d Date) Time() time.Time { return time.Time(d) }
func (Date) value() {}

// Decimal is an arbitrary-precision decimal value.
// The wrapped apd.Decimal is never mutated after construction.
type Decimal struct {
	d *apd.Decimal
}

func (Decimal) Kind() Kind { return KindDecimal }

func (d Decimal) String() string {
	if d.d == nil {
		return "0"
	}
	return d.d.Text('f')
}

func (Decimal) value() {}

// Apd returns a copy of the underlying decimal.
func (d Decimal) Apd() *apd.Decimal {
	out := new(apd.Decimal)
	if d.d != nil {
		out.Set(d.d)
	}
	return out
}

// NewString creates an NFC-normalized String.
func NewString(s string) String {
	return String(norm.NFC.String(s))
}

// NewDecimal creates a Decimal holding a copy of d.
func NewDecimal(d *apd.Decimal) Decimal {
	out := new(apd.Decimal)
	if d != nil {
		out.Set(d)
	}
	return Decimal{d: out}
}

// DecimalFromInt creates a Decimal from an integer.
func DecimalFromInt(i int64) Decimal {
	return Decimal{d: apd.New(i, 0)}
}

// DecimalFromFloat creates a Decimal from a float64.
// Returns an error for NaN and infinities.
func DecimalFromFloat(f float64) (Decimal, error) {
	d, err := new(apd.Decimal).SetFloat64(f)
	if err != nil {
		return Decimal{}, err
	}
	if d.Form != apd.Finite {
		return Decimal{}, fmt.Errorf("non-finite decimal: %v", f)
	}
	return Decimal{d: d}, nil
}

// ParseDecimal parses a decimal string such as "12.50" or "-3e2".
func ParseDecimal(s string) (Decimal, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return Decimal{}, err
	}
	if d.Form != apd.Finite {
		return Decimal{}, fmt.Errorf("non-finite decimal: %q", s)
	}
	return Decimal{d: d}, nil
}
