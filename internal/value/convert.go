package value

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/cockroachdb/apd/v3"
)

var (
	timeType       = reflect.TypeOf(time.Time{})
	apdType        = reflect.TypeOf(apd.Decimal{})
	jsonNumberType = reflect.TypeOf(json.Number(""))
)

// KindOf reports the Kind that values of Go type t convert to.
// Pointer types report the kind of their element. The second result is
// false for types with no scalar representation (structs, slices, maps...).
func KindOf(t reflect.Type) (Kind, bool) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t {
	case timeType:
		return KindDate, true
	case apdType:
		return KindDecimal, true
	case jsonNumberType:
		return KindDecimal, true
	}

	switch t.Kind() {
	case reflect.String:
		return KindString, true
	case reflect.Bool:
		return KindBool, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return KindInt, true
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		// May overflow int64.
		return KindDecimal, true
	case reflect.Float32, reflect.Float64:
		return KindDecimal, true
	case reflect.Interface:
		return KindAny, true
	default:
		return KindNull, false
	}
}

// FromReflect converts a reflected Go value into a Value.
// Nil pointers and interfaces become Null. Unsupported types and
// non-finite floats also become Null so that reading a property never fails.
func FromReflect(rv reflect.Value) Value {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return Null{}
		}
		rv = rv.Elem()
	}

	if !rv.IsValid() {
		return Null{}
	}

	switch rv.Type() {
	case timeType:
		return Date(rv.Interface().(time.Time))
	case apdType:
		d := rv.Interface().(apd.Decimal)
		return NewDecimal(&d)
	case jsonNumberType:
		return fromJSONNumber(json.Number(rv.String()))
	}

	switch rv.Kind() {
	case reflect.String:
		return NewString(rv.String())
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return Int(int64(rv.Uint()))
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		d := new(apd.Decimal)
		if _, _, err := d.SetString(fmt.Sprintf("%d", rv.Uint())); err != nil {
			return Null{}
		}
		return Decimal{d: d}
	case reflect.Float32, reflect.Float64:
		d, err := DecimalFromFloat(rv.Float())
		if err != nil {
			return Null{}
		}
		return d
	default:
		return Null{}
	}
}

// FromAny converts a Go value into a Value. See FromReflect.
func FromAny(v any) Value {
	switch val := v.(type) {
	case nil:
		return Null{}
	case Value:
		return val
	case string:
		return NewString(val)
	case bool:
		return Bool(val)
	case int:
		return Int(val)
	case int64:
		return Int(val)
	case float64:
		d, err := DecimalFromFloat(val)
		if err != nil {
			return Null{}
		}
		return d
	case json.Number:
		return fromJSONNumber(val)
	case time.Time:
		return Date(val)
	default:
		return FromReflect(reflect.ValueOf(v))
	}
}

// fromJSONNumber keeps integral numbers as Int so that JSON records
// compare against int parameters without promotion.
func fromJSONNumber(n json.Number) Value {
	if i, err := n.Int64(); err == nil {
		return Int(i)
	}
	d, err := ParseDecimal(n.String())
	if err != nil {
		return Null{}
	}
	return d
}
