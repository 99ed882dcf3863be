package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ParseFunc converts a runtime string into a Value of a fixed kind.
type ParseFunc func(s string) (Value, error)

// DataType is a named, parseable primitive type that leaves declare.
type DataType struct {
	Name  string
	Kind  Kind
	Parse ParseFunc
}

// Registry maps data-type names to parse functions.
//
// Names are matched case-insensitively. A Registry is populated during
// startup and read-only afterwards; Register must not race with Lookup.
type Registry struct {
	types map[string]DataType
}

// Layouts accepted by the date and datetime data types, tried in order.
var (
	DateLayouts     = []string{"2006-01-02", time.RFC3339Nano, "2006-01-02 15:04:05"}
	DateTimeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"}
)

// NewRegistry returns a Registry holding the built-in data types.
func NewRegistry() *Registry {
	r := &Registry{types: make(map[string]DataType)}

	for _, name := range []string{"string", "text"} {
		r.Register(name, KindString, parseString)
	}
	for _, name := range []string{"int", "integer", "int32", "int64", "long"} {
		r.Register(name, KindInt, parseInt)
	}
	for _, name := range []string{"decimal", "float", "double", "number", "numeric"} {
		r.Register(name, KindDecimal, parseDecimal)
	}
	for _, name := range []string{"bool", "boolean"} {
		r.Register(name, KindBool, parseBool)
	}
	r.Register("date", KindDate, parseTime(DateLayouts))
	for _, name := range []string{"datetime", "timestamp"} {
		r.Register(name, KindDate, parseTime(DateTimeLayouts))
	}

	return r
}

// Register adds or replaces a data type.
func (r *Registry) Register(name string, kind Kind, parse ParseFunc) {
	key := strings.ToLower(strings.TrimSpace(name))
	r.types[key] = DataType{Name: key, Kind: kind, Parse: parse}
}

// Lookup finds a data type by name.
func (r *Registry) Lookup(name string) (DataType, bool) {
	dt, ok := r.types[strings.ToLower(strings.TrimSpace(name))]
	return dt, ok
}

// Names returns the registered data-type names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func parseString(s string) (Value, error) {
	return NewString(s), nil
}

func parseInt(s string) (Value, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid int %q", s)
	}
	return Int(n), nil
}

func parseDecimal(s string) (Value, error) {
	d, err := ParseDecimal(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid decimal %q", s)
	}
	return d, nil
}

func parseBool(s string) (Value, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid bool %q", s)
	}
	return Bool(b), nil
}

func parseTime(layouts []string) ParseFunc {
	return func(s string) (Value, error) {
		s = strings.TrimSpace(s)
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return Date(t), nil
			}
		}
		return nil, fmt.Errorf("invalid date %q", s)
	}
}
