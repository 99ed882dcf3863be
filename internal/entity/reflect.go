package entity

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/qtree/internal/querytree"
	"github.com/roach88/qtree/internal/value"
)

// StructResolver resolves properties by reflecting over struct fields.
// T may be a struct type or a pointer to one. Safe for concurrent use.
type StructResolver[T any] struct {
	typ reflect.Type // struct type after dereferencing T
}

// Reflect creates a StructResolver for T.
// Returns an error if T is not a struct or pointer to struct.
func Reflect[T any]() (*StructResolver[T], error) {
	typ := reflect.TypeFor[T]()
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("entity type %s is not a struct", reflect.TypeFor[T]())
	}
	return &StructResolver[T]{typ: typ}, nil
}

// MustReflect is like Reflect but panics on error.
func MustReflect[T any]() *StructResolver[T] {
	r, err := Reflect[T]()
	if err != nil {
		panic(err)
	}
	return r
}

// Entity implements Resolver.
func (r *StructResolver[T]) Entity() string {
	return r.typ.String()
}

// Resolve implements Resolver.
func (r *StructResolver[T]) Resolve(prop querytree.Property) (Getter[T], error) {
	var steps [][]int
	var names []string
	typ := r.typ

	if prop.Owner != "" {
		owner, ok := lookupField(typ, prop.Owner)
		if !ok {
			return Getter[T]{}, fmt.Errorf("no exported field %q", prop.Owner)
		}
		ownerType := owner.Type
		for ownerType.Kind() == reflect.Pointer {
			ownerType = ownerType.Elem()
		}
		if ownerType.Kind() != reflect.Struct {
			return Getter[T]{}, fmt.Errorf("owner field %q is %s, not a struct", owner.Name, owner.Type)
		}
		steps = append(steps, owner.Index)
		names = append(names, owner.Name)
		typ = ownerType
	}

	field, ok := lookupField(typ, prop.Name)
	if !ok {
		return Getter[T]{}, fmt.Errorf("no exported field %q on %s", prop.Name, typ)
	}
	kind, ok := value.KindOf(field.Type)
	if !ok {
		return Getter[T]{}, fmt.Errorf("field %q has unsupported type %s", field.Name, field.Type)
	}
	steps = append(steps, field.Index)
	names = append(names, field.Name)

	return Getter[T]{
		Path: strings.Join(names, "."),
		Kind: kind,
		Get: func(e T) value.Value {
			return readPath(reflect.ValueOf(e), steps)
		},
	}, nil
}

// lookupField finds an exported field, exact name first, then
// case-insensitively. Promoted fields of embedded structs are included.
func lookupField(typ reflect.Type, name string) (reflect.StructField, bool) {
	if f, ok := typ.FieldByName(name); ok && f.IsExported() {
		return f, true
	}
	f, ok := typ.FieldByNameFunc(func(candidate string) bool {
		return strings.EqualFold(candidate, name)
	})
	if ok && f.IsExported() {
		return f, true
	}
	return reflect.StructField{}, false
}

// readPath follows field index paths, dereferencing pointers between steps.
// Any nil along the way reads as Null.
func readPath(rv reflect.Value, steps [][]int) value.Value {
	for _, index := range steps {
		rv = deref(rv)
		if !rv.IsValid() {
			return value.Null{}
		}
		field, err := rv.FieldByIndexErr(index)
		if err != nil {
			// nil embedded pointer
			return value.Null{}
		}
		rv = field
	}
	return value.FromReflect(rv)
}

func deref(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}
