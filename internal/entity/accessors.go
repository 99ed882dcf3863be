package entity

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/qtree/internal/querytree"
	"github.com/roach88/qtree/internal/value"
)

// Accessors is an explicit registration table of property getters.
//
// Register every path a query tree may reference ("Age",
// "Address.City"); unregistered paths fail resolution. Populate during
// startup; the table is read-only afterwards.
type Accessors[T any] struct {
	name    string
	getters map[string]Getter[T]
}

// NewAccessors creates an empty table for an entity named name.
func NewAccessors[T any](name string) *Accessors[T] {
	return &Accessors[T]{name: name, getters: make(map[string]Getter[T])}
}

// Register adds a getter under path and returns the table for chaining.
func (a *Accessors[T]) Register(path string, kind value.Kind, get func(T) value.Value) *Accessors[T] {
	a.getters[path] = Getter[T]{Path: path, Kind: kind, Get: get}
	return a
}

// Field registers a typed getter, deriving the kind from V.
//
//	acc := entity.NewAccessors[Order]("Order")
//	entity.Field(acc, "Total", func(o Order) float64 { return o.Total })
//	entity.Field(acc, "Customer.Name", func(o Order) string { return o.Customer.Name })
func Field[T, V any](a *Accessors[T], path string, get func(T) V) *Accessors[T] {
	kind, ok := value.KindOf(reflect.TypeFor[V]())
	if !ok {
		panic(fmt.Sprintf("entity: accessor %q has unsupported type %s", path, reflect.TypeFor[V]()))
	}
	return a.Register(path, kind, func(e T) value.Value {
		return value.FromAny(get(e))
	})
}

// Entity implements Resolver.
func (a *Accessors[T]) Entity() string {
	return a.name
}

// Paths returns the registered paths in sorted order.
func (a *Accessors[T]) Paths() []string {
	paths := make([]string, 0, len(a.getters))
	for p := range a.getters {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Resolve implements Resolver.
func (a *Accessors[T]) Resolve(prop querytree.Property) (Getter[T], error) {
	path := prop.String()
	if g, ok := a.getters[path]; ok {
		return g, nil
	}
	for _, p := range a.Paths() {
		if strings.EqualFold(p, path) {
			return a.getters[p], nil
		}
	}
	return Getter[T]{}, fmt.Errorf("no accessor registered for %q", path)
}
