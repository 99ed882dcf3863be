package entity

import (
	"github.com/roach88/qtree/internal/querytree"
	"github.com/roach88/qtree/internal/value"
)

// Getter reads one property off an entity.
// Get never fails: missing intermediate values read as value.Null.
type Getter[T any] struct {
	// Path is the resolved member path, e.g. "Address.City".
	Path string

	// Kind is the static kind of the property, or value.KindAny when it is
	// only known per entity. Record getters may still return text for a
	// declared kind; the compiler parses it with the leaf's data type.
	Kind value.Kind

	Get func(T) value.Value
}

// Resolver resolves properties of entity type T.
type Resolver[T any] interface {
	// Resolve returns a getter for prop or an error if the member does not
	// exist or has no scalar representation.
	Resolve(prop querytree.Property) (Getter[T], error)

	// Entity names the entity type, for error messages.
	Entity() string
}
