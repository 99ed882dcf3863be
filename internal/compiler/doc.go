// Package compiler turns a query tree definition plus a runtime parameter
// mapping into an executable predicate over a typed entity.
//
// ARCHITECTURE:
//
//	Definition + Params ──► Bind (per leaf) ──► Resolve (per leaf) ──► Predicate[T]
//
// Binding parses the string-encoded parameters into the leaf's data type.
// It depends only on the definition and the parameters, so the SQL
// translation layer reuses it and gets identical optional-filter semantics.
// Resolution turns the leaf's property path into an accessor on T through
// an entity.Resolver.
//
// Optional filters: a leaf whose parameter is absent or null compiles to a
// constant true. Under AND that removes the leaf from the conjunction; under
// OR it makes the whole group true. Multi-valued parameters that split to no
// pieces, and ranges with neither side bound, behave the same way.
//
// All checks happen at compile time. The returned predicate never fails,
// performs no I/O and holds no mutable state, so it may be shared freely
// between goroutines.
package compiler
