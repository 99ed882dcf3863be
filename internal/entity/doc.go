// Package entity resolves query tree properties to typed getters on an
// entity type.
//
// The compiler never touches reflection directly; it asks a Resolver[T] for
// a Getter[T] once per leaf at compile time and calls Getter.Get per entity
// at evaluation time. Three strategies are provided:
//
//   - StructResolver: reflection over exported struct fields, including one
//     level of owner nesting and promoted fields of embedded structs
//   - Accessors: an explicit registration table of typed getter functions,
//     for types whose shape should not be exposed through reflection
//   - RecordResolver: dynamic map[string]any records (decoded JSON, SQL
//     rows), optionally checked against a declared schema
//
// Member names are matched exactly first, then case-insensitively.
package entity
