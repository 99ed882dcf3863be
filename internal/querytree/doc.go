// Package querytree defines the node model of a query tree: a named,
// declaratively defined boolean filter over an entity type.
//
// ARCHITECTURE:
//
// A query tree sits between the definition document and the backends that
// execute it:
//
//	[CUE/JSON/YAML document] → [querytree.Definition] → [compiler: Predicate[T]]
//	                                                  → [querysql: WHERE fragment]
//
// Both backends share one semantics, so a tree filters an in-memory slice and
// a SQL table identically.
//
// NODES:
//
// Node is a sealed interface using the marker method pattern. The variants are:
//   - Combinator: AND/OR over an ordered, non-empty list of children
//   - SingleCondition: property OP one runtime value
//   - MultiCondition: property OP each of several comma-separated values, OR'ed
//   - RangeCondition: property >= lower AND property <= upper, either optional
//   - OpaqueLeaf: a node with no recognized shape, kept so that the leaf
//     policy can decide between rejecting it and ignoring it
//
// OPTIONAL FILTERS:
//
// A leaf whose parameter is unbound contributes no restriction. Params
// encodes this: absent keys and nil values are unbound. Range parameters use
// the "name#0" / "name#1" key convention at the boundary and are decoded into
// a Bound once per leaf.
//
// ERRORS:
//
// *Error carries a Kind (config, not found, binding, resolution) plus the
// tree name, node path and parameter name needed to locate a misconfigured
// definition. Use errors.As or the Is* helpers; wrapped errors are supported.
package querytree
