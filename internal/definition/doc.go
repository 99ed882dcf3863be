// Package definition implements the Definition Store: it parses query tree
// documents once at startup into an in-memory index keyed by tree name.
//
// Documents are CUE. JSON is accepted as the CUE subset it is, and YAML is
// converted to CUE before decoding, so all three formats share one decoder
// and carry source positions into error messages.
//
// Document shape:
//
//	querytree: PeopleSearch: {
//		op: "and"
//		nodes: [
//			{op: "eq", param: {name: "name", property: "Name", type: "string"}},
//			{op: "eq", multiParam: {name: "status", property: "Status", type: "int"}},
//			{rangeParam: {name: "age", owner: "Profile", property: "Age", type: "int"}},
//		]
//	}
//
// A node with "nodes" is a combinator; a node with exactly one of "param",
// "multiParam" or "rangeParam" is a leaf; a node with neither is kept as an
// opaque leaf for the compiler's leaf policy to decide on.
//
// A Store is read-only after construction and safe for concurrent Lookup.
package definition
