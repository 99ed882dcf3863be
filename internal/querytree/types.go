package querytree

import "fmt"

// Node is a query tree node.
//
// This is a sealed interface - only types in this package implement it.
// Backends type-switch exhaustively over:
//   - *Combinator
//   - *SingleCondition
//   - *MultiCondition
//   - *RangeCondition
//   - *OpaqueLeaf
type Node interface {
	// Position returns the source position of the node ("file:line:col"),
	// or "" when unknown.
	Position() string

	queryNode() // Marker method - seals interface to this package
}

// Definition is a named query tree. Immutable after load.
type Definition struct {
	Name string
	Root Node

	// Source is the document the definition was loaded from.
	Source string
}

// Property is a one- or two-level member access on an entity:
// Owner.Name when Owner is set, otherwise Name directly.
type Property struct {
	Owner string
	Name  string
}

func (p Property) String() string {
	if p.Owner != "" {
		return p.Owner + "." + p.Name
	}
	return p.Name
}

// Combinator folds the results of its children left-to-right with Op.
// Nodes is never empty for a loaded definition.
type Combinator struct {
	Op    Logic
	Nodes []Node
	Pos   string
}

func (c *Combinator) Position() string { return c.Pos }
func (*Combinator) queryNode() {}

// SingleCondition compares one property against one runtime value:
//
//	<property> <op> parse(<params[Param]>, DataType)
type SingleCondition struct {
	Property Property
	DataType string
	Op       Operator
	Param    string
	Pos      string
}

func (c *SingleCondition) Position() string { return c.Pos }
func (*SingleCondition) queryNode() {}

// MultiCondition compares one property against each comma-separated
// runtime value and ORs the results:
//
//	<property> <op> v1 OR <property> <op> v2 OR ...
type MultiCondition struct {
	Property Property
	DataType string
	Op       Operator
	Param    string
	Pos      string
}

func (c *MultiCondition) Position() string { return c.Pos }
func (*MultiCondition) queryNode() {}

// RangeCondition bounds a property on both sides, each side optional:
//
//	<property> >= params["Param#0"] AND <property> <= params["Param#1"]
type RangeCondition struct {
	Property Property
	DataType string
	Param    string
	Pos      string
}

func (c *RangeCondition) Position() string { return c.Pos }
func (*RangeCondition) queryNode() {}

// OpaqueLeaf is a node with no recognized shape.
// Fields lists the labels that were present, for diagnostics.
type OpaqueLeaf struct {
	Fields []string
	Pos    string
}

func (l *OpaqueLeaf) Position() string { return l.Pos }
func (*OpaqueLeaf) queryNode() {}

// Describe returns a short label for a node, used in error messages
// and debug logs.
func Describe(n Node) string {
	switch node := n.(type) {
	case *Combinator:
		return fmt.Sprintf("%s(%d)", node.Op, len(node.Nodes))
	case *SingleCondition:
		return fmt.Sprintf("param %s %s :%s", node.Property, node.Op, node.Param)
	case *MultiCondition:
		return fmt.Sprintf("multiParam %s %s :%s", node.Property, node.Op, node.Param)
	case *RangeCondition:
		return fmt.Sprintf("rangeParam %s :%s", node.Property, node.Param)
	case *OpaqueLeaf:
		return "opaque leaf"
	case nil:
		return "nil"
	default:
		return fmt.Sprintf("%T", n)
	}
}
