package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/qtree/internal/querytree"
	"github.com/roach88/qtree/internal/value"
)

// Binding is the result of applying the parameter mapping to one leaf.
type Binding struct {
	// Path is the node path from the root, e.g. "root/nodes[1]".
	Path string `json:"path"`

	Node querytree.Node `json:"-"`

	// Param is the parameter name the leaf reads. Range leaves report the
	// base name without suffix.
	Param string `json:"param,omitempty"`

	Type value.DataType `json:"-"`

	// Skipped is true when the leaf does not filter: its parameter is
	// unbound, or it is an opaque leaf admitted by LeafPermissive.
	Skipped bool `json:"skipped"`

	// Values holds the parsed value of a single leaf, or one value per
	// piece of a multi leaf.
	Values []value.Value `json:"-"`

	// Lower and Upper hold the parsed range sides; nil means unbounded.
	Lower value.Value `json:"-"`
	Upper value.Value `json:"-"`
}

// Property returns the property a leaf binding compares against.
func (b Binding) Property() querytree.Property {
	switch n := b.Node.(type) {
	case *querytree.SingleCondition:
		return n.Property
	case *querytree.MultiCondition:
		return n.Property
	case *querytree.RangeCondition:
		return n.Property
	default:
		return querytree.Property{}
	}
}

// Operator returns the leaf operator. Range leaves report Ge.
func (b Binding) Operator() querytree.Operator {
	switch n := b.Node.(type) {
	case *querytree.SingleCondition:
		return n.Op
	case *querytree.MultiCondition:
		return n.Op
	default:
		return querytree.Ge
	}
}

// String renders the binding for diagnostics, e.g. "Age >= 10 AND Age <= 20".
func (b Binding) String() string {
	if _, ok := b.Node.(*querytree.OpaqueLeaf); ok {
		return "true (opaque)"
	}
	if b.Skipped {
		return fmt.Sprintf("true (%s unbound)", b.Param)
	}

	prop := b.Property().String()
	switch b.Node.(type) {
	case *querytree.RangeCondition:
		var parts []string
		if b.Lower != nil {
			parts = append(parts, fmt.Sprintf("%s >= %s", prop, b.Lower))
		}
		if b.Upper != nil {
			parts = append(parts, fmt.Sprintf("%s <= %s", prop, b.Upper))
		}
		return strings.Join(parts, " AND ")
	default:
		op := b.Operator().Symbol()
		parts := make([]string, len(b.Values))
		for i, v := range b.Values {
			parts[i] = fmt.Sprintf("%s %s %s", prop, op, v)
		}
		return strings.Join(parts, " OR ")
	}
}

// Bind applies the parameter mapping to a single leaf of def.
//
// Config errors (unknown data type, operator not valid for the type, opaque
// leaf under LeafStrict) do not depend on p. Binding errors name the
// offending parameter key, including the range suffix.
func (c *Compiler) Bind(def *querytree.Definition, path string, n querytree.Node, p querytree.Params) (Binding, error) {
	tree := ""
	if def != nil {
		tree = def.Name
	}
	b := Binding{Path: path, Node: n}

	switch leaf := n.(type) {
	case *querytree.OpaqueLeaf:
		if c.policy == LeafStrict {
			return b, querytree.NewConfigError(querytree.CodeOpaqueLeaf,
				"node has no recognized shape (fields: %s)", strings.Join(leaf.Fields, ", ")).
				At(tree, path, leaf.Pos)
		}
		c.logger.Warn("opaque leaf compiled to true",
			"tree", tree,
			"node", path,
			"fields", leaf.Fields,
		)
		b.Skipped = true
		return b, nil

	case *querytree.SingleCondition:
		b.Param = leaf.Param
		dt, err := c.dataType(leaf.DataType, leaf.Op)
		if err != nil {
			return b, err.At(tree, path, leaf.Pos).WithParam(leaf.Param)
		}
		b.Type = dt

		raw, ok := p.Lookup(leaf.Param)
		if !ok {
			b.Skipped = true
			return b, nil
		}
		v, err := parse(dt, leaf.Param, raw)
		if err != nil {
			return b, err.At(tree, path, leaf.Pos)
		}
		b.Values = []value.Value{v}
		return b, nil

	case *querytree.MultiCondition:
		b.Param = leaf.Param
		dt, err := c.dataType(leaf.DataType, leaf.Op)
		if err != nil {
			return b, err.At(tree, path, leaf.Pos).WithParam(leaf.Param)
		}
		b.Type = dt

		pieces, ok := p.List(leaf.Param)
		if !ok {
			b.Skipped = true
			return b, nil
		}
		b.Values = make([]value.Value, len(pieces))
		for i, piece := range pieces {
			v, err := parse(dt, leaf.Param, piece)
			if err != nil {
				return b, err.At(tree, path, leaf.Pos)
			}
			b.Values[i] = v
		}
		return b, nil

	case *querytree.RangeCondition:
		b.Param = leaf.Param
		dt, err := c.dataType(leaf.DataType, querytree.Ge)
		if err != nil {
			return b, err.At(tree, path, leaf.Pos).WithParam(leaf.Param)
		}
		b.Type = dt

		bound := p.Range(leaf.Param)
		if bound.Unbounded() {
			b.Skipped = true
			return b, nil
		}
		if bound.HasLower() {
			v, err := parse(dt, leaf.Param+querytree.LowerSuffix, bound.Lower)
			if err != nil {
				return b, err.At(tree, path, leaf.Pos)
			}
			b.Lower = v
		}
		if bound.HasUpper() {
			v, err := parse(dt, leaf.Param+querytree.UpperSuffix, bound.Upper)
			if err != nil {
				return b, err.At(tree, path, leaf.Pos)
			}
			b.Upper = v
		}
		return b, nil

	default:
		return b, querytree.NewConfigError(querytree.CodeStructure,
			"%s is not a leaf", querytree.Describe(n)).At(tree, path, "")
	}
}

// Explain binds every leaf of def in document order.
func (c *Compiler) Explain(def *querytree.Definition, p querytree.Params) ([]Binding, error) {
	if _, err := c.CheckRoot(def); err != nil {
		return nil, err
	}

	var (
		out  []Binding
		werr error
	)
	querytree.Walk(def.Root, func(path string, n querytree.Node) bool {
		if werr != nil {
			return false
		}
		if comb, ok := n.(*querytree.Combinator); ok {
			if len(comb.Nodes) == 0 {
				werr = emptyCombinator(def.Name, path, comb)
				return false
			}
			return true
		}
		b, err := c.Bind(def, path, n, p)
		if err != nil {
			werr = err
			return false
		}
		out = append(out, b)
		return true
	})
	if werr != nil {
		return nil, werr
	}
	return out, nil
}

// dataType looks up a data type and checks that op applies to it.
func (c *Compiler) dataType(name string, op querytree.Operator) (value.DataType, *querytree.Error) {
	dt, ok := c.types.Lookup(name)
	if !ok {
		return dt, querytree.NewConfigError(querytree.CodeDataType, "unknown data type %q", name)
	}
	if op.Ordering() && !dt.Kind.Ordered() {
		return dt, querytree.NewConfigError(querytree.CodeOperator,
			"operator %s needs an ordered type, got %s", op, dt.Name)
	}
	if op == querytree.Contains && dt.Kind != value.KindString {
		return dt, querytree.NewConfigError(querytree.CodeOperator,
			"operator contains needs a string type, got %s", dt.Name)
	}
	return dt, nil
}

func parse(dt value.DataType, param, raw string) (value.Value, *querytree.Error) {
	v, err := dt.Parse(raw)
	if err != nil {
		return nil, querytree.NewBindingError(param, raw, dt.Name, err)
	}
	return v, nil
}

func emptyCombinator(tree, path string, comb *querytree.Combinator) *querytree.Error {
	return querytree.NewConfigError(querytree.CodeStructure, "combinator must have at least one child").
		At(tree, path, comb.Pos)
}
