package compiler

import (
	"errors"

	"github.com/roach88/qtree/internal/definition"
	"github.com/roach88/qtree/internal/entity"
	"github.com/roach88/qtree/internal/querytree"
	"github.com/roach88/qtree/internal/value"
)

// Compile builds the predicate for def under parameters p.
//
// Errors are returned in document order: the first offending node wins.
// Every leaf is type-checked and resolved against T even when its
// parameter is unbound, so a definition either compiles for T or not,
// independent of p (binding errors aside).
func Compile[T any](c *Compiler, def *querytree.Definition, r entity.Resolver[T], p querytree.Params) (Predicate[T], error) {
	if r == nil {
		return nil, errors.New("compile: nil resolver")
	}
	root, err := c.CheckRoot(def)
	if err != nil {
		return nil, err
	}

	b := &builder[T]{c: c, def: def, r: r, p: p}
	n, err := b.combinator(querytree.RootPath, root)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("query tree compiled",
		"tree", def.Name,
		"entity", r.Entity(),
		"leaves", b.leaves,
		"skipped", b.skipped,
	)

	if n.always {
		return func(T) bool { return true }, nil
	}
	return n.fn, nil
}

// CompileNamed looks up name in s and compiles it.
func CompileNamed[T any](c *Compiler, s *definition.Store, name string, r entity.Resolver[T], p querytree.Params) (Predicate[T], error) {
	def, err := s.Lookup(name)
	if err != nil {
		return nil, err
	}
	return Compile(c, def, r, p)
}

// compiled is an intermediate node result. always marks a node that is
// constant true, which lets combinators drop or short-circuit it at
// compile time instead of on every evaluation.
type compiled[T any] struct {
	fn     func(T) bool
	always bool
}

type builder[T any] struct {
	c   *Compiler
	def *querytree.Definition
	r   entity.Resolver[T]
	p   querytree.Params

	leaves  int
	skipped int
}

func (b *builder[T]) node(path string, n querytree.Node) (compiled[T], error) {
	if comb, ok := n.(*querytree.Combinator); ok {
		return b.combinator(path, comb)
	}
	return b.leaf(path, n)
}

// combinator compiles all children in document order, then folds them.
func (b *builder[T]) combinator(path string, comb *querytree.Combinator) (compiled[T], error) {
	if len(comb.Nodes) == 0 {
		return compiled[T]{}, emptyCombinator(b.def.Name, path, comb)
	}

	children := make([]compiled[T], 0, len(comb.Nodes))
	for i, child := range comb.Nodes {
		cn, err := b.node(querytree.ChildPath(path, i), child)
		if err != nil {
			return compiled[T]{}, err
		}
		children = append(children, cn)
	}

	var fns []func(T) bool
	for _, cn := range children {
		if cn.always {
			if comb.Op == querytree.Or {
				return compiled[T]{always: true}, nil
			}
			continue
		}
		fns = append(fns, cn.fn)
	}

	switch len(fns) {
	case 0:
		return compiled[T]{always: true}, nil
	case 1:
		return compiled[T]{fn: fns[0]}, nil
	}

	if comb.Op == querytree.Or {
		return compiled[T]{fn: func(e T) bool {
			for _, fn := range fns {
				if fn(e) {
					return true
				}
			}
			return false
		}}, nil
	}
	return compiled[T]{fn: func(e T) bool {
		for _, fn := range fns {
			if !fn(e) {
				return false
			}
		}
		return true
	}}, nil
}

func (b *builder[T]) leaf(path string, n querytree.Node) (compiled[T], error) {
	b.leaves++

	bind, err := b.c.Bind(b.def, path, n, b.p)
	if err != nil {
		return compiled[T]{}, err
	}
	if _, ok := n.(*querytree.OpaqueLeaf); ok {
		b.skipped++
		return compiled[T]{always: true}, nil
	}

	get, err := b.resolve(path, n, bind)
	if err != nil {
		return compiled[T]{}, err
	}

	if bind.Skipped {
		b.skipped++
		return compiled[T]{always: true}, nil
	}

	read := coerce(get.Get, bind.Type)
	switch n.(type) {
	case *querytree.SingleCondition:
		return compiled[T]{fn: single(read, bind.Operator(), bind.Values[0])}, nil
	case *querytree.MultiCondition:
		return compiled[T]{fn: anyOf(read, bind.Operator(), bind.Values)}, nil
	default:
		return compiled[T]{fn: between(read, bind.Lower, bind.Upper)}, nil
	}
}

// resolve finds the accessor for a leaf and checks that the property kind
// is compatible with the declared data type.
func (b *builder[T]) resolve(path string, n querytree.Node, bind Binding) (entity.Getter[T], error) {
	prop := bind.Property()
	get, err := b.r.Resolve(prop)
	if err != nil {
		return get, querytree.NewResolutionError(prop, b.r.Entity(), err).
			At(b.def.Name, path, n.Position()).
			WithParam(bind.Param)
	}

	compatible := value.Comparable(bind.Type.Kind, get.Kind)
	if bind.Operator() == querytree.Contains && bind.Type.Kind == value.KindString {
		compatible = get.Kind == value.KindString || get.Kind == value.KindAny
	}
	if !compatible {
		return get, querytree.NewConfigError(querytree.CodeTypeMismatch,
			"property %s is %s, not comparable with data type %s", prop, get.Kind, bind.Type.Name).
			At(b.def.Name, path, n.Position()).
			WithParam(bind.Param)
	}
	return get, nil
}

// coerce parses string property values with the leaf's data type, so a
// date or number carried as text (JSON records) compares as that type. Text
// that does not parse reads as null.
func coerce[T any](get func(T) value.Value, dt value.DataType) func(T) value.Value {
	if dt.Kind == value.KindString || dt.Parse == nil {
		return get
	}
	return func(e T) value.Value {
		v := get(e)
		s, ok := v.(value.String)
		if !ok {
			return v
		}
		parsed, err := dt.Parse(string(s))
		if err != nil {
			return value.Null{}
		}
		return parsed
	}
}

// holds applies op to a property value and a bound value. A property value
// that cannot be compared (null, or a dynamic value of another kind) only
// satisfies ne.
func holds(op querytree.Operator, prop, want value.Value) bool {
	if op == querytree.Contains {
		return value.Contains(prop, want)
	}
	cmp, ok := value.Compare(prop, want)
	if !ok {
		return op == querytree.Ne
	}
	return op.Holds(cmp)
}

func single[T any](get func(T) value.Value, op querytree.Operator, want value.Value) func(T) bool {
	return func(e T) bool {
		return holds(op, get(e), want)
	}
}

// anyOf ORs one comparison per bound value.
func anyOf[T any](get func(T) value.Value, op querytree.Operator, wants []value.Value) func(T) bool {
	return func(e T) bool {
		v := get(e)
		for _, want := range wants {
			if holds(op, v, want) {
				return true
			}
		}
		return false
	}
}

// between ANDs the bound sides of a range; a nil side is unbounded.
func between[T any](get func(T) value.Value, lower, upper value.Value) func(T) bool {
	return func(e T) bool {
		v := get(e)
		if lower != nil {
			if cmp, ok := value.Compare(v, lower); !ok || cmp < 0 {
				return false
			}
		}
		if upper != nil {
			if cmp, ok := value.Compare(v, upper); !ok || cmp > 0 {
				return false
			}
		}
		return true
	}
}
