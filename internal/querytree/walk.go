package querytree

import "fmt"

// RootPath is the node path of a definition's root.
const RootPath = "root"

// ChildPath returns the path of the i-th child under parent.
func ChildPath(parent string, i int) string {
	return fmt.Sprintf("%s/nodes[%d]", parent, i)
}

// Walk visits n and its descendants depth-first in document order.
// Returning false from fn skips the children of the current node.
func Walk(n Node, fn func(path string, n Node) bool) {
	walk(RootPath, n, fn)
}

func walk(path string, n Node, fn func(string, Node) bool) {
	if !fn(path, n) {
		return
	}
	if c, ok := n.(*Combinator); ok {
		for i, child := range c.Nodes {
			walk(ChildPath(path, i), child, fn)
		}
	}
}

// ParamNames returns the runtime parameter keys a tree reads, in document
// order without duplicates. Range parameters contribute both suffixed keys.
func ParamNames(def *Definition) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	Walk(def.Root, func(_ string, n Node) bool {
		switch node := n.(type) {
		case *SingleCondition:
			add(node.Param)
		case *MultiCondition:
			add(node.Param)
		case *RangeCondition:
			add(node.Param + LowerSuffix)
			add(node.Param + UpperSuffix)
		}
		return true
	})
	return names
}
