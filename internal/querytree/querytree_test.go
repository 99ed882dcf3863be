package querytree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// sampleTree builds:
//
//	and(
//	  name eq :name,
//	  or(status eq :status (multi), age in :age (range)),
//	)
func sampleTree() *Definition {
	return &Definition{
		Name: "PeopleSearch",
		Root: &Combinator{
			Op: And,
			Nodes: []Node{
				&SingleCondition{Property: Property{Name: "Name"}, DataType: "string", Op: Eq, Param: "name"},
				&Combinator{
					Op: Or,
					Nodes: []Node{
						&MultiCondition{Property: Property{Name: "Status"}, DataType: "int", Op: Eq, Param: "status"},
						&RangeCondition{Property: Property{Owner: "Profile", Name: "Age"}, DataType: "int", Param: "age"},
					},
				},
			},
		},
	}
}

func TestNode_ImplementsSealedInterface(t *testing.T) {
	nodes := []Node{
		&Combinator{},
		&SingleCondition{},
		&MultiCondition{},
		&RangeCondition{},
		&OpaqueLeaf{},
	}

	for _, n := range nodes {
		// Sealed interface - can type switch exhaustively
		switch n.(type) {
		case *Combinator, *SingleCondition, *MultiCondition, *RangeCondition, *OpaqueLeaf:
		default:
			t.Fatalf("unexpected node type %T", n)
		}
	}
}

func TestProperty_String(t *testing.T) {
	assert.Equal(t, "Age", Property{Name: "Age"}.String())
	assert.Equal(t, "Profile.Age", Property{Owner: "Profile", Name: "Age"}.String())
}

func TestDescribe(t *testing.T) {
	def := sampleTree()
	root := def.Root.(*Combinator)

	assert.Equal(t, "and(2)", Describe(root))
	assert.Equal(t, "param Name eq :name", Describe(root.Nodes[0]))
	assert.Equal(t, "or(2)", Describe(root.Nodes[1]))
	assert.Equal(t, "rangeParam Profile.Age :age", Describe(root.Nodes[1].(*Combinator).Nodes[1]))
	assert.Equal(t, "opaque leaf", Describe(&OpaqueLeaf{}))
	assert.Equal(t, "nil", Describe(nil))
}

func TestWalk_DocumentOrder(t *testing.T) {
	var paths []string
	Walk(sampleTree().Root, func(path string, _ Node) bool {
		paths = append(paths, path)
		return true
	})

	assert.Equal(t, []string{
		"root",
		"root/nodes[0]",
		"root/nodes[1]",
		"root/nodes[1]/nodes[0]",
		"root/nodes[1]/nodes[1]",
	}, paths)
}

func TestWalk_SkipChildren(t *testing.T) {
	count := 0
	Walk(sampleTree().Root, func(path string, n Node) bool {
		count++
		return path == RootPath
	})

	// root + its two direct children; the nested or's children are skipped
	assert.Equal(t, 3, count)
}

func TestParamNames(t *testing.T) {
	assert.Equal(t, []string{"name", "status", "age#0", "age#1"}, ParamNames(sampleTree()))
}
