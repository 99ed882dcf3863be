package querytree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qtree/internal/value"
)

func issueCodes(r ValidationResult) []string {
	var codes []string
	for _, issue := range r.Issues {
		codes = append(codes, issue.Code)
	}
	return codes
}

func TestValidate_ValidTree(t *testing.T) {
	result := Validate(sampleTree(), value.NewRegistry())

	assert.True(t, result.Valid())
	assert.Empty(t, result.Issues)
	assert.Equal(t, "PeopleSearch", result.Tree)
}

func TestValidate_RootMustBeCombinator(t *testing.T) {
	def := &Definition{
		Name: "Leaf",
		Root: &SingleCondition{Property: Property{Name: "Age"}, DataType: "int", Op: Eq, Param: "age"},
	}

	result := Validate(def, nil)

	assert.False(t, result.Valid())
	require.Len(t, result.Issues, 1)
	assert.Equal(t, CodeRootKind, result.Issues[0].Code)
	assert.Equal(t, RootPath, result.Issues[0].Node)
}

func TestValidate_NilRoot(t *testing.T) {
	result := Validate(&Definition{Name: "Empty"}, nil)
	assert.False(t, result.Valid())
	assert.Equal(t, []string{CodeStructure}, issueCodes(result))
}

func TestValidate_EmptyCombinator(t *testing.T) {
	def := &Definition{
		Name: "Empty",
		Root: &Combinator{Op: And, Nodes: []Node{&Combinator{Op: Or}}},
	}

	result := Validate(def, nil)

	assert.False(t, result.Valid())
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "root/nodes[0]", result.Issues[0].Node)
	assert.Contains(t, result.Issues[0].Message, "at least one child")
}

func TestValidate_LeafChecks(t *testing.T) {
	def := &Definition{
		Name: "Bad",
		Root: &Combinator{Op: And, Nodes: []Node{
			&SingleCondition{Property: Property{Name: "A"}, DataType: "uuid", Op: Eq, Param: "a"},
			&SingleCondition{Property: Property{Name: "B"}, DataType: "bool", Op: Gt, Param: "b"},
			&SingleCondition{Property: Property{Name: "C"}, DataType: "int", Op: Contains, Param: "c"},
			&RangeCondition{Property: Property{Name: "D"}, DataType: "int", Param: "d#0"},
			&MultiCondition{Property: Property{Name: "E"}, Op: Eq, Param: ""},
		}},
	}

	result := Validate(def, value.NewRegistry())

	assert.False(t, result.Valid())
	assert.Equal(t, []string{
		CodeDataType,  // unknown uuid
		CodeOperator,  // gt on bool
		CodeOperator,  // contains on int
		CodeStructure, // range param carries suffix
		CodeStructure, // no parameter name
		CodeStructure, // no data type
	}, issueCodes(result))
}

func TestValidate_Warnings(t *testing.T) {
	def := &Definition{
		Name: "Warn",
		Root: &Combinator{Op: Or, Nodes: []Node{
			&OpaqueLeaf{Fields: []string{"op", "note"}},
			&SingleCondition{Property: Property{Name: "A"}, DataType: "int", Op: Eq, Param: "x"},
			&SingleCondition{Property: Property{Name: "B"}, DataType: "string", Op: Eq, Param: "x"},
		}},
	}

	result := Validate(def, value.NewRegistry())

	assert.True(t, result.Valid(), "warnings alone keep a definition valid")
	require.Len(t, result.Issues, 2)
	assert.Equal(t, SeverityWarning, result.Issues[0].Severity)
	assert.Contains(t, result.Issues[0].Message, "op, note")
	assert.Equal(t, CodeDataType, result.Issues[1].Code)
}

func TestValidate_RejectOpaqueLeaves(t *testing.T) {
	def := &Definition{
		Name: "Opaque",
		Root: &Combinator{Op: And, Nodes: []Node{&OpaqueLeaf{Fields: []string{"kind"}}}},
	}

	result := Validate(def, nil, RejectOpaqueLeaves())

	assert.False(t, result.Valid())
	require.Len(t, result.Issues, 1)
	assert.Equal(t, SeverityError, result.Issues[0].Severity)
	assert.Equal(t, CodeOpaqueLeaf, result.Issues[0].Code)
}

func TestIssue_String(t *testing.T) {
	issue := Issue{Severity: SeverityError, Code: CodeStructure, Node: "root", Message: "boom", Pos: "a.cue:1:2"}
	assert.Equal(t, "a.cue:1:2: error [structure] root: boom", issue.String())
}
