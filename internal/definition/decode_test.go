package definition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qtree/internal/querytree"
)

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		wantCode string
		wantMsg  string
	}{
		{
			name:     "syntax error",
			doc:      `querytree: T: {op: "and"`,
			wantCode: querytree.CodeDocument,
		},
		{
			name:     "unknown logic op",
			doc:      `querytree: T: {op: "xor", nodes: [{op: "eq", param: {name: "a", type: "int"}}]}`,
			wantCode: querytree.CodeOperator,
			wantMsg:  "xor",
		},
		{
			name:     "unknown leaf op",
			doc:      `querytree: T: {op: "and", nodes: [{op: "between", param: {name: "a", type: "int"}}]}`,
			wantCode: querytree.CodeOperator,
			wantMsg:  "between",
		},
		{
			name:     "empty combinator",
			doc:      `querytree: T: {op: "and", nodes: []}`,
			wantCode: querytree.CodeStructure,
			wantMsg:  "at least one child",
		},
		{
			name:     "missing combinator op",
			doc:      `querytree: T: {nodes: [{op: "eq", param: {name: "a", type: "int"}}]}`,
			wantCode: querytree.CodeStructure,
			wantMsg:  `"op" is required`,
		},
		{
			name:     "missing leaf op",
			doc:      `querytree: T: {op: "and", nodes: [{param: {name: "a", type: "int"}}]}`,
			wantCode: querytree.CodeStructure,
			wantMsg:  `"op" is required`,
		},
		{
			name:     "missing param name",
			doc:      `querytree: T: {op: "and", nodes: [{op: "eq", param: {type: "int"}}]}`,
			wantCode: querytree.CodeStructure,
			wantMsg:  `"name" is required`,
		},
		{
			name:     "missing data type",
			doc:      `querytree: T: {op: "and", nodes: [{op: "eq", param: {name: "a"}}]}`,
			wantCode: querytree.CodeStructure,
			wantMsg:  `"type" is required`,
		},
		{
			name:     "nodes and leaf",
			doc:      `querytree: T: {op: "and", nodes: [{op: "eq", nodes: [], param: {name: "a", type: "int"}}]}`,
			wantCode: querytree.CodeStructure,
			wantMsg:  "both",
		},
		{
			name:     "two leaf kinds",
			doc:      `querytree: T: {op: "and", nodes: [{op: "eq", param: {name: "a", type: "int"}, multiParam: {name: "a", type: "int"}}]}`,
			wantCode: querytree.CodeStructure,
			wantMsg:  "both",
		},
		{
			name:     "node not struct",
			doc:      `querytree: T: {op: "and", nodes: ["x"]}`,
			wantCode: querytree.CodeStructure,
			wantMsg:  "must be a struct",
		},
		{
			name:     "nodes not list",
			doc:      `querytree: T: {op: "and", nodes: {a: 1}}`,
			wantCode: querytree.CodeStructure,
			wantMsg:  "must be a list",
		},
		{
			name:     "name not string",
			doc:      `querytree: T: {op: "and", nodes: [{op: "eq", param: {name: 3, type: "int"}}]}`,
			wantCode: querytree.CodeStructure,
			wantMsg:  "must be a string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes("doc.cue", []byte(tt.doc))
			require.Error(t, err)
			assert.True(t, querytree.IsConfigError(err), "got %v", err)

			var qe *querytree.Error
			require.ErrorAs(t, err, &qe)
			assert.Equal(t, tt.wantCode, qe.Code)
			if tt.wantMsg != "" {
				assert.Contains(t, qe.Error(), tt.wantMsg)
			}
			if tt.wantCode != querytree.CodeDocument {
				assert.Equal(t, "T", qe.Tree)
			}
		})
	}
}

func TestDecodeErrorCarriesPositionAndPath(t *testing.T) {
	doc := `querytree: T: {
	op: "and"
	nodes: [
		{op: "eq", param: {name: "a", type: "int"}},
		{op: "or", nodes: []},
	]
}
`
	_, err := LoadBytes("trees.cue", []byte(doc))
	require.Error(t, err)

	var qe *querytree.Error
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "root/nodes[1]", qe.Node)
	assert.Contains(t, qe.Pos, "trees.cue:5:")
}

func TestDecodeRangeIgnoresOp(t *testing.T) {
	s, err := LoadBytes("doc.cue", []byte(`querytree: T: {op: "and", nodes: [{op: "whatever", rangeParam: {name: "age", type: "int"}}]}`))
	require.NoError(t, err)
	def, err := s.Lookup("T")
	require.NoError(t, err)

	rng, ok := def.Root.(*querytree.Combinator).Nodes[0].(*querytree.RangeCondition)
	require.True(t, ok)
	assert.Equal(t, querytree.Property{Name: "age"}, rng.Property)
}

func TestDecodeNoTrees(t *testing.T) {
	s, err := LoadBytes("doc.cue", []byte(`other: 1`))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestDecodeOpAliases(t *testing.T) {
	doc := `querytree: T: {op: "AndAlso", nodes: [
		{op: "GreaterThanOrEqual", param: {name: "a", type: "int"}},
		{op: "||", nodes: [{op: "!=", param: {name: "b", type: "int"}}]},
	]}`
	s, err := LoadBytes("doc.cue", []byte(doc))
	require.NoError(t, err)
	def, err := s.Lookup("T")
	require.NoError(t, err)

	root := def.Root.(*querytree.Combinator)
	assert.Equal(t, querytree.And, root.Op)
	assert.Equal(t, querytree.Ge, root.Nodes[0].(*querytree.SingleCondition).Op)
	inner := root.Nodes[1].(*querytree.Combinator)
	assert.Equal(t, querytree.Or, inner.Op)
	assert.Equal(t, querytree.Ne, inner.Nodes[0].(*querytree.SingleCondition).Op)
}

func TestLoadBytesUnsupportedFormat(t *testing.T) {
	_, err := LoadBytes("doc.toml", []byte(`x = 1`))
	require.Error(t, err)
	assert.True(t, querytree.IsConfigError(err))
}
