package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qtree/internal/querytree"
	"github.com/roach88/qtree/internal/value"
)

func TestParseLeafPolicy(t *testing.T) {
	for in, want := range map[string]LeafPolicy{
		"":           LeafStrict,
		"strict":     LeafStrict,
		"Permissive": LeafPermissive,
	} {
		got, err := ParseLeafPolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLeafPolicy("lenient")
	assert.Error(t, err)
	assert.Equal(t, "permissive", LeafPermissive.String())
	assert.Equal(t, "strict", LeafStrict.String())
}

func TestNewDefaults(t *testing.T) {
	c := New(WithRegistry(nil), WithLogger(nil))
	assert.Equal(t, LeafStrict, c.Policy())
	_, ok := c.Types().Lookup("int")
	assert.True(t, ok)
}

func TestValidateFollowsLeafPolicy(t *testing.T) {
	def := tree(and(eq("name", "Name", "string"), &querytree.OpaqueLeaf{Fields: []string{"kind"}}))

	strict := New().Validate(def)
	assert.False(t, strict.Valid())
	require.Len(t, strict.Issues, 1)
	assert.Equal(t, querytree.SeverityError, strict.Issues[0].Severity)

	permissive := New(WithLeafPolicy(LeafPermissive)).Validate(def)
	assert.True(t, permissive.Valid())
	require.Len(t, permissive.Issues, 1)
	assert.Equal(t, querytree.SeverityWarning, permissive.Issues[0].Severity)
}

func TestExplainContains(t *testing.T) {
	def := tree(and(cond("name", "", "Name", "string", querytree.Contains)))

	bindings, err := quiet().Explain(def, querytree.Params{"name": "an"})
	require.NoError(t, err)
	require.Len(t, bindings, 1)
	assert.Equal(t, "Name contains an", bindings[0].String())
}

func TestCustomDataType(t *testing.T) {
	types := value.NewRegistry()
	types.Register("yesno", value.KindBool, func(s string) (value.Value, error) {
		return value.Bool(s == "yes"), nil
	})
	c := New(WithRegistry(types))

	pred, err := Compile(c, tree(and(eq("active", "Active", "yesno"))), resolver(), querytree.Params{"active": "yes"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada", "Cy", ""}, names(pred.Filter(customers)))
}

func TestExplain(t *testing.T) {
	c := quiet()
	def := tree(and(
		eq("name", "Name", "string"),
		multi("status", "Status", "int", querytree.Eq),
		or(rng("age", "Age", "int")),
	))
	p := querytree.Params{"status": "1, 3", "age#0": "18"}

	bindings, err := c.Explain(def, p)
	require.NoError(t, err)
	require.Len(t, bindings, 3)

	assert.Equal(t, "root/nodes[0]", bindings[0].Path)
	assert.True(t, bindings[0].Skipped)
	assert.Equal(t, "true (name unbound)", bindings[0].String())

	assert.Equal(t, "status", bindings[1].Param)
	assert.False(t, bindings[1].Skipped)
	assert.Equal(t, []value.Value{value.Int(1), value.Int(3)}, bindings[1].Values)
	assert.Equal(t, "Status = 1 OR Status = 3", bindings[1].String())

	assert.Equal(t, "root/nodes[2]/nodes[0]", bindings[2].Path)
	assert.Equal(t, value.Int(18), bindings[2].Lower)
	assert.Nil(t, bindings[2].Upper)
	assert.Equal(t, "Age >= 18", bindings[2].String())
	assert.Equal(t, querytree.Property{Name: "Age"}, bindings[2].Property())
}

func TestExplainErrors(t *testing.T) {
	c := quiet()

	_, err := c.Explain(tree(eq("name", "Name", "string")), nil)
	assert.True(t, querytree.IsConfigError(err))

	_, err = c.Explain(tree(and(or())), nil)
	assert.True(t, querytree.IsConfigError(err))

	_, err = c.Explain(tree(and(eq("n", "Age", "int"))), querytree.Params{"n": "x"})
	assert.True(t, querytree.IsBindingError(err))
}

func TestBindRangeBothSides(t *testing.T) {
	c := quiet()
	leaf := rng("score", "Score", "decimal")

	b, err := c.Bind(tree(and(leaf)), "root/nodes[0]", leaf, querytree.RangeParams("score", "1.5", "2"))
	require.NoError(t, err)
	assert.Equal(t, "1.5", b.Lower.String())
	assert.Equal(t, "2", b.Upper.String())
	assert.Equal(t, "Score >= 1.5 AND Score <= 2", b.String())
}

func TestBindRejectsCombinator(t *testing.T) {
	c := quiet()
	_, err := c.Bind(tree(and()), querytree.RootPath, and(), nil)
	assert.True(t, querytree.IsConfigError(err))
}
