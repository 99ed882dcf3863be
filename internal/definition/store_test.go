package definition

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qtree/internal/querytree"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFileCUE(t *testing.T) {
	s, err := LoadFile(filepath.Join("testdata", "people.cue"))
	require.NoError(t, err)

	assert.Equal(t, []string{"ByName", "PeopleSearch"}, s.Names())
	assert.Equal(t, 2, s.Len())

	def, err := s.Lookup("PeopleSearch")
	require.NoError(t, err)
	assert.Equal(t, "PeopleSearch", def.Name)
	assert.Contains(t, def.Source, "people.cue")

	root, ok := def.Root.(*querytree.Combinator)
	require.True(t, ok)
	assert.Equal(t, querytree.And, root.Op)
	require.Len(t, root.Nodes, 4)

	single, ok := root.Nodes[0].(*querytree.SingleCondition)
	require.True(t, ok)
	assert.Equal(t, "name", single.Param)
	assert.Equal(t, querytree.Property{Name: "Name"}, single.Property)
	assert.Equal(t, querytree.Contains, single.Op)
	assert.Equal(t, "string", single.DataType)

	multi, ok := root.Nodes[1].(*querytree.MultiCondition)
	require.True(t, ok)
	assert.Equal(t, "status", multi.Param)
	assert.Equal(t, querytree.Eq, multi.Op)
	assert.Equal(t, "int", multi.DataType)

	rng, ok := root.Nodes[2].(*querytree.RangeCondition)
	require.True(t, ok)
	assert.Equal(t, "age", rng.Param)
	assert.Equal(t, querytree.Property{Name: "Age"}, rng.Property)

	inner, ok := root.Nodes[3].(*querytree.Combinator)
	require.True(t, ok)
	assert.Equal(t, querytree.Or, inner.Op)
	require.Len(t, inner.Nodes, 2)
	city := inner.Nodes[0].(*querytree.SingleCondition)
	assert.Equal(t, querytree.Property{Owner: "Address", Name: "City"}, city.Property)
	assert.Contains(t, city.Pos, "people.cue:")
}

func TestPropertyDefaultsToParamName(t *testing.T) {
	s, err := LoadFile(filepath.Join("testdata", "people.cue"))
	require.NoError(t, err)

	def, err := s.Lookup("ByName")
	require.NoError(t, err)
	leaf := def.Root.(*querytree.Combinator).Nodes[0].(*querytree.SingleCondition)
	assert.Equal(t, "Name", leaf.Param)
	assert.Equal(t, querytree.Property{Name: "Name"}, leaf.Property)
}

func TestLoadFileYAML(t *testing.T) {
	s, err := LoadFile(filepath.Join("testdata", "orders.yaml"))
	require.NoError(t, err)

	def, err := s.Lookup("OrderSearch")
	require.NoError(t, err)
	root := def.Root.(*querytree.Combinator)
	require.Len(t, root.Nodes, 3)

	ge := root.Nodes[0].(*querytree.SingleCondition)
	assert.Equal(t, querytree.Ge, ge.Op)
	assert.Equal(t, "minTotal", ge.Param)
	assert.Equal(t, "Total", ge.Property.Name)

	_, ok := root.Nodes[1].(*querytree.RangeCondition)
	assert.True(t, ok)
	_, ok = root.Nodes[2].(*querytree.MultiCondition)
	assert.True(t, ok)
}

func TestLoadFileJSONKeepsOpaqueLeaf(t *testing.T) {
	s, err := LoadFile(filepath.Join("testdata", "products.json"))
	require.NoError(t, err)

	def, err := s.Lookup("ProductSearch")
	require.NoError(t, err)
	root := def.Root.(*querytree.Combinator)
	assert.Equal(t, querytree.Or, root.Op)
	require.Len(t, root.Nodes, 3)

	opaque, ok := root.Nodes[2].(*querytree.OpaqueLeaf)
	require.True(t, ok)
	assert.Equal(t, []string{"expr", "kind"}, opaque.Fields)
}

func TestLoadDir(t *testing.T) {
	s, err := LoadDir("testdata")
	require.NoError(t, err)
	assert.Equal(t, []string{"ByName", "OrderSearch", "PeopleSearch", "ProductSearch"}, s.Names())
	assert.Len(t, s.Definitions(), 4)
}

func TestLoadDirErrors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
		require.Error(t, err)
		assert.True(t, querytree.IsConfigError(err))
	})

	t.Run("file", func(t *testing.T) {
		_, err := LoadDir(filepath.Join("testdata", "people.cue"))
		require.Error(t, err)
		assert.True(t, querytree.IsConfigError(err))
		assert.Contains(t, err.Error(), "not a directory")
	})

	t.Run("empty dir", func(t *testing.T) {
		s, err := LoadDir(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, 0, s.Len())
	})
}

func TestLoadFilesDuplicateName(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.cue", `querytree: T: {op: "and", nodes: [{op: "eq", param: {name: "x", type: "int"}}]}`)
	b := writeFile(t, dir, "b.cue", `querytree: T: {op: "or", nodes: [{op: "eq", param: {name: "y", type: "int"}}]}`)

	_, err := LoadFiles([]string{a, b})
	require.Error(t, err)
	assert.True(t, querytree.IsConfigError(err))

	var qe *querytree.Error
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, querytree.CodeDuplicateName, qe.Code)
	assert.Equal(t, "T", qe.Tree)

	s, err := LoadFiles([]string{a, b}, WithRedefinition())
	require.NoError(t, err)
	def, err := s.Lookup("T")
	require.NoError(t, err)
	assert.Equal(t, querytree.Or, def.Root.(*querytree.Combinator).Op)
	assert.Equal(t, b, def.Source)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.cue"))
	require.Error(t, err)
	assert.True(t, querytree.IsConfigError(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLookupNotFound(t *testing.T) {
	s, err := LoadFile(filepath.Join("testdata", "people.cue"))
	require.NoError(t, err)

	_, err = s.Lookup("Nope")
	require.Error(t, err)
	assert.True(t, querytree.IsNotFound(err))
	assert.False(t, querytree.IsConfigError(err))
	assert.Contains(t, err.Error(), `"Nope"`)
}

func TestNewFromDefinitions(t *testing.T) {
	leaf := &querytree.SingleCondition{Property: querytree.Property{Name: "A"}, DataType: "int", Op: querytree.Eq, Param: "a"}
	def := &querytree.Definition{Name: "A", Root: &querytree.Combinator{Op: querytree.And, Nodes: []querytree.Node{leaf}}}

	s, err := New([]*querytree.Definition{def})
	require.NoError(t, err)
	got, err := s.Lookup("A")
	require.NoError(t, err)
	assert.Same(t, def, got)

	_, err = New([]*querytree.Definition{def, def})
	assert.True(t, querytree.IsConfigError(err))

	_, err = New([]*querytree.Definition{{Root: def.Root}})
	assert.True(t, querytree.IsConfigError(err))
}

func TestConcurrentLookup(t *testing.T) {
	s, err := LoadDir("testdata")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, name := range s.Names() {
				def, err := s.Lookup(name)
				assert.NoError(t, err)
				assert.Equal(t, name, def.Name)
			}
		}()
	}
	wg.Wait()
}
