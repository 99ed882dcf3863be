package querysql

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qtree/internal/compiler"
	"github.com/roach88/qtree/internal/querytree"
)

func newTranslator(opts ...Option) *Translator {
	c := compiler.New(compiler.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	return NewTranslator(c, opts...)
}

func leaf(param, owner, property, dataType string, op querytree.Operator) *querytree.SingleCondition {
	return &querytree.SingleCondition{
		Property: querytree.Property{Owner: owner, Name: property},
		DataType: dataType,
		Op:       op,
		Param:    param,
	}
}

func peopleSearch() *querytree.Definition {
	return &querytree.Definition{
		Name: "PeopleSearch",
		Root: &querytree.Combinator{Op: querytree.And, Nodes: []querytree.Node{
			leaf("name", "", "Name", "string", querytree.Contains),
			&querytree.MultiCondition{Property: querytree.Property{Name: "Status"}, DataType: "int", Op: querytree.Eq, Param: "status"},
			&querytree.RangeCondition{Property: querytree.Property{Name: "Age"}, DataType: "int", Param: "age"},
			&querytree.Combinator{Op: querytree.Or, Nodes: []querytree.Node{
				leaf("city", "Address", "City", "string", querytree.Eq),
				leaf("country", "Address", "Country", "string", querytree.Eq),
			}},
		}},
	}
}

func render(w Where) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "SQL: %s\n", w.SQL)
	if len(w.Args) == 0 {
		buf.WriteString("ARGS: (none)\n")
		return buf.Bytes()
	}
	buf.WriteString("ARGS:\n")
	for i, a := range w.Args {
		fmt.Fprintf(&buf, "  [%d] %T %v\n", i, a, a)
	}
	return buf.Bytes()
}

func TestTranslateGolden(t *testing.T) {
	tests := []struct {
		name string
		def  *querytree.Definition
		p    querytree.Params
	}{
		{
			name: "all_bound",
			def:  peopleSearch(),
			p: querytree.Merge(
				querytree.Params{"name": "a_b%", "status": "1, 2", "city": "London"},
				querytree.RangeParams("age", "18", "65"),
			),
		},
		{
			name: "no_params",
			def:  peopleSearch(),
		},
		{
			name: "mixed_types",
			def: &querytree.Definition{
				Name: "Mixed",
				Root: &querytree.Combinator{Op: querytree.And, Nodes: []querytree.Node{
					leaf("status", "", "Status", "int", querytree.Ne),
					&querytree.RangeCondition{Property: querytree.Property{Name: "Joined"}, DataType: "date", Param: "joined"},
					leaf("score", "", "Score", "decimal", querytree.Le),
					leaf("active", "", "Active", "bool", querytree.Eq),
				}},
			},
			p: querytree.Params{"status": "3", "joined#0": "2020-01-01", "score": "7.5", "active": "true"},
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	tr := newTranslator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := tr.Translate(tt.def, tt.p)
			require.NoError(t, err)
			g.Assert(t, "translate_"+tt.name, render(w))
		})
	}
}

func TestTranslateAllBound(t *testing.T) {
	p := querytree.Merge(
		querytree.Params{"name": "a_b%", "status": "1, 2", "city": "London"},
		querytree.RangeParams("age", "18", "65"),
	)
	w, err := newTranslator().Translate(peopleSearch(), p)
	require.NoError(t, err)

	assert.Equal(t,
		`(instr("name", ?) > 0 AND ("status" = ? OR "status" = ?) AND ("age" >= ? AND "age" <= ?) AND ("address_city" = ? OR 1 = 1))`,
		w.SQL)
	assert.Equal(t, []any{"a_b%", int64(1), int64(2), int64(18), int64(65), "London"}, w.Args)
}

func TestTranslateRangeSides(t *testing.T) {
	def := &querytree.Definition{Name: "R", Root: &querytree.Combinator{Op: querytree.And, Nodes: []querytree.Node{
		&querytree.RangeCondition{Property: querytree.Property{Name: "Age"}, DataType: "int", Param: "age"},
	}}}
	tr := newTranslator()

	w, err := tr.Translate(def, querytree.Params{"age#1": "10"})
	require.NoError(t, err)
	assert.Equal(t, `("age" <= ?)`, w.SQL)
	assert.Equal(t, []any{int64(10)}, w.Args)

	w, err = tr.Translate(def, querytree.Params{"age#0": "", "age#1": nil})
	require.NoError(t, err)
	assert.Equal(t, `(1 = 1)`, w.SQL)
	assert.Empty(t, w.Args)
}

func TestTranslateColumnOverride(t *testing.T) {
	tr := newTranslator(WithColumns(map[string]string{"Address.City": "town"}))
	w, err := tr.Translate(peopleSearch(), querytree.Params{"city": "Paris", "country": "FR"})
	require.NoError(t, err)
	assert.Equal(t, `(1 = 1 AND 1 = 1 AND 1 = 1 AND ("town" = ? OR "address_country" = ?))`, w.SQL)
	assert.Equal(t, []any{"Paris", "FR"}, w.Args)
}

func TestTranslateErrors(t *testing.T) {
	tr := newTranslator()

	_, err := tr.Translate(&querytree.Definition{Name: "X", Root: leaf("a", "", "A", "int", querytree.Eq)}, nil)
	assert.True(t, querytree.IsConfigError(err))

	_, err = tr.Translate(peopleSearch(), querytree.Params{"status": "1,x"})
	assert.True(t, querytree.IsBindingError(err))

	bad := &querytree.Definition{Name: "Bad", Root: &querytree.Combinator{Op: querytree.And, Nodes: []querytree.Node{
		leaf("a", "", "A", "int", querytree.Eq),
	}}}
	_, err = newTranslator(WithColumns(map[string]string{"A": "a; DROP TABLE t"})).Translate(bad, querytree.Params{"a": "1"})
	assert.True(t, querytree.IsConfigError(err))

	opaque := &querytree.Definition{Name: "O", Root: &querytree.Combinator{Op: querytree.And, Nodes: []querytree.Node{
		&querytree.OpaqueLeaf{},
	}}}
	_, err = tr.Translate(opaque, nil)
	assert.True(t, querytree.IsConfigError(err))

	permissive := NewTranslator(compiler.New(
		compiler.WithLeafPolicy(compiler.LeafPermissive),
		compiler.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
	))
	w, err := permissive.Translate(opaque, nil)
	require.NoError(t, err)
	assert.Equal(t, "(1 = 1)", w.SQL)
}

func TestSelect(t *testing.T) {
	sql, args, err := newTranslator().Select("people", peopleSearch(), querytree.Params{"name": "x"})
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT * FROM "people" WHERE (instr("name", ?) > 0 AND 1 = 1 AND 1 = 1 AND (1 = 1 OR 1 = 1)) ORDER BY rowid ASC`,
		sql)
	assert.Equal(t, []any{"x"}, args)

	_, _, err = newTranslator().Select("people; --", peopleSearch(), nil)
	assert.Error(t, err)
}

func TestColumn(t *testing.T) {
	assert.Equal(t, "name", Column(querytree.Property{Name: "Name"}))
	assert.Equal(t, "placed_on", Column(querytree.Property{Name: "PlacedOn"}))
	assert.Equal(t, "address_city", Column(querytree.Property{Owner: "Address", Name: "City"}))
	assert.Equal(t, "billing_address_zip_code", Column(querytree.Property{Owner: "BillingAddress", Name: "ZipCode"}))
}

func TestQuoteIdent(t *testing.T) {
	q, err := QuoteIdent("people_2")
	require.NoError(t, err)
	assert.Equal(t, `"people_2"`, q)

	for _, bad := range []string{"", "2people", `pe"ople`, "a b", "a-b"} {
		_, err := QuoteIdent(bad)
		assert.Error(t, err, bad)
	}
}
