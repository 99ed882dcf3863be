package querysql

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ettle/strcase"

	"github.com/roach88/qtree/internal/compiler"
	"github.com/roach88/qtree/internal/querytree"
	"github.com/roach88/qtree/internal/value"
)

// alwaysTrue is the rendering of a leaf that does not filter.
const alwaysTrue = "1 = 1"

// Where is a translated filter: SQL text with ? placeholders and the
// arguments for them, in order.
type Where struct {
	SQL  string
	Args []any
}

// Translator turns query trees into SQL using a compiler for binding.
type Translator struct {
	compiler *compiler.Compiler
	columns  map[string]string
}

// Option configures a Translator.
type Option func(*Translator)

// WithColumns maps property paths ("Name", "Address.City") to column names,
// overriding the snake-case default.
func WithColumns(columns map[string]string) Option {
	return func(t *Translator) {
		for k, v := range columns {
			t.columns[k] = v
		}
	}
}

// NewTranslator creates a Translator.
func NewTranslator(c *compiler.Compiler, opts ...Option) *Translator {
	t := &Translator{compiler: c, columns: make(map[string]string)}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Column returns the default column name for a property: the snake case
// of "Owner_Name", or of "Name" when there is no owner.
func Column(prop querytree.Property) string {
	if prop.Owner == "" {
		return strcase.ToSnake(prop.Name)
	}
	return strcase.ToSnake(prop.Owner) + "_" + strcase.ToSnake(prop.Name)
}

// Column returns the column a property maps to under t.
func (t *Translator) Column(prop querytree.Property) string {
	if col, ok := t.columns[prop.String()]; ok {
		return col
	}
	return Column(prop)
}

// Translate converts def under parameters p to a WHERE fragment.
//
// The fragment is always non-empty; a tree with no bound leaves yields a
// tautology such as "(1 = 1 AND 1 = 1)".
func (t *Translator) Translate(def *querytree.Definition, p querytree.Params) (Where, error) {
	root, err := t.compiler.CheckRoot(def)
	if err != nil {
		return Where{}, err
	}

	var w Where
	sql, err := t.combinator(def, querytree.RootPath, root, p, &w.Args)
	if err != nil {
		return Where{}, err
	}
	w.SQL = sql
	return w, nil
}

// Select builds a full query over table filtered by def.
// MANDATORY: includes ORDER BY rowid for deterministic row order.
func (t *Translator) Select(table string, def *querytree.Definition, p querytree.Params) (string, []any, error) {
	quoted, err := QuoteIdent(table)
	if err != nil {
		return "", nil, err
	}
	w, err := t.Translate(def, p)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("SELECT * FROM %s WHERE %s ORDER BY rowid ASC", quoted, w.SQL), w.Args, nil
}

func (t *Translator) combinator(def *querytree.Definition, path string, comb *querytree.Combinator, p querytree.Params, args *[]any) (string, error) {
	if len(comb.Nodes) == 0 {
		return "", querytree.NewConfigError(querytree.CodeStructure, "combinator must have at least one child").
			At(def.Name, path, comb.Pos)
	}

	sep := " AND "
	if comb.Op == querytree.Or {
		sep = " OR "
	}

	parts := make([]string, 0, len(comb.Nodes))
	for i, child := range comb.Nodes {
		childPath := querytree.ChildPath(path, i)

		var (
			sql string
			err error
		)
		if nested, ok := child.(*querytree.Combinator); ok {
			sql, err = t.combinator(def, childPath, nested, p, args)
		} else {
			sql, err = t.leaf(def, childPath, child, p, args)
		}
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}

	return "(" + strings.Join(parts, sep) + ")", nil
}

func (t *Translator) leaf(def *querytree.Definition, path string, n querytree.Node, p querytree.Params, args *[]any) (string, error) {
	b, err := t.compiler.Bind(def, path, n, p)
	if err != nil {
		return "", err
	}
	if b.Skipped {
		return alwaysTrue, nil
	}

	col, err := QuoteIdent(t.Column(b.Property()))
	if err != nil {
		return "", querytree.NewConfigError(querytree.CodeStructure, "%v", err).
			At(def.Name, path, n.Position()).WithParam(b.Param)
	}

	lhs, rhs := operands(col, b.Type.Kind)

	switch n.(type) {
	case *querytree.RangeCondition:
		var parts []string
		if b.Lower != nil {
			parts = append(parts, lhs+" >= "+rhs)
			*args = append(*args, param(b.Lower))
		}
		if b.Upper != nil {
			parts = append(parts, lhs+" <= "+rhs)
			*args = append(*args, param(b.Upper))
		}
		if len(parts) == 1 {
			return parts[0], nil
		}
		return "(" + strings.Join(parts, " AND ") + ")", nil

	case *querytree.MultiCondition:
		parts := make([]string, len(b.Values))
		for i, v := range b.Values {
			parts[i] = comparison(lhs, rhs, b.Operator(), v, args)
		}
		return "(" + strings.Join(parts, " OR ") + ")", nil

	default:
		return comparison(lhs, rhs, b.Operator(), b.Values[0], args), nil
	}
}

// operands returns the two sides of a comparison on col. Dates compare
// through julianday so that date-only text, driver-formatted timestamps and
// zone offsets all order by instant; unparseable text reads as NULL.
func operands(col string, kind value.Kind) (lhs, rhs string) {
	if kind == value.KindDate {
		return "julianday(" + col + ")", "julianday(?)"
	}
	return col, "?"
}

// comparison renders one "lhs OP rhs" and appends its argument.
func comparison(lhs, rhs string, op querytree.Operator, v value.Value, args *[]any) string {
	switch op {
	case querytree.Contains:
		// instr is case-sensitive, unlike LIKE for ASCII.
		*args = append(*args, v.String())
		return "instr(" + lhs + ", " + rhs + ") > 0"
	case querytree.Ne:
		*args = append(*args, param(v))
		return "(" + lhs + " <> " + rhs + " OR " + lhs + " IS NULL)"
	default:
		*args = append(*args, param(v))
		return lhs + " " + op.Symbol() + " " + rhs
	}
}

// param converts a bound value to a database/sql argument.
// Dates bind as UTC text that julianday understands; date-only values drop
// the clock part.
func param(v value.Value) any {
	switch val := v.(type) {
	case value.String:
		return string(val)
	case value.Int:
		return int64(val)
	case value.Bool:
		return bool(val)
	case value.Decimal:
		d := val.Apd()
		if i, err := d.Int64(); err == nil {
			return i
		}
		if f, err := d.Float64(); err == nil {
			return f
		}
		return val.String()
	case value.Date:
		t := val.Time().UTC()
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format(time.DateOnly)
		}
		return t.Format("2006-01-02 15:04:05.999999999")
	default:
		return nil
	}
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// QuoteIdent validates a table or column name and returns it double-quoted.
func QuoteIdent(name string) (string, error) {
	if !identPattern.MatchString(name) {
		return "", fmt.Errorf("invalid SQL identifier %q", name)
	}
	return `"` + name + `"`, nil
}
