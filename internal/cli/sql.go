package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/qtree/internal/querysql"
	"github.com/roach88/qtree/internal/store"
)

// SQLResult is the JSON payload of the sql command.
type SQLResult struct {
	SQL  string `json:"sql"`
	Args []any  `json:"args"`
}

// NewSQLCommand creates the sql command.
func NewSQLCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		pf    paramFlags
		table string
	)

	cmd := &cobra.Command{
		Use:   "sql <tree>",
		Short: "Print the SQL filter a query tree translates to",
		Long: `Translate a tree with the given parameters into a parameterized SQL
WHERE clause. With --table, print a full SELECT statement.

Columns default to the snake-cased property path (Address.City becomes
address_city) unless the config file maps them.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(rootOpts, args[0], &pf, table, cmd)
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVarP(&table, "table", "t", "", "table name; prints a SELECT statement")

	return cmd
}

func runSQL(opts *RootOptions, tree string, pf *paramFlags, table string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	def, code, err := opts.lookup(tree)
	if err != nil {
		return fail(formatter, code, err)
	}
	params, code, err := opts.params(pf)
	if err != nil {
		return fail(formatter, code, err)
	}

	tr := opts.translator()
	var result SQLResult
	if table != "" {
		result.SQL, result.Args, err = tr.Select(table, def, params)
	} else {
		var w querysql.Where
		w, err = tr.Translate(def, params)
		result.SQL, result.Args = w.SQL, w.Args
	}
	if err != nil {
		return fail(formatter, "", err)
	}
	if result.Args == nil {
		result.Args = []any{}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "SQL: %s\n", result.SQL)
	if len(result.Args) == 0 {
		fmt.Fprintln(formatter.Writer, "ARGS: (none)")
		return nil
	}
	fmt.Fprintln(formatter.Writer, "ARGS:")
	for i, a := range result.Args {
		fmt.Fprintf(formatter.Writer, "  [%d] %T %v\n", i, a, a)
	}
	return nil
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		pf    paramFlags
		table string
	)

	cmd := &cobra.Command{
		Use:   "query <tree>",
		Short: "Run a query tree against a SQLite table",
		Long: `Translate a tree with the given parameters and print the matching rows
of a table in the configured database, in rowid order.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, args[0], &pf, table, cmd)
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVarP(&table, "table", "t", "", "table to query (default: table from config)")

	return cmd
}

func runQuery(opts *RootOptions, tree string, pf *paramFlags, table string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if table == "" {
		table = opts.cfg.Table
	}
	if table == "" {
		return fail(formatter, ErrCodeInput, errors.New("no table: use --table or set table in qtree.yaml"))
	}
	if opts.cfg.Database == "" {
		return fail(formatter, ErrCodeInput, errors.New("no database: use --database or set database in qtree.yaml"))
	}

	def, code, err := opts.lookup(tree)
	if err != nil {
		return fail(formatter, code, err)
	}
	params, code, err := opts.params(pf)
	if err != nil {
		return fail(formatter, code, err)
	}

	where, err := opts.translator().Translate(def, params)
	if err != nil {
		return fail(formatter, "", err)
	}

	st, err := store.OpenExisting(opts.cfg.Database)
	if err != nil {
		return fail(formatter, ErrCodeDatabase, err)
	}
	defer st.Close()

	ctx := cmd.Context()
	cols, err := st.Columns(ctx, table)
	if err != nil {
		return fail(formatter, ErrCodeDatabase, err)
	}
	formatter.VerboseLog("Table %s has columns: %s", table, strings.Join(cols, ", "))

	records, err := st.Select(ctx, table, where)
	if err != nil {
		return fail(formatter, ErrCodeDatabase, err)
	}
	total, err := st.Count(ctx, table, querysql.Where{})
	if err != nil {
		return fail(formatter, ErrCodeDatabase, err)
	}
	formatter.VerboseLog("Query on %s returned %d of %d row(s)", table, len(records), total)

	return outputRecords(formatter, EvalResult{Tree: tree, Total: total, Records: records})
}

func (o *RootOptions) translator() *querysql.Translator {
	return querysql.NewTranslator(o.compiler(), querysql.WithColumns(o.cfg.ColumnMap()))
}
