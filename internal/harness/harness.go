package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/qtree/internal/compiler"
	"github.com/roach88/qtree/internal/definition"
	"github.com/roach88/qtree/internal/entity"
	"github.com/roach88/qtree/internal/querysql"
	"github.com/roach88/qtree/internal/querytree"
	"github.com/roach88/qtree/internal/store"
)

// sqlTable is the in-memory table scenario records are copied into.
const sqlTable = "records"

// Option configures Run.
type Option func(*Harness)

// WithLogger sets the logger passed to the loader and compiler.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// Harness is the scenario execution engine.
type Harness struct {
	scenario   *Scenario
	defs       *definition.Store
	compiler   *compiler.Compiler
	translator *querysql.Translator
	records    []entity.Record
	db         *store.Store
	logger     *slog.Logger
}

// Run executes a scenario and returns the result.
//
// An error is returned only when the scenario cannot run at all, e.g. a
// definition document fails to load. Case failures are reported in the
// Result.
//
// Execution flow:
// 1. Load the definition documents
// 2. Copy the records into an in-memory SQLite table (when sql is set)
// 3. Compile, filter and check each case in order
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		scenario: scenario,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs by default
	}
	for _, opt := range opts {
		opt(h)
	}

	defs, err := definition.LoadFiles(scenario.Definitions, definition.WithLogger(h.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to load definitions: %w", err)
	}
	h.defs = defs

	// Policy was checked when the scenario was parsed.
	policy, _ := compiler.ParseLeafPolicy(scenario.LeafPolicy)
	h.compiler = compiler.New(compiler.WithLeafPolicy(policy), compiler.WithLogger(h.logger))
	h.translator = querysql.NewTranslator(h.compiler)

	h.records = make([]entity.Record, len(scenario.Records))
	for i, rec := range scenario.Records {
		h.records[i] = entity.Record(rec)
	}

	if scenario.SQL {
		db, err := store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer db.Close()
		if err := seed(ctx, db, h.records); err != nil {
			return nil, fmt.Errorf("failed to seed records: %w", err)
		}
		h.db = db
	}

	result := NewResult(scenario.Name)
	for _, c := range scenario.Cases {
		result.AddCase(h.runCase(ctx, c))
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"cases", len(result.Cases),
		"failed", result.Failures(),
	)
	return result, nil
}

func (h *Harness) runCase(ctx context.Context, c Case) CaseResult {
	cr := CaseResult{Name: c.Name, Tree: c.Tree, Pass: true, Matched: []string{}}
	params := c.params()

	pred, err := compiler.CompileNamed[entity.Record](h.compiler, h.defs, c.Tree,
		entity.NewRecordResolver(c.Tree, nil), params)
	if err != nil {
		cr.Error = err.Error()
	}

	if c.Expect.Error != "" {
		checkError(&cr, c.Expect, err)
		return cr
	}
	if err != nil {
		cr.addError("unexpected error: %v", err)
		return cr
	}

	for _, rec := range pred.Filter(h.records) {
		cr.Matched = append(cr.Matched, fmt.Sprint(rec[h.scenario.Key]))
	}
	want := c.Expect.Match
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(cr.Matched, want) {
		cr.addError("matched %v, want %v", cr.Matched, want)
	}

	if h.db != nil {
		h.checkSQL(ctx, &cr, c, params)
	}
	return cr
}

// checkError compares a compile error with the expected kind and code.
func checkError(cr *CaseResult, want Expect, err error) {
	if err == nil {
		cr.addError("expected %s error, compiled successfully", want.Error)
		return
	}
	kind := errorKinds[strings.ToLower(want.Error)]
	if got := querytree.KindOf(err); got != kind {
		cr.addError("error kind %s, want %s", got, kind)
		return
	}
	var qe *querytree.Error
	if want.Code != "" && errors.As(err, &qe) && qe.Code != want.Code {
		cr.addError("error code %q, want %q", qe.Code, want.Code)
	}
}

// checkSQL runs the translated filter and compares its rows with the
// in-memory matches.
func (h *Harness) checkSQL(ctx context.Context, cr *CaseResult, c Case, params querytree.Params) {
	def, err := h.defs.Lookup(c.Tree)
	if err != nil {
		cr.addError("sql: %v", err)
		return
	}
	where, err := h.translator.Translate(def, params)
	if err != nil {
		cr.addError("sql: translate: %v", err)
		return
	}
	rows, err := h.db.Select(ctx, sqlTable, where)
	if err != nil {
		cr.addError("sql: %v", err)
		return
	}

	keyCol := querysql.Column(querytree.Property{Name: h.scenario.Key})
	cr.SQLMatched = []string{}
	for _, row := range rows {
		cr.SQLMatched = append(cr.SQLMatched, fmt.Sprint(row[keyCol]))
	}
	if !slices.Equal(cr.SQLMatched, cr.Matched) {
		cr.addError("sql matched %v, predicate matched %v (%s)", cr.SQLMatched, cr.Matched, where.SQL)
	}
}

// seed creates the records table with one column per flattened property
// and inserts every record in order.
func seed(ctx context.Context, db *store.Store, records []entity.Record) error {
	flat := make([]entity.Record, len(records))
	columns := make(map[string]bool)
	for i, rec := range records {
		flat[i] = flatten(rec)
		for col := range flat[i] {
			columns[col] = true
		}
	}

	names := make([]string, 0, len(columns))
	for col := range columns {
		names = append(names, col)
	}
	sort.Strings(names)
	if len(names) == 0 {
		names = append(names, querysql.Column(querytree.Property{Name: DefaultKey}))
	}

	quoted := make([]string, len(names))
	for i, col := range names {
		q, err := querysql.QuoteIdent(col)
		if err != nil {
			return err
		}
		quoted[i] = q
	}

	// Untyped columns keep values as inserted, like the records themselves.
	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", sqlTable, strings.Join(quoted, ", "))
	if _, err := db.DB().ExecContext(ctx, ddl); err != nil {
		return err
	}
	for _, rec := range flat {
		if len(rec) == 0 {
			continue
		}
		if err := db.Insert(ctx, sqlTable, rec); err != nil {
			return err
		}
	}
	return nil
}

// flatten maps a record to column values, turning owner objects into
// owner_property columns.
func flatten(rec entity.Record) entity.Record {
	out := make(entity.Record, len(rec))
	for k, v := range rec {
		if nested, ok := v.(map[string]interface{}); ok {
			for nk, nv := range nested {
				out[querysql.Column(querytree.Property{Owner: k, Name: nk})] = nv
			}
			continue
		}
		out[querysql.Column(querytree.Property{Name: k})] = v
	}
	return out
}
