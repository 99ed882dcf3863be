package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/qtree/internal/compiler"
	"github.com/roach88/qtree/internal/entity"
)

// EvalResult is the JSON payload of eval and query.
type EvalResult struct {
	Tree    string          `json:"tree"`
	Matched int             `json:"matched"`
	Total   int             `json:"total"`
	Records []entity.Record `json:"records"`
}

// ExplainedLeaf is one leaf of an explain listing.
type ExplainedLeaf struct {
	Path      string `json:"path"`
	Param     string `json:"param,omitempty"`
	Skipped   bool   `json:"skipped"`
	Condition string `json:"condition"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		pf      paramFlags
		input   string
		explain bool
		count   bool
	)

	cmd := &cobra.Command{
		Use:   "eval <tree>",
		Short: "Filter JSON records through a compiled query tree",
		Long: `Compile a tree with the given parameters and print the records it keeps.

Records are read as a JSON array of objects from --input, or from stdin
when --input is "-" or unset. Owner properties are nested objects.
With --explain, print how each leaf was bound instead of filtering.
With --count, print only how many records match.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if explain {
				return runExplain(rootOpts, args[0], &pf, cmd)
			}
			return runEval(rootOpts, args[0], &pf, input, count, cmd)
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVarP(&input, "input", "i", "-", "JSON records file (- for stdin)")
	cmd.Flags().BoolVar(&explain, "explain", false, "print leaf bindings instead of filtering")
	cmd.Flags().BoolVar(&count, "count", false, "print the number of matching records only")

	return cmd
}

func runEval(opts *RootOptions, tree string, pf *paramFlags, input string, count bool, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	def, code, err := opts.lookup(tree)
	if err != nil {
		return fail(formatter, code, err)
	}
	params, code, err := opts.params(pf)
	if err != nil {
		return fail(formatter, code, err)
	}

	pred, err := compiler.Compile[entity.Record](opts.compiler(), def, entity.NewRecordResolver(tree, nil), params)
	if err != nil {
		return fail(formatter, "", err)
	}

	records, err := readRecords(input, cmd.InOrStdin())
	if err != nil {
		return fail(formatter, ErrCodeInput, err)
	}
	formatter.VerboseLog("Read %d record(s)", len(records))

	if count {
		result := EvalResult{Tree: tree, Matched: pred.Count(records), Total: len(records), Records: []entity.Record{}}
		if formatter.Format == "json" {
			return formatter.Success(result)
		}
		fmt.Fprintf(formatter.Writer, "%d of %d record(s) matched\n", result.Matched, result.Total)
		return nil
	}

	return outputRecords(formatter, EvalResult{
		Tree:    tree,
		Total:   len(records),
		Records: pred.Filter(records),
	})
}

func runExplain(opts *RootOptions, tree string, pf *paramFlags, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	def, code, err := opts.lookup(tree)
	if err != nil {
		return fail(formatter, code, err)
	}
	params, code, err := opts.params(pf)
	if err != nil {
		return fail(formatter, code, err)
	}

	bindings, err := opts.compiler().Explain(def, params)
	if err != nil {
		return fail(formatter, "", err)
	}

	leaves := make([]ExplainedLeaf, len(bindings))
	for i, b := range bindings {
		leaves[i] = ExplainedLeaf{Path: b.Path, Param: b.Param, Skipped: b.Skipped, Condition: b.String()}
	}

	if formatter.Format == "json" {
		return formatter.Success(leaves)
	}
	for _, leaf := range leaves {
		fmt.Fprintf(formatter.Writer, "%s\t%s\n", leaf.Path, leaf.Condition)
	}
	return nil
}

// readRecords decodes a JSON array of objects. Numbers keep their textual
// form so integral values compare as integers.
func readRecords(path string, stdin io.Reader) ([]entity.Record, error) {
	r := stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open records: %w", err)
		}
		defer f.Close()
		r = f
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()
	var records []entity.Record
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	return records, nil
}

// outputRecords prints matched records, one JSON object per line in text
// mode, followed by a count.
func outputRecords(formatter *OutputFormatter, result EvalResult) error {
	result.Matched = len(result.Records)
	if result.Records == nil {
		result.Records = []entity.Record{}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	for _, rec := range result.Records {
		line, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		fmt.Fprintln(formatter.Writer, string(line))
	}
	fmt.Fprintf(formatter.Writer, "%d of %d record(s) matched\n", result.Matched, result.Total)
	return nil
}
