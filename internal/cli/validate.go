package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/qtree/internal/querytree"
)

// ValidationReport holds validation results for every checked tree.
type ValidationReport struct {
	Valid bool                         `json:"valid"`
	Trees []querytree.ValidationResult `json:"trees"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [tree...]",
		Short: "Check query tree definitions without compiling them",
		Long: `Load the configured definitions and check their structure.

Reports a non-combinator root, empty combinators, unknown data types and
operators that do not apply to a data type as errors. Opaque leaves and
parameters read with conflicting data types are reported as warnings.
With no arguments every loaded tree is checked.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, names []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	store, err := opts.loadDefinitions()
	if err != nil {
		if querytree.KindOf(err) == "" {
			return fail(formatter, ErrCodeInput, err)
		}
		return fail(formatter, "", err)
	}
	formatter.VerboseLog("Loaded %d tree(s) from %s", store.Len(), opts.cfg.Definitions)

	if len(names) == 0 {
		names = store.Names()
	}

	c := opts.compiler()
	report := ValidationReport{Valid: true}
	for _, name := range names {
		def, err := store.Lookup(name)
		if err != nil {
			return fail(formatter, "", err)
		}
		formatter.VerboseLog("Validating tree: %s", name)
		result := c.Validate(def)
		if !result.Valid() {
			report.Valid = false
		}
		report.Trees = append(report.Trees, result)
	}

	if !report.Valid {
		return outputValidationErrors(formatter, report)
	}
	return outputValidateSuccess(formatter, report)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, report ValidationReport) error {
	if formatter.Format == "json" {
		return formatter.Success(report)
	}

	for _, result := range report.Trees {
		fmt.Fprintf(formatter.Writer, "✓ %s\n", result.Tree)
		writeIssues(formatter, result.Issues)
	}
	fmt.Fprintf(formatter.Writer, "✓ %d tree(s) valid\n", len(report.Trees))
	return nil
}

// outputValidationErrors outputs a report with at least one invalid tree.
func outputValidationErrors(formatter *OutputFormatter, report ValidationReport) error {
	first, count := firstError(report)

	if formatter.Format == "json" {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   report,
			Error: &CLIError{
				Code:    ErrCodeInvalid,
				Message: first.String(),
			},
		}); err != nil {
			return err
		}
		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", count))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, result := range report.Trees {
		mark := "✓"
		if !result.Valid() {
			mark = "✗"
		}
		fmt.Fprintf(formatter.Writer, "%s %s\n", mark, result.Tree)
		writeIssues(formatter, result.Issues)
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", count))
}

func writeIssues(formatter *OutputFormatter, issues []querytree.Issue) {
	for _, issue := range issues {
		fmt.Fprintf(formatter.Writer, "  %s\n", issue)
	}
}

// firstError returns the first error-severity issue and the error count.
func firstError(report ValidationReport) (querytree.Issue, int) {
	var (
		first querytree.Issue
		count int
	)
	for _, result := range report.Trees {
		for _, issue := range result.Issues {
			if issue.Severity != querytree.SeverityError {
				continue
			}
			if count == 0 {
				first = issue
			}
			count++
		}
	}
	return first, count
}
