package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/qtree/internal/querytree"
)

// TreeSummary describes one loaded tree.
type TreeSummary struct {
	Name   string   `json:"name"`
	Params []string `json:"params"`
	Source string   `json:"source,omitempty"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var types bool
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List loaded query trees and the parameters they read",
		Long:          "List loaded query trees and the parameters they read.\nWith --types, list the data type names a leaf may declare instead.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, types, cmd)
		},
	}
	cmd.Flags().BoolVar(&types, "types", false, "list data type names")
	return cmd
}

func runList(opts *RootOptions, types bool, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if types {
		names := opts.compiler().Types().Names()
		if formatter.Format == "json" {
			return formatter.Success(names)
		}
		for _, name := range names {
			fmt.Fprintln(formatter.Writer, name)
		}
		return nil
	}

	store, err := opts.loadDefinitions()
	if err != nil {
		if querytree.KindOf(err) == "" {
			return fail(formatter, ErrCodeInput, err)
		}
		return fail(formatter, "", err)
	}

	summaries := make([]TreeSummary, 0, store.Len())
	for _, def := range store.Definitions() {
		summaries = append(summaries, TreeSummary{
			Name:   def.Name,
			Params: querytree.ParamNames(def),
			Source: def.Source,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(summaries)
	}
	for _, s := range summaries {
		fmt.Fprintf(formatter.Writer, "%s\t%s\n", s.Name, strings.Join(s.Params, ", "))
	}
	return nil
}
