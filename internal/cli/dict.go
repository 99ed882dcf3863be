package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/qtree/internal/datadict"
)

// NewDictCommand creates the dict command.
func NewDictCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dict [category [code...]]",
		Short: "List data dictionary categories or the items of one category",
		Long: `Show the configured data dictionary.

Without arguments, list the category names. With a category, list its
items as code and display text. With codes, print the text of each.
Texts can be passed to eval, sql and query through --coded name=Category.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDict(rootOpts, args, cmd)
		},
	}
}

func runDict(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	dict, err := opts.dictionary()
	if err != nil {
		return fail(formatter, ErrCodeDictionary, err)
	}
	if dict == nil {
		return fail(formatter, ErrCodeInput, errors.New("no data dictionary: use --datadict or set datadict in qtree.yaml"))
	}

	if len(args) == 0 {
		categories := dict.Categories()
		if formatter.Format == "json" {
			return formatter.Success(categories)
		}
		for _, c := range categories {
			fmt.Fprintln(formatter.Writer, c)
		}
		return nil
	}

	if len(args) > 1 {
		return lookupCodes(formatter, dict, args[0], args[1:])
	}

	items := dict.Items(args[0])
	if len(items) == 0 {
		return fail(formatter, ErrCodeDictionary, fmt.Errorf("unknown category %q", args[0]))
	}
	if formatter.Format == "json" {
		return formatter.Success(map[string][]datadict.Item{args[0]: items})
	}
	for _, item := range items {
		fmt.Fprintf(formatter.Writer, "%d\t%s\n", item.Code, item.Text)
	}
	return nil
}

// lookupCodes prints the display text of each code in category.
func lookupCodes(formatter *OutputFormatter, dict *datadict.Dict, category string, codes []string) error {
	items := make([]datadict.Item, 0, len(codes))
	for _, raw := range codes {
		code, err := strconv.Atoi(raw)
		if err != nil {
			return fail(formatter, ErrCodeInput, fmt.Errorf("invalid code %q: %w", raw, err))
		}
		text, ok := dict.Text(category, code)
		if !ok {
			return fail(formatter, ErrCodeDictionary, fmt.Errorf("category %q has no code %d", category, code))
		}
		items = append(items, datadict.Item{Text: text, Code: code})
	}
	if formatter.Format == "json" {
		return formatter.Success(map[string][]datadict.Item{category: items})
	}
	for _, item := range items {
		fmt.Fprintf(formatter.Writer, "%d\t%s\n", item.Code, item.Text)
	}
	return nil
}
