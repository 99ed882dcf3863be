package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/qtree/internal/compiler"
	"github.com/roach88/qtree/internal/config"
	"github.com/roach88/qtree/internal/datadict"
	"github.com/roach88/qtree/internal/definition"
	"github.com/roach88/qtree/internal/querytree"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string

	// TraceID generates the id stamped on JSON responses.
	TraceID func() string

	cfg    *config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the qtree CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{TraceID: NewTraceID})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qtree",
		Short: "qtree - declarative query trees",
		Long: `Compile named query tree definitions into filters.

A query tree combines AND/OR nodes over leaf conditions. Each leaf reads a
named runtime parameter; a leaf whose parameter is absent does not filter.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				format := opts.Format
				opts.Format = "text"
				return fail(opts.formatter(cmd), ErrCodeInput,
					fmt.Errorf("invalid format %q: must be one of %v", format, ValidFormats))
			}
			return opts.setup(cmd)
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVar(&opts.ConfigFile, "config", "", "config file (default: qtree.yaml in the working directory)")

	// Config-backed flags; read through config.Load when set.
	pf.StringP("definitions", "d", "", "query tree document or directory")
	pf.String("datadict", "", "data dictionary YAML file")
	pf.String("database", "", "SQLite database path")
	pf.String("leaf-policy", config.DefaultLeafPolicy, "opaque leaf handling (strict|permissive)")
	pf.String("log-level", config.DefaultLogLevel, "log level (debug|info|warn|error)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewEvalCommand(opts))
	cmd.AddCommand(NewSQLCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewDictCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// setup loads configuration and builds the logger once per invocation.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	if o.cfg != nil {
		return nil
	}
	cfg, err := config.Load(o.ConfigFile, cmd.Flags())
	if err != nil {
		return fail(o.formatter(cmd), ErrCodeConfig, err)
	}
	level, err := cfg.Level()
	if err != nil {
		return fail(o.formatter(cmd), ErrCodeConfig, err)
	}
	if o.Verbose && level > slog.LevelDebug {
		level = slog.LevelDebug
	}
	o.cfg = cfg
	o.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	if cfg.File != "" {
		o.logger.Debug("config loaded", "file", cfg.File)
	}
	return nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	f := &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
	if o.TraceID != nil {
		f.TraceID = o.TraceID()
	}
	return f
}

// loadDefinitions opens the configured document or directory.
func (o *RootOptions) loadDefinitions() (*definition.Store, error) {
	path := o.cfg.Definitions
	if path == "" {
		return nil, errors.New("no definitions configured: use --definitions or set definitions in qtree.yaml")
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("definitions not found: %w", err)
	}
	if info.IsDir() {
		return definition.LoadDir(path, definition.WithLogger(o.logger))
	}
	return definition.LoadFile(path, definition.WithLogger(o.logger))
}

// lookup loads definitions and returns the named tree. The returned code
// is the CLI error code to report on failure.
func (o *RootOptions) lookup(name string) (*querytree.Definition, string, error) {
	store, err := o.loadDefinitions()
	if err != nil {
		if querytree.KindOf(err) == "" {
			return nil, ErrCodeInput, err
		}
		return nil, "", err
	}
	def, err := store.Lookup(name)
	if err != nil {
		return nil, "", err
	}
	return def, "", nil
}

func (o *RootOptions) compiler() *compiler.Compiler {
	// Policy was checked by config.Validate.
	policy, _ := o.cfg.Policy()
	return compiler.New(compiler.WithLeafPolicy(policy), compiler.WithLogger(o.logger))
}

// dictionary loads the configured data dictionary, or returns nil when
// none is configured.
func (o *RootOptions) dictionary() (*datadict.Dict, error) {
	if o.cfg.DataDict == "" {
		return nil, nil
	}
	return datadict.Load(o.cfg.DataDict)
}

// paramFlags collects runtime parameters from the command line.
type paramFlags struct {
	params []string
	ranges []string
	nulls  []string
	coded  []string
}

func (p *paramFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&p.params, "param", "p", nil, "parameter as name=value (range sides: name#0=, name#1=)")
	cmd.Flags().StringArrayVar(&p.ranges, "range", nil, "range parameter as name=lower..upper (either side may be empty)")
	cmd.Flags().StringArrayVar(&p.nulls, "null", nil, "parameter bound to null")
	cmd.Flags().StringArrayVar(&p.coded, "coded", nil, "translate a parameter's texts through a dictionary category, as name=Category")
}

// build returns the parameter map. Coded parameters are translated from
// display texts to codes with dict.
func (p *paramFlags) build(dict *datadict.Dict) (querytree.Params, error) {
	params := make(querytree.Params, len(p.params)+len(p.nulls))
	for _, kv := range p.params {
		name, val, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid --param %q: expected name=value", kv)
		}
		params[strings.TrimSpace(name)] = val
	}
	sources := []querytree.Params{params}
	for _, kv := range p.ranges {
		name, bounds, ok := strings.Cut(kv, "=")
		lower, upper, sides := strings.Cut(bounds, "..")
		if !ok || !sides || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid --range %q: expected name=lower..upper", kv)
		}
		sources = append(sources, querytree.RangeParams(strings.TrimSpace(name), strings.TrimSpace(lower), strings.TrimSpace(upper)))
	}
	params = querytree.Merge(sources...)
	for _, name := range p.nulls {
		params[strings.TrimSpace(name)] = nil
	}
	for _, kv := range p.coded {
		name, category, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --coded %q: expected name=Category", kv)
		}
		if dict == nil {
			return nil, errors.New("--coded needs a data dictionary: use --datadict")
		}
		raw, ok := params.Lookup(name)
		if !ok {
			continue
		}
		codes, err := dict.Codes(category, strings.Split(raw, ",")...)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		params[name] = codes
	}
	return params, nil
}

// params builds parameters, loading the dictionary only when needed.
func (o *RootOptions) params(p *paramFlags) (querytree.Params, string, error) {
	var dict *datadict.Dict
	if len(p.coded) > 0 {
		var err error
		if dict, err = o.dictionary(); err != nil {
			return nil, ErrCodeDictionary, err
		}
	}
	params, err := p.build(dict)
	if err != nil {
		return nil, ErrCodeInput, err
	}
	return params, "", nil
}
