package compiler

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/qtree/internal/querytree"
	"github.com/roach88/qtree/internal/value"
)

// LeafPolicy decides what happens to leaves with no recognized shape.
type LeafPolicy int

const (
	// LeafStrict rejects opaque leaves with a config error.
	LeafStrict LeafPolicy = iota

	// LeafPermissive compiles opaque leaves to true and logs a warning.
	LeafPermissive
)

func (p LeafPolicy) String() string {
	if p == LeafPermissive {
		return "permissive"
	}
	return "strict"
}

// ParseLeafPolicy parses "strict" or "permissive", case-insensitively.
func ParseLeafPolicy(s string) (LeafPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return LeafStrict, nil
	case "permissive":
		return LeafPermissive, nil
	default:
		return LeafStrict, fmt.Errorf("unknown leaf policy %q (want strict or permissive)", s)
	}
}

// Compiler holds the settings shared by every compilation. It is immutable
// after New and safe for concurrent use.
type Compiler struct {
	types  *value.Registry
	policy LeafPolicy
	logger *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithRegistry sets the data-type registry used to parse parameters.
func WithRegistry(r *value.Registry) Option {
	return func(c *Compiler) { c.types = r }
}

// WithLeafPolicy sets the opaque-leaf policy.
func WithLeafPolicy(p LeafPolicy) Option {
	return func(c *Compiler) { c.policy = p }
}

// WithLogger sets the logger for compile diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// New creates a Compiler. Defaults: built-in data types, LeafStrict,
// slog.Default().
func New(opts ...Option) *Compiler {
	c := &Compiler{
		types:  value.NewRegistry(),
		policy: LeafStrict,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.types == nil {
		c.types = value.NewRegistry()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Types returns the data-type registry.
func (c *Compiler) Types() *value.Registry {
	return c.types
}

// Policy returns the opaque-leaf policy.
func (c *Compiler) Policy() LeafPolicy {
	return c.policy
}

// Validate checks def with this compiler's data types. Under LeafStrict an
// opaque leaf is an error, since Compile would reject the tree.
func (c *Compiler) Validate(def *querytree.Definition) querytree.ValidationResult {
	var opts []querytree.ValidateOption
	if c.policy == LeafStrict {
		opts = append(opts, querytree.RejectOpaqueLeaves())
	}
	return querytree.Validate(def, c.types, opts...)
}

// CheckRoot verifies that def has a combinator root and returns it.
func (c *Compiler) CheckRoot(def *querytree.Definition) (*querytree.Combinator, error) {
	if def == nil {
		return nil, querytree.NewConfigError(querytree.CodeStructure, "nil definition")
	}
	root, ok := def.Root.(*querytree.Combinator)
	if !ok {
		pos := ""
		if def.Root != nil {
			pos = def.Root.Position()
		}
		return nil, querytree.NewConfigError(querytree.CodeRootKind, "root must be a combinator").
			At(def.Name, querytree.RootPath, pos)
	}
	return root, nil
}
