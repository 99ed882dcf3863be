package definition

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	cueyaml "cuelang.org/go/encoding/yaml"

	"github.com/roach88/qtree/internal/querytree"
)

// Store indexes query tree definitions by name.
//
// A Store is immutable once returned by a loader, so concurrent Lookup calls
// need no locking.
type Store struct {
	defs map[string]*querytree.Definition
}

// Option configures loading.
type Option func(*loadOptions)

type loadOptions struct {
	redefine bool
	logger   *slog.Logger
}

// WithRedefinition lets a later definition replace an earlier one with the
// same name instead of failing the load.
func WithRedefinition() Option {
	return func(o *loadOptions) { o.redefine = true }
}

// WithLogger sets the logger used to report loaded documents.
func WithLogger(l *slog.Logger) Option {
	return func(o *loadOptions) { o.logger = l }
}

func newLoadOptions(opts []Option) *loadOptions {
	o := &loadOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// New builds a Store from already decoded definitions.
func New(defs []*querytree.Definition, opts ...Option) (*Store, error) {
	o := newLoadOptions(opts)
	s := &Store{defs: make(map[string]*querytree.Definition, len(defs))}
	if err := s.add(defs, o); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFile loads a single CUE, JSON or YAML document.
func LoadFile(path string, opts ...Option) (*Store, error) {
	return LoadFiles([]string{path}, opts...)
}

// LoadFiles loads several documents in order. Each file is decoded on its
// own; names must be unique across all of them.
func LoadFiles(paths []string, opts ...Option) (*Store, error) {
	o := newLoadOptions(opts)
	ctx := cuecontext.New()
	s := &Store{defs: make(map[string]*querytree.Definition)}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &querytree.Error{
				Kind: querytree.KindConfig, Code: querytree.CodeDocument,
				Message: "reading document", Err: err, Pos: path,
			}
		}
		defs, err := decodeBytes(ctx, path, data)
		if err != nil {
			return nil, err
		}
		if err := s.add(defs, o); err != nil {
			return nil, err
		}
		o.logger.Debug("loaded query tree document", "path", path, "trees", len(defs))
	}

	return s, nil
}

// LoadBytes decodes a document held in memory. The filename selects the
// format by extension and appears in error positions.
func LoadBytes(filename string, data []byte, opts ...Option) (*Store, error) {
	o := newLoadOptions(opts)
	defs, err := decodeBytes(cuecontext.New(), filename, data)
	if err != nil {
		return nil, err
	}
	s := &Store{defs: make(map[string]*querytree.Definition, len(defs))}
	if err := s.add(defs, o); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadDir loads a directory. All .cue files in it are built as one CUE
// instance, so they may share definitions and constraints; .json, .yaml and
// .yml files are then decoded individually in name order.
func LoadDir(dir string, opts ...Option) (*Store, error) {
	o := newLoadOptions(opts)

	info, err := os.Stat(dir)
	if err != nil {
		return nil, &querytree.Error{
			Kind: querytree.KindConfig, Code: querytree.CodeDocument,
			Message: "accessing definitions directory", Err: err, Pos: dir,
		}
	}
	if !info.IsDir() {
		return nil, querytree.NewConfigError(querytree.CodeDocument, "not a directory: %s", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &querytree.Error{
			Kind: querytree.KindConfig, Code: querytree.CodeDocument,
			Message: "scanning definitions directory", Err: err, Pos: dir,
		}
	}

	var cueFiles, dataFiles []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".cue":
			cueFiles = append(cueFiles, e.Name())
		case ".json", ".yaml", ".yml":
			dataFiles = append(dataFiles, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(dataFiles)

	ctx := cuecontext.New()
	s := &Store{defs: make(map[string]*querytree.Definition)}

	if len(cueFiles) > 0 {
		instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
		if len(instances) == 0 {
			return nil, querytree.NewConfigError(querytree.CodeDocument, "no CUE instances loaded from %s", dir)
		}
		inst := instances[0]
		if inst.Err != nil {
			return nil, formatCUEError(inst.Err)
		}
		defs, err := decodeTrees(ctx.BuildInstance(inst), dir)
		if err != nil {
			return nil, err
		}
		if err := s.add(defs, o); err != nil {
			return nil, err
		}
		o.logger.Debug("loaded CUE instance", "dir", dir, "files", len(cueFiles), "trees", len(defs))
	}

	for _, path := range dataFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &querytree.Error{
				Kind: querytree.KindConfig, Code: querytree.CodeDocument,
				Message: "reading document", Err: err, Pos: path,
			}
		}
		defs, err := decodeBytes(ctx, path, data)
		if err != nil {
			return nil, err
		}
		if err := s.add(defs, o); err != nil {
			return nil, err
		}
		o.logger.Debug("loaded query tree document", "path", path, "trees", len(defs))
	}

	return s, nil
}

// Lookup returns the definition registered under name.
func (s *Store) Lookup(name string) (*querytree.Definition, error) {
	def, ok := s.defs[name]
	if !ok {
		return nil, querytree.NewNotFoundError(name)
	}
	return def, nil
}

// Names returns all tree names in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.defs))
	for name := range s.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of definitions.
func (s *Store) Len() int {
	return len(s.defs)
}

// Definitions returns every definition in name order.
func (s *Store) Definitions() []*querytree.Definition {
	names := s.Names()
	defs := make([]*querytree.Definition, len(names))
	for i, name := range names {
		defs[i] = s.defs[name]
	}
	return defs
}

func (s *Store) add(defs []*querytree.Definition, o *loadOptions) error {
	for _, def := range defs {
		if def == nil || def.Name == "" {
			return querytree.NewConfigError(querytree.CodeStructure, "definition without a name")
		}
		if prev, ok := s.defs[def.Name]; ok {
			if !o.redefine {
				err := querytree.NewConfigError(querytree.CodeDuplicateName,
					"query tree %q already defined in %s", def.Name, prev.Source)
				err.Tree = def.Name
				err.Pos = def.Source
				return err
			}
			o.logger.Warn("query tree redefined", "tree", def.Name, "previous", prev.Source, "source", def.Source)
		}
		s.defs[def.Name] = def
	}
	return nil
}

// decodeBytes compiles one document to a CUE value according to its
// extension and decodes its trees.
func decodeBytes(ctx *cue.Context, filename string, data []byte) ([]*querytree.Definition, error) {
	var v cue.Value
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		f, err := cueyaml.Extract(filename, data)
		if err != nil {
			return nil, formatCUEError(err)
		}
		v = ctx.BuildFile(f)
	case ".cue", ".json", "":
		v = ctx.CompileBytes(data, cue.Filename(filename))
	default:
		return nil, querytree.NewConfigError(querytree.CodeDocument,
			"unsupported document format %q", filepath.Ext(filename))
	}
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return decodeTrees(v, filename)
}
