package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/qtree/internal/compiler"
	"github.com/roach88/qtree/internal/querytree"
)

// DefaultKey is the record field that identifies records when a scenario
// does not name one.
const DefaultKey = "id"

// Scenario defines a set of compile-and-filter cases over fixed records.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Definitions lists query tree documents, relative to the scenario file.
	Definitions []string `yaml:"definitions"`

	// LeafPolicy is "strict" (default) or "permissive".
	LeafPolicy string `yaml:"leaf_policy,omitempty"`

	// Key names the record field used in expectations. Defaults to "id".
	Key string `yaml:"key,omitempty"`

	// SQL also checks every successful case against SQLite.
	SQL bool `yaml:"sql,omitempty"`

	// Records are the entities every case filters.
	Records []map[string]interface{} `yaml:"records"`

	// Cases are evaluated in order.
	Cases []Case `yaml:"cases"`
}

// Case compiles one tree with one parameter set.
type Case struct {
	Name string `yaml:"name"`
	Tree string `yaml:"tree"`

	// Params are the runtime parameters. A null value binds null; range
	// sides use the "name#0" and "name#1" keys.
	Params map[string]interface{} `yaml:"params,omitempty"`

	Expect Expect `yaml:"expect"`
}

// Expect states the outcome of a case: either the matching records or a
// compile error.
type Expect struct {
	// Match lists the keys of the records the predicate keeps, in record
	// order. An empty list means no record matches.
	Match []string `yaml:"match,omitempty"`

	// Error is the expected error kind: config, not_found, binding or
	// resolution.
	Error string `yaml:"error,omitempty"`

	// Code optionally refines a config error, e.g. "root_kind".
	Code string `yaml:"code,omitempty"`
}

// errorKinds maps scenario error names to error kinds.
var errorKinds = map[string]querytree.ErrorKind{
	"config":     querytree.KindConfig,
	"not_found":  querytree.KindNotFound,
	"binding":    querytree.KindBinding,
	"resolution": querytree.KindResolution,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Definition paths are resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML, resolving relative definition paths
// against basePath.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "case:" vs "cases:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve definition paths BEFORE validation
	for i, p := range scenario.Definitions {
		if !filepath.IsAbs(p) && basePath != "" {
			scenario.Definitions[i] = filepath.Join(basePath, p)
		}
	}
	if scenario.Key == "" {
		scenario.Key = DefaultKey
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Definitions) == 0 {
		return fmt.Errorf("definitions list is required and must be non-empty")
	}
	for _, p := range s.Definitions {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("definition file not found: %s", p)
		}
	}
	if _, err := compiler.ParseLeafPolicy(s.LeafPolicy); err != nil {
		return fmt.Errorf("leaf_policy: %w", err)
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Records))
	for i, rec := range s.Records {
		key, ok := rec[s.Key]
		if !ok || key == nil {
			return fmt.Errorf("records[%d]: key field %q is required", i, s.Key)
		}
		k := fmt.Sprint(key)
		if seen[k] {
			return fmt.Errorf("records[%d]: duplicate key %q", i, k)
		}
		seen[k] = true
	}

	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if c.Tree == "" {
			return fmt.Errorf("cases[%d]: tree is required", i)
		}
		if c.Expect.Error != "" {
			if _, ok := errorKinds[strings.ToLower(c.Expect.Error)]; !ok {
				return fmt.Errorf("cases[%d]: unknown error kind %q", i, c.Expect.Error)
			}
			if len(c.Expect.Match) > 0 {
				return fmt.Errorf("cases[%d]: expect has both match and error", i)
			}
			continue
		}
		if c.Expect.Code != "" {
			return fmt.Errorf("cases[%d]: expect.code needs expect.error", i)
		}
		for _, key := range c.Expect.Match {
			if !seen[key] {
				return fmt.Errorf("cases[%d]: expected key %q is not a record", i, key)
			}
		}
	}

	return nil
}

// params converts case parameters to runtime parameters.
func (c Case) params() querytree.Params {
	p := make(querytree.Params, len(c.Params))
	for k, v := range c.Params {
		p[k] = v
	}
	return p
}
