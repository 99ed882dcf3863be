// Package config loads qtree settings from defaults, a YAML file,
// QTREE_* environment variables and command-line flags.
//
// Precedence (highest to lowest): flags > env vars > config file > defaults.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/roach88/qtree/internal/compiler"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "QTREE_"

// Defaults.
const (
	DefaultLeafPolicy = "strict"
	DefaultLogLevel   = "warn"
)

// configNames are searched in the working directory when no file is given.
var configNames = []string{"qtree.yaml", "qtree.yml"}

// pathKeys hold file paths that are resolved relative to the config file.
var pathKeys = []string{"definitions", "datadict", "database"}

// Config holds resolved settings.
type Config struct {
	// Definitions is a query tree document or a directory of documents.
	Definitions string `koanf:"definitions"`

	// DataDict is an optional data dictionary YAML file.
	DataDict string `koanf:"datadict"`

	// Database is a SQLite database path for the query command.
	Database string `koanf:"database"`

	// Table is the default table for the query command.
	Table string `koanf:"table"`

	// LeafPolicy is "strict" or "permissive".
	LeafPolicy string `koanf:"leaf_policy"`

	// LogLevel is a slog level name: debug, info, warn or error.
	LogLevel string `koanf:"log_level"`

	// Columns overrides property-to-column mapping for SQL translation.
	Columns []ColumnMapping `koanf:"columns"`

	// File is the config file that was read, if any.
	File string `koanf:"-"`
}

// ColumnMapping maps one property path ("Address.City") to a column. It is
// a list entry rather than a map key because koanf splits keys on ".".
type ColumnMapping struct {
	Property string `koanf:"property"`
	Column   string `koanf:"column"`
}

// Load builds a Config. cfgFile may be empty, in which case qtree.yaml or
// qtree.yml in the working directory is used when present. Only flags that
// were explicitly set override lower layers.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"leaf_policy": DefaultLeafPolicy,
		"log_level":   DefaultLogLevel,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(cfgFile)
	fileK := koanf.New(".")
	if used != "" {
		if err := fileK.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
		if err := k.Merge(fileK); err != nil {
			return nil, fmt.Errorf("error merging config file %s: %w", used, err)
		}
	}

	// 3. Environment: QTREE_LEAF_POLICY -> leaf_policy
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if !isConfigKey(key) {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used

	// Paths that still carry the config file's value are relative to it.
	if used != "" {
		base := filepath.Dir(used)
		for _, key := range pathKeys {
			if !fileK.Exists(key) || k.String(key) != fileK.String(key) {
				continue
			}
			cfg.setPath(key, resolvePathRelativeTo(k.String(key), base))
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("leaf_policy: %w", err)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	for i, m := range c.Columns {
		if m.Property == "" || m.Column == "" {
			return fmt.Errorf("columns[%d]: property and column are required", i)
		}
	}
	return nil
}

// ColumnMap returns Columns as a property-to-column map.
func (c *Config) ColumnMap() map[string]string {
	out := make(map[string]string, len(c.Columns))
	for _, m := range c.Columns {
		out[m.Property] = m.Column
	}
	return out
}

// Policy parses LeafPolicy.
func (c *Config) Policy() (compiler.LeafPolicy, error) {
	return compiler.ParseLeafPolicy(c.LeafPolicy)
}

// Level parses LogLevel. An empty level means warn.
func (c *Config) Level() (slog.Level, error) {
	if strings.TrimSpace(c.LogLevel) == "" {
		return slog.LevelWarn, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelWarn, err
	}
	return level, nil
}

func (c *Config) setPath(key, value string) {
	switch key {
	case "definitions":
		c.Definitions = value
	case "datadict":
		c.DataDict = value
	case "database":
		c.Database = value
	}
}

func isConfigKey(key string) bool {
	switch key {
	case "definitions", "datadict", "database", "table", "leaf_policy", "log_level":
		return true
	default:
		return false
	}
}

// findConfigFile finds the config file to use.
// Priority: explicit path > qtree.yaml > qtree.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty, absolute, or ":memory:".
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
