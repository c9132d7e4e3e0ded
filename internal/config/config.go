// Package config loads sizelint configuration from TOML or YAML files,
// merges it over the embedded defaults and applies environment overrides.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/steveyegge/sizelint/internal/diag"
	"github.com/steveyegge/sizelint/internal/glob"
	"github.com/steveyegge/sizelint/internal/rules"
	"github.com/steveyegge/sizelint/internal/size"
)

//go:embed default.toml
var defaultTOML string

// FileNames are searched, in order, in each directory from the start
// directory up to the filesystem root.
var FileNames = []string{"sizelint.toml", ".sizelint.toml", "sizelint.yaml", ".sizelint.yaml"}

// DefaultRuleName is the built-in catch-all rule.
const DefaultRuleName = "default"

// defaultRulePriority applies to configured rules that omit a priority.
const defaultRulePriority = 100

// Config is the on-disk configuration. Pointer fields distinguish "unset"
// from the zero value so that merging over defaults works.
type Config struct {
	// MaxFileSize triggers an error; WarnFileSize a warning.
	MaxFileSize  string `toml:"max_file_size,omitempty" yaml:"max_file_size,omitempty"`
	WarnFileSize string `toml:"warn_file_size,omitempty" yaml:"warn_file_size,omitempty"`

	// Excludes are never checked, live or in history.
	Excludes []string `toml:"excludes,omitempty" yaml:"excludes,omitempty"`

	CheckStaged      *bool `toml:"check_staged,omitempty" yaml:"check_staged,omitempty"`
	CheckWorkingTree *bool `toml:"check_working_tree,omitempty" yaml:"check_working_tree,omitempty"`

	// Git is a default revision range used when --git is not given.
	Git string `toml:"git,omitempty" yaml:"git,omitempty"`

	// History enables mining of blobs in the git range. Default true.
	History *bool `toml:"history,omitempty" yaml:"history,omitempty"`

	// RespectGitignore filters ignored files during discovery. Default true.
	RespectGitignore *bool `toml:"respect_gitignore,omitempty" yaml:"respect_gitignore,omitempty"`

	FailOnWarn *bool `toml:"fail_on_warn,omitempty" yaml:"fail_on_warn,omitempty"`

	Rules map[string]RuleConfig `toml:"rules,omitempty" yaml:"rules,omitempty"`
}

// RuleConfig is one [rules.<name>] table.
type RuleConfig struct {
	Enabled      *bool    `toml:"enabled,omitempty" yaml:"enabled,omitempty"`
	Description  string   `toml:"description,omitempty" yaml:"description,omitempty"`
	Priority     *int     `toml:"priority,omitempty" yaml:"priority,omitempty"`
	MaxSize      string   `toml:"max_size,omitempty" yaml:"max_size,omitempty"`
	WarnSize     string   `toml:"warn_size,omitempty" yaml:"warn_size,omitempty"`
	Includes     []string `toml:"includes,omitempty" yaml:"includes,omitempty"`
	Excludes     []string `toml:"excludes,omitempty" yaml:"excludes,omitempty"`
	WarnOnMatch  bool     `toml:"warn_on_match,omitempty" yaml:"warn_on_match,omitempty"`
	ErrorOnMatch bool     `toml:"error_on_match,omitempty" yaml:"error_on_match,omitempty"`
}

// DefaultTOML returns the embedded default configuration file.
func DefaultTOML() string {
	return defaultTOML
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := decodeTOML([]byte(defaultTOML))
	if err != nil {
		panic(fmt.Sprintf("embedded default config is invalid: %v", err))
	}
	return cfg
}

// Load reads a single configuration file without merging defaults.
// Files ending in .yaml or .yml are YAML, everything else is TOML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, diag.Wrap(err, diag.CodeConfigNotFound, "Configuration file not found: %s", path)
		}
		return nil, diag.Wrap(err, diag.CodeConfigRead, "Failed to read configuration file %s", path)
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err = decodeYAML(data)
	default:
		cfg, err = decodeTOML(data)
	}
	if err != nil {
		return nil, diag.Wrap(err, diag.CodeConfigParse, "Failed to parse configuration file %s", path)
	}
	return cfg, nil
}

// LoadWithDefaults reads path and merges it over the defaults.
func LoadWithDefaults(path string) (*Config, error) {
	user, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	cfg.Merge(user)
	return cfg, nil
}

// Find looks for a configuration file in dir and each of its parents.
func Find(dir string) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Resolve picks the configuration for a run. An explicit path is loaded
// as-is. Otherwise the nearest file above startDir is merged over the
// defaults, or the defaults are used alone. The returned path is "" when no
// file was read.
func Resolve(explicit, startDir string) (*Config, string, error) {
	if explicit != "" {
		cfg, err := Load(explicit)
		return cfg, explicit, err
	}
	if path, ok := Find(startDir); ok {
		cfg, err := LoadWithDefaults(path)
		return cfg, path, err
	}
	return Default(), "", nil
}

func decodeTOML(data []byte) (*Config, error) {
	var cfg Config
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("line %d, column %d: %w", row, col, err)
		}
		return nil, err
	}
	return &cfg, nil
}

func decodeYAML(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &cfg, nil
}

// Merge overlays every field set in other onto c. Rules are replaced
// wholesale by name.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.MaxFileSize != "" {
		c.MaxFileSize = other.MaxFileSize
	}
	if other.WarnFileSize != "" {
		c.WarnFileSize = other.WarnFileSize
	}
	if len(other.Excludes) > 0 {
		c.Excludes = append([]string(nil), other.Excludes...)
	}
	if other.Git != "" {
		c.Git = other.Git
	}
	mergeBool(&c.CheckStaged, other.CheckStaged)
	mergeBool(&c.CheckWorkingTree, other.CheckWorkingTree)
	mergeBool(&c.History, other.History)
	mergeBool(&c.RespectGitignore, other.RespectGitignore)
	mergeBool(&c.FailOnWarn, other.FailOnWarn)

	if len(other.Rules) > 0 && c.Rules == nil {
		c.Rules = make(map[string]RuleConfig, len(other.Rules))
	}
	for name, rule := range other.Rules {
		c.Rules[name] = rule
	}
}

func mergeBool(dst **bool, src *bool) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// StagedOnly reports whether only staged files are checked.
func (c *Config) StagedOnly() bool { return boolOr(c.CheckStaged, false) }

// WorkingTreeOnly reports whether only unstaged modifications are checked.
func (c *Config) WorkingTreeOnly() bool { return boolOr(c.CheckWorkingTree, false) }

// HistoryEnabled reports whether git ranges are mined for past blobs.
func (c *Config) HistoryEnabled() bool { return boolOr(c.History, true) }

// GitignoreRespected reports whether ignored files are skipped.
func (c *Config) GitignoreRespected() bool { return boolOr(c.RespectGitignore, true) }

// FailOnWarnings reports whether warnings make the check fail.
func (c *Config) FailOnWarnings() bool { return boolOr(c.FailOnWarn, false) }

// RuleSpecs returns the built-in default rule followed by the configured
// rules in name order. Rules without thresholds inherit the global ones.
// A configured rule named "default" replaces the built-in rule but keeps
// its unset priority, so every other rule still outranks it.
func (c *Config) RuleSpecs() []rules.Spec {
	specs := []rules.Spec{{
		Name:        DefaultRuleName,
		Enabled:     true,
		Description: "Default file size check",
		MaxSize:     c.MaxFileSize,
		WarnSize:    c.WarnFileSize,
	}}

	names := make([]string, 0, len(c.Rules))
	for name := range c.Rules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		spec := c.Rules[name].spec(name, c)
		if name == DefaultRuleName {
			spec.Priority = nil
			specs[0] = spec
			continue
		}
		specs = append(specs, spec)
	}
	return specs
}

func (r RuleConfig) spec(name string, c *Config) rules.Spec {
	priority := defaultRulePriority
	if r.Priority != nil {
		priority = *r.Priority
	}
	spec := rules.Spec{
		Name:         name,
		Enabled:      boolOr(r.Enabled, true),
		Description:  r.Description,
		Priority:     &priority,
		MaxSize:      r.MaxSize,
		WarnSize:     r.WarnSize,
		Includes:     append([]string(nil), r.Includes...),
		Excludes:     append([]string(nil), r.Excludes...),
		WarnOnMatch:  r.WarnOnMatch,
		ErrorOnMatch: r.ErrorOnMatch,
	}
	if spec.MaxSize == "" {
		spec.MaxSize = c.MaxFileSize
	}
	if spec.WarnSize == "" {
		spec.WarnSize = c.WarnFileSize
	}
	return spec
}

// Validate parses every size and compiles every pattern so that mistakes
// surface before any file is checked.
func (c *Config) Validate() error {
	for field, value := range map[string]string{
		"max_file_size":  c.MaxFileSize,
		"warn_file_size": c.WarnFileSize,
	} {
		if value == "" {
			continue
		}
		if _, err := size.Parse(value); err != nil {
			return diag.Wrap(err, diag.CodeInvalidSizeFormat, "Invalid configuration: %s = %q", field, value)
		}
	}
	if _, err := glob.Compile(c.Excludes); err != nil {
		return fmt.Errorf("excludes: %w", err)
	}
	for _, spec := range c.RuleSpecs() {
		if _, err := rules.NewRule(spec); err != nil {
			return err
		}
	}
	return nil
}

// String renders the configuration as TOML.
func (c *Config) String() string {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return string(data)
}
