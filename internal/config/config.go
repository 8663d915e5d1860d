package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/mcncl/treediff/internal/diff"
	"github.com/mcncl/treediff/internal/errors"
	"github.com/mcncl/treediff/internal/models"
	"github.com/mcncl/treediff/internal/parser"
	"github.com/mcncl/treediff/internal/render"
)

// DefaultMaxDepth bounds document nesting unless configured otherwise.
const DefaultMaxDepth = 1000

// ConfigNames are the file names FindConfigFile looks for, in order.
var ConfigNames = []string{".treediff.yml", ".treediff.yaml", "treediff.yml", "treediff.yaml"}

// Config represents the complete configuration for treediff
type Config struct {
	Input  InputConfig  `yaml:"input"`
	Diff   DiffConfig   `yaml:"diff"`
	Output OutputConfig `yaml:"output"`
	Dev    DevConfig    `yaml:"dev"`
}

// InputConfig controls how documents are read
type InputConfig struct {
	Format      string `yaml:"format"` // auto, json or yaml
	ResolveRefs bool   `yaml:"resolve_refs"`
	KeyCase     string `yaml:"key_case"` // snake, camel, lower_camel or kebab
	Focus       string `yaml:"focus"`
}

// DiffConfig controls tree building
type DiffConfig struct {
	ArrayMatching    string       `yaml:"array_matching"` // permissive or exclusive
	NormalizeChanged bool         `yaml:"normalize_changed"`
	MaxDepth         int          `yaml:"max_depth"`
	Ignore           []IgnoreRule `yaml:"ignore"`
}

// IgnoreRule drops every node whose path matches Pattern
type IgnoreRule struct {
	Pattern string `yaml:"pattern"`
	Comment string `yaml:"comment,omitempty"`

	// compiled regex (not serialized)
	regex *regexp.Regexp
}

// OutputConfig controls rendering
type OutputConfig struct {
	Format        string `yaml:"format"`
	Color         bool   `yaml:"color"`
	ShowUnchanged bool   `yaml:"show_unchanged"`
	ShowValues    bool   `yaml:"show_values"`
	Indent        int    `yaml:"indent"`
	ValueWidth    int    `yaml:"value_width"`
}

// DevConfig contains development/debug options
type DevConfig struct {
	Debug   bool `yaml:"debug"`
	Verbose bool `yaml:"verbose"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	out := render.DefaultOptions()
	return &Config{
		Input: InputConfig{
			Format: string(models.FormatAuto),
		},
		Diff: DiffConfig{
			ArrayMatching: string(diff.MatchPermissive),
			MaxDepth:      DefaultMaxDepth,
			Ignore:        []IgnoreRule{},
		},
		Output: OutputConfig{
			Format:     string(out.Format),
			ShowValues: out.ShowValues,
			Indent:     out.Indent,
			ValueWidth: out.ValueWidth,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError(fmt.Sprintf("failed to read config file '%s'", path), err)
	}

	// Start with defaults
	cfg := NewConfig()

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigError(fmt.Sprintf("failed to parse config file '%s'", path), err)
	}

	// Compile regex patterns
	if err := cfg.compilePatterns(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}
	return findConfigFile(currentDir)
}

func findConfigFile(currentDir string) string {
	// Search up the directory tree
	for {
		for _, name := range ConfigNames {
			configPath := filepath.Join(currentDir, name)
			if info, err := os.Stat(configPath); err == nil && !info.IsDir() {
				return configPath
			}
		}

		// Move up one directory
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root directory
			break
		}
		currentDir = parentDir
	}

	return ""
}

// compilePatterns compiles all regex patterns in the config
func (c *Config) compilePatterns() error {
	for i := range c.Diff.Ignore {
		rule := &c.Diff.Ignore[i]
		regex, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return errors.NewConfigError(fmt.Sprintf("invalid ignore pattern '%s'", rule.Pattern), err)
		}
		rule.regex = regex
	}
	return nil
}

// MatchesPath checks if this rule matches the given node path
func (r *IgnoreRule) MatchesPath(path string) bool {
	regex := r.compiled()
	return regex != nil && regex.MatchString(path)
}

func (r *IgnoreRule) compiled() *regexp.Regexp {
	if r.regex == nil {
		// Try to compile if not already compiled (fallback)
		regex, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil
		}
		r.regex = regex
	}
	return r.regex
}

// Validate checks that every enumerated setting holds a known value.
func (c *Config) Validate() error {
	switch models.Format(c.Input.Format) {
	case models.FormatAuto, models.FormatJSON, models.FormatYAML:
	default:
		return errors.NewConfigError(
			fmt.Sprintf("input format must be auto, json or yaml, got '%s'", c.Input.Format),
			errors.ErrUnsupportedFormat,
		)
	}
	if !parser.ValidKeyCase(parser.KeyCase(c.Input.KeyCase)) {
		return errors.NewConfigError(
			fmt.Sprintf("key case must be snake, camel, lower_camel or kebab, got '%s'", c.Input.KeyCase),
			nil,
		)
	}
	switch diff.Matching(c.Diff.ArrayMatching) {
	case diff.MatchPermissive, diff.MatchExclusive:
	default:
		return errors.NewConfigError(
			fmt.Sprintf("array matching must be permissive or exclusive, got '%s'", c.Diff.ArrayMatching),
			nil,
		)
	}
	if c.Diff.MaxDepth < 0 {
		return errors.NewConfigError(fmt.Sprintf("max depth cannot be negative, got %d", c.Diff.MaxDepth), nil)
	}
	format, err := render.ParseFormat(c.Output.Format)
	if err != nil {
		return errors.NewConfigError(fmt.Sprintf("output format '%s' is not supported", c.Output.Format), err)
	}
	c.Output.Format = string(format)
	if c.Output.Indent < 0 || c.Output.ValueWidth < 0 {
		return errors.NewConfigError("indent and value width cannot be negative", nil)
	}
	return nil
}

// IgnorePatterns returns the compiled ignore rules.
func (c *Config) IgnorePatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(c.Diff.Ignore))
	for i := range c.Diff.Ignore {
		if regex := c.Diff.Ignore[i].compiled(); regex != nil {
			patterns = append(patterns, regex)
		}
	}
	return patterns
}

// DiffOptions converts the diff section into builder options.
func (c *Config) DiffOptions() []diff.Option {
	return []diff.Option{
		diff.WithArrayMatching(diff.Matching(c.Diff.ArrayMatching)),
		diff.WithNormalizeChanged(c.Diff.NormalizeChanged),
		diff.WithMaxDepth(c.Diff.MaxDepth),
		diff.WithIgnore(c.IgnorePatterns()...),
	}
}

// RenderOptions converts the output section into renderer options.
func (c *Config) RenderOptions() render.Options {
	return render.Options{
		Format:        render.Format(c.Output.Format),
		Color:         c.Output.Color,
		ShowUnchanged: c.Output.ShowUnchanged,
		ShowValues:    c.Output.ShowValues,
		Indent:        c.Output.Indent,
		ValueWidth:    c.Output.ValueWidth,
	}
}

// DocumentFormat returns the configured input format.
func (c *Config) DocumentFormat() models.Format {
	return models.Format(c.Input.Format)
}

// ParseOptions returns the decoder options. The decoder and the builder
// share the depth limit.
func (c *Config) ParseOptions() []parser.Option {
	return []parser.Option{parser.WithMaxDepth(c.Diff.MaxDepth)}
}

// Overrides holds values given on the command line. Empty strings and nil
// pointers leave the configured value alone; Ignore patterns are appended.
type Overrides struct {
	InputFormat   string
	ResolveRefs   *bool
	KeyCase       string
	Focus         string
	ArrayMatching string
	Normalize     *bool
	MaxDepth      *int
	Ignore        []string
	OutputFormat  string
	Color         *bool
	ShowUnchanged *bool
	Debug         *bool
}

// Apply merges overrides into c.
func (c *Config) Apply(o Overrides) {
	if o.InputFormat != "" {
		c.Input.Format = o.InputFormat
	}
	if o.ResolveRefs != nil {
		c.Input.ResolveRefs = *o.ResolveRefs
	}
	if o.KeyCase != "" {
		c.Input.KeyCase = o.KeyCase
	}
	if o.Focus != "" {
		c.Input.Focus = o.Focus
	}
	if o.ArrayMatching != "" {
		c.Diff.ArrayMatching = o.ArrayMatching
	}
	if o.Normalize != nil {
		c.Diff.NormalizeChanged = *o.Normalize
	}
	if o.MaxDepth != nil {
		c.Diff.MaxDepth = *o.MaxDepth
	}
	for _, pattern := range o.Ignore {
		c.Diff.Ignore = append(c.Diff.Ignore, IgnoreRule{Pattern: pattern, Comment: "command line"})
	}
	if o.OutputFormat != "" {
		c.Output.Format = o.OutputFormat
	}
	if o.Color != nil {
		c.Output.Color = *o.Color
	}
	if o.ShowUnchanged != nil {
		c.Output.ShowUnchanged = *o.ShowUnchanged
	}
	if o.Debug != nil {
		c.Dev.Debug = *o.Debug
	}
}

// LoadConfigWithCLI loads config with CLI argument precedence: defaults, then
// the config file when configPath is set, then the overrides.
func LoadConfigWithCLI(configPath string, o Overrides) (*Config, error) {
	// Start with defaults
	cfg := NewConfig()

	// Load config file if provided
	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	cfg.Apply(o)
	if err := cfg.compilePatterns(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
