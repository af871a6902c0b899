package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Dir is the per-project directory holding config and history.
const Dir = ".mftfcheck"

// EnvPrefix prefixes environment overrides, e.g. MFTFCHECK_REPORT_FAILON.
const EnvPrefix = "MFTFCHECK"

// Config represents the complete mftfcheck configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Logging      LoggingConfig      `json:"logging" mapstructure:"logging"`
	Analysis     AnalysisConfig     `json:"analysis" mapstructure:"analysis"`
	Report       ReportConfig       `json:"report" mapstructure:"report"`
	Suppressions SuppressionsConfig `json:"suppressions" mapstructure:"suppressions"`
	History      HistoryConfig      `json:"history" mapstructure:"history"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
	File   string `json:"file,omitempty" mapstructure:"file"`
}

// AnalysisConfig controls which analyzers run and how
type AnalysisConfig struct {
	Parallel bool     `json:"parallel" mapstructure:"parallel"`
	Kinds    []string `json:"kinds" mapstructure:"kinds"`
}

// ReportConfig controls report rendering and the exit status
type ReportConfig struct {
	Format       string `json:"format" mapstructure:"format"`
	FailOn       string `json:"failOn" mapstructure:"failOn"`
	IncludeMinor bool   `json:"includeMinor" mapstructure:"includeMinor"`
	Color        bool   `json:"color" mapstructure:"color"`
}

// SuppressionsConfig points at the suppression list
type SuppressionsConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// HistoryConfig controls the run history store
type HistoryConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Logging: LoggingConfig{
			Format: "human",
			Level:  "warn",
		},
		Analysis: AnalysisConfig{
			Parallel: true,
			Kinds:    []string{},
		},
		Report: ReportConfig{
			Format:       "human",
			FailOn:       "major",
			IncludeMinor: true,
			Color:        true,
		},
		Suppressions: SuppressionsConfig{
			Path: filepath.Join(Dir, "suppress.toml"),
		},
		History: HistoryConfig{
			Enabled: false,
			Path:    filepath.Join(Dir, "history.db"),
		},
	}
}

// LoadConfig loads configuration from <root>/.mftfcheck/config.json, applying
// MFTFCHECK_* environment overrides on top of the defaults
func LoadConfig(root string) (*Config, error) {
	v := viper.New()

	setDefaults(v, DefaultConfig())

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(root, Dir))
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("analysis.parallel", d.Analysis.Parallel)
	v.SetDefault("analysis.kinds", d.Analysis.Kinds)
	v.SetDefault("report.format", d.Report.Format)
	v.SetDefault("report.failOn", d.Report.FailOn)
	v.SetDefault("report.includeMinor", d.Report.IncludeMinor)
	v.SetDefault("report.color", d.Report.Color)
	v.SetDefault("suppressions.path", d.Suppressions.Path)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)
}

// Save writes the configuration to <root>/.mftfcheck/config.json
func (c *Config) Save(root string) error {
	dir := filepath.Join(root, Dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid. knownKinds lists the entity
// kinds analysis.kinds may name.
func (c *Config) Validate(knownKinds []string) error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if !oneOf(c.Logging.Format, "human", "json") {
		return &ConfigError{Field: "logging.format", Message: "must be human or json"}
	}
	if !oneOf(c.Report.Format, "human", "json", "markdown") {
		return &ConfigError{Field: "report.format", Message: "must be human, json or markdown"}
	}
	if !oneOf(strings.ToLower(c.Report.FailOn), "major", "minor", "patch", "never") {
		return &ConfigError{Field: "report.failOn", Message: "must be major, minor, patch or never"}
	}
	for _, k := range c.Analysis.Kinds {
		if !oneOf(k, knownKinds...) {
			return &ConfigError{Field: "analysis.kinds", Message: "unknown entity kind '" + k + "'"}
		}
	}
	if c.History.Enabled && c.History.Path == "" {
		return &ConfigError{Field: "history.path", Message: "required when history is enabled"}
	}
	return nil
}

func oneOf(s string, options ...string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
