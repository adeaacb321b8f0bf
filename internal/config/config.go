// File: internal/config/config.go
package config

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/codescalpel/api/schemas"
)

// Interface is the read side of the configuration plus the setters the CLI
// uses to apply flag overrides after loading.
type Interface interface {
	Logger() LoggerConfig
	Database() DatabaseConfig
	Scan() ScanConfig
	Scoring() ScoringConfig
	Rules() RulesConfig

	SetScanIgnore(patterns []string)
	SetScanFailOn(severity string)
	SetScoringMode(mode string)
	SetDatabaseEnabled(enabled bool)
}

// Scoring modes.
const (
	ScoringSimple   = "simple"
	ScoringWeighted = "weighted"
)

// Config holds the whole application configuration. Sections are exported so
// viper can decode them, and read through the Interface getters elsewhere.
type Config struct {
	LoggerCfg   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	DatabaseCfg DatabaseConfig `mapstructure:"database" yaml:"database"`
	ScanCfg     ScanConfig     `mapstructure:"scan" yaml:"scan"`
	ScoringCfg  ScoringConfig  `mapstructure:"scoring" yaml:"scoring"`
	RulesCfg    RulesConfig    `mapstructure:"rules" yaml:"rules"`
}

func (c *Config) Logger() LoggerConfig     { return c.LoggerCfg }
func (c *Config) Database() DatabaseConfig { return c.DatabaseCfg }
func (c *Config) Scan() ScanConfig         { return c.ScanCfg }
func (c *Config) Scoring() ScoringConfig   { return c.ScoringCfg }
func (c *Config) Rules() RulesConfig       { return c.RulesCfg }

func (c *Config) SetScanIgnore(patterns []string) { c.ScanCfg.Ignore = patterns }
func (c *Config) SetScanFailOn(severity string)   { c.ScanCfg.FailOn = severity }
func (c *Config) SetScoringMode(mode string)      { c.ScoringCfg.Mode = mode }
func (c *Config) SetDatabaseEnabled(enabled bool) { c.DatabaseCfg.Enabled = enabled }

// LoggerConfig holds the logging settings.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig maps log levels to terminal color names.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// DatabaseConfig controls optional persistence of scan history.
type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	URL     string `mapstructure:"url" yaml:"-"`
}

// ScanConfig bounds what the orchestrator reads and parses.
type ScanConfig struct {
	// MaxFileBytes skips larger files entirely.
	MaxFileBytes int64 `mapstructure:"max_file_bytes" yaml:"max_file_bytes"`
	// MaxParseBytes leaves larger files to the text fallbacks.
	MaxParseBytes   int64    `mapstructure:"max_parse_bytes" yaml:"max_parse_bytes"`
	Ignore          []string `mapstructure:"ignore" yaml:"ignore"`
	DefaultExcludes []string `mapstructure:"default_excludes" yaml:"default_excludes"`
	// FailOn is a severity name, or empty to never fail.
	FailOn string `mapstructure:"fail_on" yaml:"fail_on"`
}

// ScoringConfig selects and tunes the scorer.
type ScoringConfig struct {
	Mode    string `mapstructure:"mode" yaml:"mode"`
	Ceiling int    `mapstructure:"ceiling" yaml:"ceiling"`
	// Penalties maps severity names to the points one finding costs.
	Penalties map[string]int `mapstructure:"penalties" yaml:"penalties"`
	// Weights maps category names to their share of the weighted overall score.
	Weights map[string]float64 `mapstructure:"weights" yaml:"weights"`
	// DuplicateCap limits how many findings of one rule and severity are
	// priced in weighted mode.
	DuplicateCap int               `mapstructure:"duplicate_cap" yaml:"duplicate_cap"`
	Diminishing  DiminishingConfig `mapstructure:"diminishing" yaml:"diminishing"`
}

// DiminishingConfig describes the weighted-mode deduction curve: once a
// category's cumulative deduction passes Thresholds[i], further points are
// multiplied by Factors[i].
type DiminishingConfig struct {
	Thresholds []float64 `mapstructure:"thresholds" yaml:"thresholds"`
	Factors    []float64 `mapstructure:"factors" yaml:"factors"`
}

// RulesConfig selects rules.
type RulesConfig struct {
	Disabled []string `mapstructure:"disabled" yaml:"disabled"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "codescalpel")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "red")

	// -- Scan --
	v.SetDefault("scan.max_file_bytes", 1<<20)
	v.SetDefault("scan.max_parse_bytes", 512<<10)
	v.SetDefault("scan.ignore", []string{})
	v.SetDefault("scan.default_excludes", []string{
		"node_modules", ".git", "dist", "build", ".next", "coverage", "vendor", "out",
	})
	v.SetDefault("scan.fail_on", "")

	// -- Scoring --
	v.SetDefault("scoring.mode", ScoringSimple)
	v.SetDefault("scoring.ceiling", 100)
	v.SetDefault("scoring.penalties", map[string]int{
		string(schemas.SeverityCritical): 25,
		string(schemas.SeverityWarning):  10,
		string(schemas.SeverityInfo):     3,
	})
	v.SetDefault("scoring.weights", map[string]float64{
		string(schemas.CategorySecurity):    0.40,
		string(schemas.CategoryReliability): 0.25,
		string(schemas.CategoryPerformance): 0.20,
		string(schemas.CategoryAIQuality):   0.15,
	})
	v.SetDefault("scoring.duplicate_cap", 3)
	v.SetDefault("scoring.diminishing.thresholds", []float64{30, 60})
	v.SetDefault("scoring.diminishing.factors", []float64{0.5, 0.25})

	// -- Rules --
	v.SetDefault("rules.disabled", []string{})

	// -- Database --
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.url", "")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// The connection string usually carries a password, so it is read from
	// the environment even when no config file mentions it.
	_ = v.BindEnv("database.url", "CODESCALPEL_DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.ScanCfg.Validate(); err != nil {
		return fmt.Errorf("scan configuration invalid: %w", err)
	}
	if err := c.ScoringCfg.Validate(); err != nil {
		return fmt.Errorf("scoring configuration invalid: %w", err)
	}
	if c.DatabaseCfg.Enabled && c.DatabaseCfg.URL == "" {
		return fmt.Errorf("database.url is required when persistence is enabled (set CODESCALPEL_DATABASE_URL)")
	}
	return nil
}

// Validate checks the scan limits and patterns.
func (s *ScanConfig) Validate() error {
	if s.MaxFileBytes <= 0 {
		return fmt.Errorf("max_file_bytes must be a positive integer")
	}
	if s.MaxParseBytes <= 0 {
		return fmt.Errorf("max_parse_bytes must be a positive integer")
	}
	for _, p := range s.Ignore {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("ignore pattern %q is not a valid glob", p)
		}
	}
	if s.FailOn != "" {
		if _, err := schemas.ParseSeverity(s.FailOn); err != nil {
			return fmt.Errorf("fail_on: %w", err)
		}
	}
	return nil
}

// Validate checks the scorer settings. Weighted-only settings are checked
// only in weighted mode.
func (s *ScoringConfig) Validate() error {
	if s.Mode != ScoringSimple && s.Mode != ScoringWeighted {
		return fmt.Errorf("mode must be %q or %q, got %q", ScoringSimple, ScoringWeighted, s.Mode)
	}
	if s.Ceiling <= 0 {
		return fmt.Errorf("ceiling must be a positive integer")
	}
	for _, sev := range schemas.Severities {
		p, ok := s.Penalties[string(sev)]
		if !ok {
			return fmt.Errorf("penalties.%s is required", sev)
		}
		if p < 0 {
			return fmt.Errorf("penalties.%s must not be negative", sev)
		}
	}
	if s.Mode == ScoringSimple {
		return nil
	}

	total := 0.0
	for _, cat := range schemas.Categories {
		w := s.Weights[string(cat)]
		if w < 0 {
			return fmt.Errorf("weights.%s must not be negative", cat)
		}
		total += w
	}
	if total <= 0 {
		return fmt.Errorf("weights must not all be zero")
	}
	if s.DuplicateCap <= 0 {
		return fmt.Errorf("duplicate_cap must be a positive integer")
	}
	d := s.Diminishing
	if len(d.Thresholds) != len(d.Factors) {
		return fmt.Errorf("diminishing thresholds and factors must have the same length")
	}
	for i := range d.Thresholds {
		if i > 0 && d.Thresholds[i] <= d.Thresholds[i-1] {
			return fmt.Errorf("diminishing thresholds must be strictly increasing")
		}
		if d.Factors[i] <= 0 || d.Factors[i] > 1 {
			return fmt.Errorf("diminishing factors must be in (0, 1]")
		}
	}
	return nil
}
