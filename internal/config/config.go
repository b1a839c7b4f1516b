package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the complete Ripple configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Scoring          ScoringConfig `json:"scoring" mapstructure:"scoring"`
	Limits           LimitsConfig  `json:"limits" mapstructure:"limits"`
	IgnoredEndpoints []string      `json:"ignoredEndpoints" mapstructure:"ignoredEndpoints"`
	Scan             ScanConfig    `json:"scan" mapstructure:"scan"`
	Logging          LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ScoringConfig contains the risk scoring constants. The defaults are the
// documented formula; they are configuration, not hard business rules.
type ScoringConfig struct {
	BreakingWeight   float64 `json:"breakingWeight" mapstructure:"breakingWeight"`
	WarningWeight    float64 `json:"warningWeight" mapstructure:"warningWeight"`
	InfoWeight       float64 `json:"infoWeight" mapstructure:"infoWeight"`
	UnusedMultiplier float64 `json:"unusedMultiplier" mapstructure:"unusedMultiplier"`
	PerCallerStep    float64 `json:"perCallerStep" mapstructure:"perCallerStep"`
	CallerCap        float64 `json:"callerCap" mapstructure:"callerCap"`
}

// LimitsConfig contains plan-tier limits
type LimitsConfig struct {
	MaxEndpoints int `json:"maxEndpoints" mapstructure:"maxEndpoints"`
}

// ScanConfig contains heuristic source-scan configuration
type ScanConfig struct {
	IncludeExts      []string `json:"includeExts" mapstructure:"includeExts"`
	ExcludeDirs      []string `json:"excludeDirs" mapstructure:"excludeDirs"`
	MaxFileSizeBytes int64    `json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes"`
	Concurrency      int      `json:"concurrency" mapstructure:"concurrency"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Scoring: ScoringConfig{
			BreakingWeight:   40,
			WarningWeight:    10,
			InfoWeight:       0,
			UnusedMultiplier: 0.3,
			PerCallerStep:    0.1,
			CallerCap:        2.0,
		},
		Limits: LimitsConfig{
			MaxEndpoints: 500,
		},
		IgnoredEndpoints: []string{},
		Scan: ScanConfig{
			IncludeExts: []string{
				".ts", ".tsx", ".js", ".jsx", ".vue",
				".py", ".go", ".rs", ".kt", ".java", ".rb",
			},
			ExcludeDirs: []string{
				".git", "node_modules", "vendor", "dist", "build",
				"__pycache__", ".venv",
			},
			MaxFileSizeBytes: 1000000,
			Concurrency:      8,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from .ripple/config.json under repoRoot
func LoadConfig(repoRoot string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, ".ripple"))

	if err := v.ReadInConfig(); err != nil {
		// If config doesn't exist, return default config
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to .ripple/config.json
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, ".ripple")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Scoring.BreakingWeight < 0 || c.Scoring.WarningWeight < 0 || c.Scoring.InfoWeight < 0 {
		return &ConfigError{Field: "scoring", Message: "severity weights must be non-negative"}
	}
	if c.Scoring.UnusedMultiplier < 0 || c.Scoring.UnusedMultiplier > 1 {
		return &ConfigError{Field: "scoring.unusedMultiplier", Message: "must be in [0,1]"}
	}
	if c.Scoring.CallerCap < 1 {
		return &ConfigError{Field: "scoring.callerCap", Message: "must be at least 1"}
	}
	if c.Limits.MaxEndpoints < 0 {
		return &ConfigError{Field: "limits.maxEndpoints", Message: "must be non-negative"}
	}
	if c.Scan.Concurrency < 0 {
		return &ConfigError{Field: "scan.concurrency", Message: "must be non-negative"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
