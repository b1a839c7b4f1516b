package main

import (
	"os"

	"ripple/internal/config"
	"ripple/internal/logging"
	"ripple/internal/version"

	"github.com/spf13/cobra"
)

var (
	// configRootFlag is the CLI --config-root flag value
	configRootFlag string
)

var rootCmd = &cobra.Command{
	Use:   "ripple",
	Short: "Ripple - API change ripple analyzer",
	Long: `Ripple detects breaking changes between two versions of an HTTP API
description, determines which parts of a consuming codebase are exposed to
them, and produces a single quantified risk score usable as a CI gate.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("Ripple version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configRootFlag, "config-root", "",
		"Directory containing .ripple/config.json (default: current directory)")
}

// loadEffectiveConfig loads the project config, falling back to defaults when
// no config file exists. Precedence for the root: CLI flag > RIPPLE_CONFIG_ROOT
// env var > current directory.
func loadEffectiveConfig() *config.Config {
	root := configRootFlag
	if root == "" {
		root = os.Getenv("RIPPLE_CONFIG_ROOT")
	}
	if root == "" {
		root = "."
	}

	cfg, err := config.LoadConfig(root)
	if err != nil {
		bootstrap := logging.NewLogger(logging.Config{Format: "human", Level: "info"})
		bootstrap.Warn("Failed to load config, using defaults", map[string]interface{}{
			"root":  root,
			"error": err.Error(),
		})
		return config.DefaultConfig()
	}
	return cfg
}

// newLogger builds the command logger. JSON output formats switch logs to
// JSON as well so CI log collectors see one consistent stream.
func newLogger(format string, cfg *config.Config) *logging.Logger {
	logFormat := logging.ParseFormat(cfg.Logging.Format)
	if format == "json" || format == "sarif" {
		logFormat = logging.JSONFormat
	}
	level := cfg.Logging.Level
	if env := os.Getenv("RIPPLE_LOG_LEVEL"); env != "" {
		level = env
	}
	return logging.NewLogger(logging.Config{
		Format: logFormat,
		Level:  logging.ParseLevel(level),
	})
}
