// Package cmd provides the CLI commands for rustdoc-relay.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/huhu/rustdoc-relay/internal/config"
)

var (
	configPath string
	logLevel   string
	dataDir    string
)

var rootCmd = &cobra.Command{
	Use:          "rustdoc-relay",
	Short:        "Backend companion for the Rust Search Extension",
	SilenceUsage: true,
	Long: `rustdoc-relay keeps the Rust Search Extension fed with fresh data:
it extracts the nightly standard-library search index from the hosted
docs and relays it to the extension, and builds the minified crates
index from crates.io database dumps.`,
}

// Execute is called by main.go.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return err
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config JSON (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Override data directory for artifacts and the crate index")
}

// loadConfig reads the config file, falling back to built-in defaults
// when none exists, and applies flag overrides.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
		if _, err := os.Stat(path); err != nil {
			cfg := config.Default()
			applyOverrides(cfg)
			return cfg, cfg.Validate()
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg)
	return cfg, cfg.Validate()
}

func applyOverrides(cfg *config.Config) {
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
}
