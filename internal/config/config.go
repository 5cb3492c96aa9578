package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const defaultConfigPath = "/etc/rustdoc-relay/config.json"

// DefaultDocsURL is the page whose sidebar and search index the relay
// reads when no override is configured.
const DefaultDocsURL = "https://doc.rust-lang.org/nightly/std/index.html"

// Config is the JSON configuration shared by all subcommands.
type Config struct {
	DocsURL     string `json:"docs_url"`
	RelayTarget string `json:"relay_target"`
	DataDir     string `json:"data_dir"`
	DumpDir     string `json:"dump_dir"`
	MaxCrates   int    `json:"max_crates,omitempty"`
}

func DefaultPath() string {
	if path := os.Getenv("RUSTDOC_RELAY_CONFIG_FILE"); path != "" {
		return path
	}
	return defaultConfigPath
}

// Default returns the configuration used when no config file exists;
// flag overrides fill in the rest.
func Default() *Config {
	return &Config{
		DocsURL: DefaultDocsURL,
		DataDir: "/var/lib/rustdoc-relay",
	}
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.DocsURL == "" {
		cfg.DocsURL = DefaultDocsURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DocsURL == "" {
		return errors.New("config docs_url is required")
	}
	if !strings.HasPrefix(c.DocsURL, "http://") && !strings.HasPrefix(c.DocsURL, "https://") {
		return fmt.Errorf("config docs_url must be an http(s) URL, got %q", c.DocsURL)
	}
	if c.DataDir == "" {
		return errors.New("config data_dir is required")
	}
	if c.MaxCrates < 0 {
		return errors.New("config max_crates must not be negative")
	}
	return nil
}

// IndexPath is the sqlite crate index location.
func (c *Config) IndexPath() string {
	return filepath.Join(c.DataDir, "crates.db")
}

// ArtifactDir is where generated artifacts and the relay archive live.
func (c *Config) ArtifactDir() string {
	return c.DataDir
}
