// Package config loads and persists webtap's host-side settings.
//
// Settings cover the browser surface (headless mode, viewport, navigation
// timeout) and logging. Capture capacities and body truncation limits are
// part of the external contract with the instrumentation script and are
// deliberately not configurable here.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the webtap application configuration.
type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Logging LoggingConfig `yaml:"logging"`
}

// BrowserConfig configures the render surface.
type BrowserConfig struct {
	// Headless controls whether new surfaces run without a visible window
	Headless bool `yaml:"headless"`

	// ViewportWidth and ViewportHeight set the initial viewport size
	ViewportWidth  int `yaml:"viewport_width"`
	ViewportHeight int `yaml:"viewport_height"`

	// NavigationTimeoutMs is the default navigation timeout in milliseconds
	NavigationTimeoutMs float64 `yaml:"navigation_timeout_ms"`
}

// LoggingConfig configures the session log location.
type LoggingConfig struct {
	// Directory overrides the default log directory (~/.webtap/logs)
	Directory string `yaml:"directory,omitempty"`
}

// Default creates a configuration with default values.
func Default() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:            true,
			ViewportWidth:       1280,
			ViewportHeight:      720,
			NavigationTimeoutMs: 30000,
		},
	}
}

// DefaultPath returns the default config file location, ~/.webtap/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".webtap", "config.yaml"), nil
}

// Load reads the configuration at path. A missing file yields defaults, not
// an error; a malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path atomically (temp file + rename),
// creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp config file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		return fmt.Errorf("viewport dimensions must be positive, got %dx%d",
			c.Browser.ViewportWidth, c.Browser.ViewportHeight)
	}
	if c.Browser.NavigationTimeoutMs < 0 {
		return fmt.Errorf("navigation timeout must not be negative, got %v", c.Browser.NavigationTimeoutMs)
	}
	return nil
}
