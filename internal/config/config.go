// Package config loads roost configuration from ~/.roost/config.yaml.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultAPIAddr is the loopback address the control API binds when no
// socket path is configured.
const DefaultAPIAddr = "127.0.0.1:7536"

// DefaultUpdateFeed is the releases endpoint checked for newer versions.
const DefaultUpdateFeed = "https://api.github.com/repos/benaskins/roost/releases/latest"

const defaultUpdateInterval = 6 * time.Hour

// Config holds persistent configuration loaded from ~/.roost/config.yaml.
type Config struct {
	DataDir        string `yaml:"data_dir"`
	APIAddr        string `yaml:"api_addr"`
	APISocket      string `yaml:"api_socket"`
	UpdateFeed     string `yaml:"update_feed"`
	UpdateInterval string `yaml:"update_interval"` // Go duration string, e.g. "6h"
}

// DefaultPath returns the default config file path: ~/.roost/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".roost", "config.yaml")
}

// Load reads a YAML config file from path. If the file does not exist,
// it returns a Config with defaults and no error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			c.DataDir = filepath.Join(home, ".roost")
		}
	}
	if c.APIAddr == "" && c.APISocket == "" {
		c.APIAddr = DefaultAPIAddr
	}
	if c.UpdateFeed == "" {
		c.UpdateFeed = DefaultUpdateFeed
	}
}

// UpdateCheckEvery returns the configured update check interval, falling
// back to the default for empty or unparseable values.
func (c *Config) UpdateCheckEvery() time.Duration {
	d, err := time.ParseDuration(c.UpdateInterval)
	if err != nil || d <= 0 {
		return defaultUpdateInterval
	}
	return d
}
