// Package config handles configuration loading and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds the full configuration for nullus.
type Config struct {
	// DataFile is the task store path.
	DataFile string `toml:"data_file"`

	// LogLevel controls console logging (debug|info|warn|error).
	LogLevel string `toml:"log_level"`
}

// Default values.
const (
	DefaultLogLevel = "info"
	appDir          = "nullus"
	dataFileName    = "tasks.csv"
	configFileName  = "nullus.toml"
)

// Load builds configuration from defaults, then the user config file if
// one exists. Flags are applied by the CLI afterwards. The per-user
// config directory is the only environment consulted.
func Load() (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if path := findUserConfigFile(); path != "" {
		if err := loadConfigFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	cfg.DataFile = expandPath(cfg.DataFile)
	return cfg, nil
}

// setDefaults fills in default values.
func setDefaults(cfg *Config) {
	cfg.LogLevel = DefaultLogLevel
	if dir, err := os.UserConfigDir(); err == nil {
		cfg.DataFile = filepath.Join(dir, appDir, dataFileName)
	}
}

// findUserConfigFile looks for a user-level config file.
// Checks ~/.nullus/nullus.toml first, then falls back to the OS-specific
// config directory.
func findUserConfigFile() string {
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, "."+appDir, configFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	if dir, err := os.UserConfigDir(); err == nil {
		path := filepath.Join(dir, appDir, configFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// loadConfigFile loads TOML config from the given file.
func loadConfigFile(cfg *Config, path string) error {
	_, err := toml.DecodeFile(path, cfg)
	return err
}
