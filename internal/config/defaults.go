package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const appName = "habitask"

// Dir returns the per-user config directory, e.g. ~/.config/habitask.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, appName)
}

// Path returns the default config file location.
func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	dir := Dir()
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(dir, appName+".db"),
		},
		Log: LogConfig{
			File:  filepath.Join(dir, appName+".log"),
			Level: "info",
		},
		Export: ExportConfig{
			Dir: cwd,
		},
	}
}

const header = `# habitask configuration
#
# Every key can be overridden by an environment variable prefixed with
# HABITASK_, e.g. HABITASK_DATABASE_PATH or HABITASK_LOG_LEVEL.
# Pomodoro lengths, week start and goals are edited in the Settings tab.

`

// WriteDefault writes the default configuration to path, creating parent
// directories as needed.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, append([]byte(header), data...), 0o644)
}
