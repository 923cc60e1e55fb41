// Package config loads and validates the pkgup configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/qxxt/pkgup/internal/schedule"
)

var (
	ErrInvalidInterval     = errors.New("refresh interval_days must be a positive number of days")
	ErrNoTapsConfigured    = errors.New("no taps configured: refresh.taps must list at least one tap")
	ErrInvalidScheduleTime = errors.New("schedule time must be HH:MM (24h) or H:MMam/pm")
)

// Config represents the application configuration.
type Config struct {
	Refresh  RefreshConfig  `yaml:"refresh"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Upgrade  UpgradeConfig  `yaml:"upgrade"`
}

// RefreshConfig controls index refresh throttling.
type RefreshConfig struct {
	IntervalDays int      `yaml:"interval_days"`
	Taps         []string `yaml:"taps"`
}

// ScheduleConfig controls the daemon's daily upgrade slot.
type ScheduleConfig struct {
	Enabled bool   `yaml:"enabled"`
	Time    string `yaml:"time"` // "07:00" or "7:00am"
}

// UpgradeConfig controls candidate computation and selection.
type UpgradeConfig struct {
	IncludeVC  bool `yaml:"include_vc"`
	Unattended bool `yaml:"unattended"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Refresh: RefreshConfig{
			IntervalDays: 1,
			Taps:         []string{"homebrew/core"},
		},
		Schedule: ScheduleConfig{
			Enabled: false,
			Time:    "07:00",
		},
	}
}

// ConfigPaths returns all possible config file paths in priority order:
// the XDG location first, then the legacy dotfile location.
func ConfigPaths() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	return []string{
		filepath.Join(xdgConfig, "pkgup", "config.yaml"),
		filepath.Join(home, ".pkgup", "config.yaml"),
	}, nil
}

// FindConfigPath returns the first existing config file path, or the XDG
// path when no config file exists yet.
func FindConfigPath() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return paths[0], nil
}

// Load reads configuration from the first available config file.
func Load() (*Config, error) {
	path, err := FindConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads configuration from a specific file path. A missing file
// yields the defaults; a present but invalid file is an error.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes configuration to a specific file path, creating parent
// directories as needed.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Refresh.IntervalDays <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidInterval, c.Refresh.IntervalDays)
	}
	if len(c.Refresh.Taps) == 0 {
		return ErrNoTapsConfigured
	}
	if c.Schedule.Enabled {
		if _, err := schedule.ParseEntry(c.Schedule.Time); err != nil {
			return fmt.Errorf("%w: got %q", ErrInvalidScheduleTime, c.Schedule.Time)
		}
	}
	return nil
}

// Entry parses the configured schedule time. Call Validate first; this
// assumes the time string is well-formed.
func (c *Config) Entry() (schedule.Entry, error) {
	return schedule.ParseEntry(c.Schedule.Time)
}
