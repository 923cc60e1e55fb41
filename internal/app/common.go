package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/qxxt/pkgup/internal/config"
	"github.com/qxxt/pkgup/internal/refresh"
	"github.com/qxxt/pkgup/internal/source"
	"github.com/qxxt/pkgup/internal/store"
	"github.com/qxxt/pkgup/internal/upgrade"
)

// loadConfig reads the config from --config or the default search path.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}

// resolvedConfigPath returns the config file path the daemon should watch.
func resolvedConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.FindConfigPath()
}

// getDBPath returns the database path, using the flag value or default.
func getDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	pkgupDir := filepath.Join(home, ".pkgup")
	if err := os.MkdirAll(pkgupDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create pkgup directory: %w", err)
	}

	return filepath.Join(pkgupDir, "pkgup.db"), nil
}

// openStore opens the history database, creating the schema if needed.
func openStore() (*store.Store, error) {
	path, err := getDBPath()
	if err != nil {
		return nil, err
	}

	st, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := st.CreateSchema(); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create database schema: %w", err)
	}
	return st, nil
}

// newRunner assembles the upgrade pipeline from config and store.
func newRunner(cfg *config.Config, st *store.Store, sel upgrade.Selector, includeVC, forceRefresh bool) *upgrade.Runner {
	return &upgrade.Runner{
		Source:       source.NewBrew(cfg.Refresh.Taps),
		Throttler:    refresh.New(cfg.Refresh.IntervalDays, cfg.Refresh.Taps),
		History:      st,
		Select:       sel,
		IncludeVC:    includeVC,
		ForceRefresh: forceRefresh,
	}
}
