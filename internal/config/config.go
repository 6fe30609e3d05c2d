// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for venture.
//
// Configuration is stored as TOML, with sensible defaults, environment
// variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.venture/config.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/venture-tui/internal/model"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete venture configuration.
type Config struct {
	// General settings
	Version      string `toml:"version"`
	DefaultModel string `toml:"default_model"`
	DefaultMode  string `toml:"default_mode"`

	// Server (planning backend) configuration
	Server ServerConfig `toml:"server"`

	// History configuration
	History HistoryConfig `toml:"history"`

	// Sessions configuration
	Sessions SessionsConfig `toml:"sessions"`

	// UI configuration
	UI UIConfig `toml:"ui"`
}

// ServerConfig contains planning backend configuration.
type ServerConfig struct {
	// URL is the base URL of the planning API
	URL string `toml:"url"`
	// TimeoutSecs is the per-request timeout in seconds.
	// Generation can take minutes, so the default is generous.
	TimeoutSecs int `toml:"timeout_secs"`
	// RequestsPerSecond limits how fast requests are issued (0 = default)
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// HistoryConfig contains exchange history configuration.
type HistoryConfig struct {
	// Enabled controls whether exchanges are recorded locally
	Enabled bool `toml:"enabled"`
	// DatabasePath is the path to the history database (empty = default ~/.venture/history.db)
	DatabasePath string `toml:"database_path"`
}

// SessionsConfig contains local session persistence configuration.
type SessionsConfig struct {
	// Dir is the directory for saved sessions (empty = default ~/.venture/sessions)
	Dir string `toml:"dir"`
	// MaxSessions is the maximum number of sessions kept on disk
	MaxSessions int `toml:"max_sessions"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
	// CompactMode uses a more compact UI layout
	CompactMode bool `toml:"compact_mode"`
	// ShowDashboard shows the module progress dashboard on startup
	ShowDashboard bool `toml:"show_dashboard"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version:      "1.0.0",
		DefaultModel: string(model.DefaultModel),
		DefaultMode:  string(model.ModeEntrepreneur),

		Server: ServerConfig{
			URL:               "http://localhost:3000/api",
			TimeoutSecs:       300,
			RequestsPerSecond: 0,
		},

		History: HistoryConfig{
			Enabled:      true,
			DatabasePath: "",
		},

		Sessions: SessionsConfig{
			Dir:         "",
			MaxSessions: 50,
		},

		UI: UIConfig{
			Theme:         "dark",
			CompactMode:   false,
			ShowDashboard: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the venture configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".venture"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file, falling back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.DefaultModel == "" {
		c.DefaultModel = defaults.DefaultModel
	}
	if c.DefaultMode == "" {
		c.DefaultMode = defaults.DefaultMode
	}
	if c.Server.URL == "" {
		c.Server.URL = defaults.Server.URL
	}
	if c.Server.TimeoutSecs <= 0 {
		c.Server.TimeoutSecs = defaults.Server.TimeoutSecs
	}
	if c.Sessions.MaxSessions <= 0 {
		c.Sessions.MaxSessions = defaults.Sessions.MaxSessions
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// Write header comment
	fmt.Fprintln(file, "# venture configuration file")
	fmt.Fprintln(file, "# Generated by venture - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if _, err := model.ParseMode(c.DefaultMode); err != nil {
		errs = append(errs, ValidationError{
			Field:   "default_mode",
			Message: fmt.Sprintf("invalid mode '%s', must be one of: entrepreneur, consultant", c.DefaultMode),
		})
	}

	if _, err := model.ParseModelID(c.DefaultModel); err != nil {
		errs = append(errs, ValidationError{
			Field:   "default_model",
			Message: fmt.Sprintf("unknown model '%s'", c.DefaultModel),
		})
	}

	if u, err := url.Parse(c.Server.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "server.url",
			Message: fmt.Sprintf("invalid URL '%s'", c.Server.URL),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, ValidationError{
			Field:   "server.url",
			Message: fmt.Sprintf("unsupported scheme '%s', must be http or https", u.Scheme),
		})
	}

	if c.Server.TimeoutSecs < 1 || c.Server.TimeoutSecs > 3600 {
		errs = append(errs, ValidationError{
			Field:   "server.timeout_secs",
			Message: fmt.Sprintf("timeout %d out of range (1-3600)", c.Server.TimeoutSecs),
		})
	}

	if c.Server.RequestsPerSecond < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.requests_per_second",
			Message: "cannot be negative",
		})
	}

	if c.Sessions.MaxSessions < 1 || c.Sessions.MaxSessions > 10000 {
		errs = append(errs, ValidationError{
			Field:   "sessions.max_sessions",
			Message: fmt.Sprintf("max_sessions %d out of range (1-10000)", c.Sessions.MaxSessions),
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - VENTURE_SERVER: overrides server.url
//   - VENTURE_MODEL: overrides default_model
//   - VENTURE_MODE: overrides default_mode
//   - VENTURE_THEME: overrides ui.theme
//   - VENTURE_NO_HISTORY: set to "1" or "true" to disable history recording
func (c *Config) ApplyEnvOverrides() {
	if server := os.Getenv("VENTURE_SERVER"); server != "" {
		c.Server.URL = server
	}
	if m := os.Getenv("VENTURE_MODEL"); m != "" {
		c.DefaultModel = m
	}
	if mode := os.Getenv("VENTURE_MODE"); mode != "" {
		c.DefaultMode = mode
	}
	if theme := os.Getenv("VENTURE_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if v := os.Getenv("VENTURE_NO_HISTORY"); v == "1" || strings.ToLower(v) == "true" {
		c.History.Enabled = false
	}
}

// =============================================================================
// DERIVED PATHS
// =============================================================================

// HistoryPath resolves the history database path, applying the default.
func (c *Config) HistoryPath() (string, error) {
	if c.History.DatabasePath != "" {
		return c.History.DatabasePath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// SessionsDir resolves the sessions directory, applying the default.
func (c *Config) SessionsDir() (string, error) {
	if c.Sessions.Dir != "" {
		return c.Sessions.Dir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sessions"), nil
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			// Log but don't fail - use defaults
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
