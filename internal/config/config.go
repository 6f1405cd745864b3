// Package config handles global Iguana configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the global Iguana configuration.
type Config struct {
	// DefaultTracker is the name of the default tracker (from Trackers map).
	DefaultTracker string `toml:"default_tracker"`

	// Trackers is a map of tracker names to SQLite database paths.
	Trackers map[string]string `toml:"trackers"`

	// StateFile overrides where mutable runtime state is stored.
	StateFile string `toml:"state_file"`

	// User is the username commands act as (defaults to $USER).
	User string `toml:"user"`

	// Search controls search execution.
	Search SearchConfig `toml:"search"`

	// Olea controls the one-line issue editing language.
	Olea OleaConfig `toml:"olea"`

	// UI controls optional CLI theming preferences.
	UI UIConfig `toml:"ui"`
}

// SearchConfig controls search execution.
type SearchConfig struct {
	// HistoryLimit bounds the per-user non-persistent search history.
	// Zero means the built-in default.
	HistoryLimit int `toml:"history_limit"`
}

// OleaConfig controls the one-line issue editing language.
type OleaConfig struct {
	// ReplaceAssignees makes the first @assignee directive of an
	// expression replace the existing assignee set instead of adding
	// to it.
	ReplaceAssignees bool `toml:"replace_assignees"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an optional accent color for CLI output and markdown rendering.
	// Supported values are ANSI color codes ("0" to "255") or hex colors ("#RRGGBB").
	Accent string `toml:"accent"`

	// CodeTheme sets the Glamour/Chroma theme used for rendered markdown code blocks.
	// Example values: "monokai", "dracula", "github", "nord".
	CodeTheme string `toml:"code_theme"`
}

// GetTrackerPath returns the database path for a named tracker.
// If name is empty, returns the default tracker's path.
func (c *Config) GetTrackerPath(name string) (string, error) {
	if name == "" {
		name = c.DefaultTracker
	}
	if c.Trackers != nil {
		if path, ok := c.Trackers[name]; ok {
			return path, nil
		}
	}
	if name == "" {
		return "", fmt.Errorf("no default tracker configured")
	}
	return "", fmt.Errorf("tracker '%s' not found in config", name)
}

// GetUser returns the acting username, falling back to $USER.
func (c *Config) GetUser() string {
	if c.User != "" {
		return c.User
	}
	return os.Getenv("USER")
}

// Load loads the configuration from the default location.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &Config{}, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &config, nil
}

// DefaultPath returns the default config file path.
// Checks ~/.config/iguana/config.toml first (XDG style),
// then falls back to OS-specific location.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "iguana", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "iguana", "config.toml")
	}

	return filepath.Join(".", "config.toml")
}

// XDGPath returns the XDG-style config path (~/.config/iguana/config.toml).
func XDGPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "iguana", "config.toml"), nil
}

// CreateDefault creates a default config file if it doesn't exist.
func CreateDefault() (string, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil // Already exists
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	defaultConfig := `# Iguana Configuration

# Default tracker name (must exist in [trackers] below)
# default_tracker = "work"

# Named trackers and their SQLite database paths
# [trackers]
# work = "/path/to/work.db"
# personal = "/path/to/personal.db"

# Username commands act as (defaults to $USER)
# user = "alice"

# [search]
# Number of non-persistent searches kept per user (default 10)
# history_limit = 10

# [olea]
# Make the first @assignee of an expression replace existing assignees
# replace_assignees = false

# Optional UI accent color for headers/links in terminal output.
# Supports ANSI color codes (0-255) or hex (#RRGGBB).
# [ui]
# accent = "39"
# code_theme = "monokai"
`

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configPath, nil
}
