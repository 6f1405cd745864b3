package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/iguana-project/iguana/internal/atomicfile"
)

type persistedConfig struct {
	DefaultTracker *string              `toml:"default_tracker,omitempty"`
	StateFile      *string              `toml:"state_file,omitempty"`
	Trackers       map[string]string    `toml:"trackers,omitempty"`
	User           *string              `toml:"user,omitempty"`
	Search         *persistedSearch     `toml:"search,omitempty"`
	Olea           *persistedOlea       `toml:"olea,omitempty"`
	UI             *persistedUISettings `toml:"ui,omitempty"`
}

type persistedSearch struct {
	HistoryLimit *int `toml:"history_limit,omitempty"`
}

type persistedOlea struct {
	ReplaceAssignees *bool `toml:"replace_assignees,omitempty"`
}

type persistedUISettings struct {
	Accent    *string `toml:"accent,omitempty"`
	CodeTheme *string `toml:"code_theme,omitempty"`
}

func nonEmptyPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// Save writes the global config to the default config path.
func Save(cfg *Config) error {
	return SaveTo(DefaultPath(), cfg)
}

// SaveTo writes the global config to a specific path atomically.
func SaveTo(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config path is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}

	out := persistedConfig{
		DefaultTracker: nonEmptyPtr(cfg.DefaultTracker),
		StateFile:      nonEmptyPtr(cfg.StateFile),
		User:           nonEmptyPtr(cfg.User),
	}
	if len(cfg.Trackers) > 0 {
		out.Trackers = cfg.Trackers
	}
	if cfg.Search.HistoryLimit > 0 {
		limit := cfg.Search.HistoryLimit
		out.Search = &persistedSearch{HistoryLimit: &limit}
	}
	if cfg.Olea.ReplaceAssignees {
		replace := true
		out.Olea = &persistedOlea{ReplaceAssignees: &replace}
	}

	accent := nonEmptyPtr(cfg.UI.Accent)
	codeTheme := nonEmptyPtr(cfg.UI.CodeTheme)
	if accent != nil || codeTheme != nil {
		out.UI = &persistedUISettings{
			Accent:    accent,
			CodeTheme: codeTheme,
		}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(out); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := atomicfile.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}

	return nil
}
