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

// StateVersion is the current state file schema version.
const StateVersion = 1

// State holds machine-local mutable selections, kept separate from
// config.toml so the config file can be checked in or shared.
type State struct {
	Version int `toml:"version"`

	// ActiveTracker is the tracker selected with `iguana tracker use`.
	ActiveTracker string `toml:"active_tracker,omitempty"`

	// ActiveProject is the short code commands default to when --project
	// is not given.
	ActiveProject string `toml:"active_project,omitempty"`
}

func (s *State) normalize() {
	if s.Version == 0 {
		s.Version = StateVersion
	}
	s.ActiveTracker = strings.TrimSpace(s.ActiveTracker)
	s.ActiveProject = strings.TrimSpace(s.ActiveProject)
}

// ResolveConfigPath returns the explicit override when set, otherwise the
// default config location.
func ResolveConfigPath(explicitConfigPath string) string {
	if strings.TrimSpace(explicitConfigPath) != "" {
		return explicitConfigPath
	}
	return DefaultPath()
}

// ResolveStatePath picks the state.toml location: the explicit flag wins,
// then cfg.StateFile from config.toml (resolved against the config dir
// when relative), then a sibling state.toml next to config.toml.
func ResolveStatePath(explicitStatePath, configPath string, cfg *Config) string {
	if strings.TrimSpace(explicitStatePath) != "" {
		return explicitStatePath
	}

	configDir := filepath.Dir(ResolveConfigPath(configPath))

	if cfg == nil {
		return filepath.Join(configDir, "state.toml")
	}
	fromConfig := strings.TrimSpace(cfg.StateFile)
	if fromConfig == "" {
		return filepath.Join(configDir, "state.toml")
	}
	// Slash-rooted values count as absolute on every OS.
	if filepath.IsAbs(fromConfig) || strings.HasPrefix(filepath.ToSlash(fromConfig), "/") {
		return filepath.Clean(filepath.FromSlash(fromConfig))
	}
	return filepath.Join(configDir, filepath.FromSlash(fromConfig))
}

// LoadState reads state.toml. A missing file yields a fresh default state
// rather than an error.
func LoadState(path string) (*State, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("state path is required")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &State{Version: StateVersion}, nil
	}

	var state State
	if _, err := toml.DecodeFile(path, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state %s: %w", path, err)
	}
	state.normalize()
	return &state, nil
}

// SaveState writes state.toml atomically, creating parent directories.
func SaveState(path string, state *State) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("state path is required")
	}
	if state == nil {
		state = &State{}
	}

	normalized := *state
	normalized.normalize()

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(normalized); err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := atomicfile.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write state %s: %w", path, err)
	}
	return nil
}
