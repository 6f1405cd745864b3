// Package cli implements the command-line interface.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iguana-project/iguana/internal/config"
	"github.com/iguana-project/iguana/internal/ui"
)

var (
	// Global flags
	trackerName   string // Named tracker from config
	dbPathFlag    string // Explicit database path (rare)
	configPath    string
	statePathFlag string
	userFlag      string // Acting username override

	// Resolved values
	resolvedDBPath     string
	resolvedConfigPath string
	resolvedStatePath  string
	cfg                *config.Config
	state              *config.State
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "iguana",
	Short: "Iguana - an issue tracker for the terminal",
	Long: `Iguana tracks issues across projects with kanban columns, sprints,
tags and time logging. Issues are created and edited with one-line olea
expressions, and found with a structured search language that falls back
to full-text matching.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip tracker resolution for commands that don't need a database
		switch cmd.Name() {
		case "init", "tracker", "completion", "help", "version", "docs":
			return nil
		}
		if cmd.Parent() != nil && (cmd.Parent().Name() == "completion" || cmd.Parent().Name() == "tracker") {
			return nil
		}

		var err error
		cfg, resolvedConfigPath, err = loadGlobalConfigWithPath()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		resolvedStatePath = config.ResolveStatePath(statePathFlag, resolvedConfigPath, cfg)
		state, err = config.LoadState(resolvedStatePath)
		if err != nil {
			return fmt.Errorf("failed to load state: %w", err)
		}
		ui.ConfigureTheme(cfg.UI.Accent)
		ui.ConfigureMarkdownCodeTheme(cfg.UI.CodeTheme)

		// Resolve database path: explicit path > named tracker > active state > default
		switch {
		case dbPathFlag != "":
			resolvedDBPath = dbPathFlag
		case trackerName != "":
			resolvedDBPath, err = cfg.GetTrackerPath(trackerName)
			if err != nil {
				return fmt.Errorf("tracker '%s' not found\n\nRun 'iguana tracker list' to see configured trackers", trackerName)
			}
		case state.ActiveTracker != "":
			resolvedDBPath, err = cfg.GetTrackerPath(state.ActiveTracker)
			if err != nil {
				resolvedDBPath, err = cfg.GetTrackerPath("")
				if err != nil {
					return fmt.Errorf("active tracker '%s' not found in config and no default tracker configured\n\nRun 'iguana tracker use <name>' or set default_tracker in config.toml", state.ActiveTracker)
				}
			}
		default:
			resolvedDBPath, err = cfg.GetTrackerPath("")
			if err != nil {
				return fmt.Errorf(`no tracker specified

Either:
  1. Use --tracker <name> (from config)
  2. Use --db /path/to/tracker.db
  3. Run 'iguana tracker use <name>' to set active_tracker in state.toml
  4. Set default_tracker in ~/.config/iguana/config.toml
  5. Run 'iguana init <name>' to create one`)
			}
		}

		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&trackerName, "tracker", "t", "", "Named tracker from config")
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "Explicit path to tracker database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&statePathFlag, "state", "", "Path to state file (overrides state_file in config)")
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "Act as this username (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
}

// getDBPath returns the resolved tracker database path.
func getDBPath() string {
	return resolvedDBPath
}

// getConfig returns the loaded config.
func getConfig() *config.Config {
	if cfg == nil {
		return &config.Config{}
	}
	return cfg
}

// getStatePath returns the resolved global state path.
func getStatePath() string {
	return resolvedStatePath
}

// getState returns the loaded runtime state.
func getState() *config.State {
	if state == nil {
		return &config.State{Version: config.StateVersion}
	}
	return state
}

func loadGlobalConfigWithPath() (*config.Config, string, error) {
	resolvedPath := config.ResolveConfigPath(configPath)

	var loadedCfg *config.Config
	var err error
	if strings.TrimSpace(configPath) != "" {
		loadedCfg, err = config.LoadFrom(configPath)
	} else {
		loadedCfg, err = config.Load()
	}
	if err != nil {
		return nil, "", err
	}
	if loadedCfg == nil {
		loadedCfg = &config.Config{}
	}

	return loadedCfg, resolvedPath, nil
}
