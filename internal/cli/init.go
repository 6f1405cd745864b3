package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/iguana-project/iguana/internal/config"
	"github.com/iguana-project/iguana/internal/store"
	"github.com/iguana-project/iguana/internal/ui"
)

var initDBPath string

var initCmd = &cobra.Command{
	Use:   "init <name>",
	Short: "Create a new tracker and register it in the config",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		resolvedPath := config.ResolveConfigPath(configPath)
		cfg := &config.Config{}
		if _, err := os.Stat(resolvedPath); err == nil {
			cfg, err = config.LoadFrom(resolvedPath)
			if err != nil {
				return handleError(ErrConfigInvalid, err, "")
			}
		}
		if _, exists := cfg.Trackers[name]; exists {
			return handleErrorMsg(ErrDuplicateName,
				fmt.Sprintf("tracker %q already configured", name), "")
		}

		dbPath := initDBPath
		if dbPath == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return handleError(ErrInternal, err, "")
			}
			dbPath = filepath.Join(home, ".local", "share", "iguana", name+".db")
		}
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return handleError(ErrInternal, err, "")
		}

		// Opening creates the schema.
		db, err := store.Open(dbPath)
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer db.Close()

		if cfg.Trackers == nil {
			cfg.Trackers = make(map[string]string)
		}
		cfg.Trackers[name] = dbPath
		if cfg.DefaultTracker == "" {
			cfg.DefaultTracker = name
		}
		if err := config.SaveTo(resolvedPath, cfg); err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]string{"name": name, "path": dbPath}, nil)
			return nil
		}
		fmt.Println(ui.Successf("created tracker %q at %s", name, dbPath))
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initDBPath, "path", "", "Database path (default ~/.local/share/iguana/<name>.db)")
	rootCmd.AddCommand(initCmd)
}
