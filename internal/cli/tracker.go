package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/iguana-project/iguana/internal/config"
	"github.com/iguana-project/iguana/internal/ui"
)

var trackerCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Manage configured trackers",
}

var trackerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured trackers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, resolvedPath, err := loadGlobalConfigWithPath()
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}
		statePath := config.ResolveStatePath(statePathFlag, resolvedPath, cfg)
		st, err := config.LoadState(statePath)
		if err != nil {
			return handleError(ErrInternal, err, "")
		}

		names := make([]string, 0, len(cfg.Trackers))
		for name := range cfg.Trackers {
			names = append(names, name)
		}
		sort.Strings(names)

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"trackers": cfg.Trackers,
				"default":  cfg.DefaultTracker,
				"active":   st.ActiveTracker,
			}, &Meta{Count: len(names)})
			return nil
		}

		if len(names) == 0 {
			fmt.Println("No trackers configured. Run 'iguana init <name>' to create one.")
			return nil
		}
		for _, name := range names {
			marker := " "
			if name == st.ActiveTracker || (st.ActiveTracker == "" && name == cfg.DefaultTracker) {
				marker = "*"
			}
			fmt.Printf("%s %s  %s\n", marker, ui.Accent.Render(name), ui.Muted.Render(cfg.Trackers[name]))
		}
		return nil
	},
}

var trackerUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the active tracker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cfg, resolvedPath, err := loadGlobalConfigWithPath()
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}
		if _, err := cfg.GetTrackerPath(name); err != nil {
			return handleErrorMsg(ErrTrackerNotFound,
				fmt.Sprintf("tracker %q not found in config", name),
				"Run 'iguana tracker list' to see configured trackers")
		}

		statePath := config.ResolveStatePath(statePathFlag, resolvedPath, cfg)
		st, err := config.LoadState(statePath)
		if err != nil {
			return handleError(ErrInternal, err, "")
		}
		st.ActiveTracker = name
		st.ActiveProject = ""
		if err := config.SaveState(statePath, st); err != nil {
			return handleError(ErrInternal, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]string{"active": name}, nil)
			return nil
		}
		fmt.Println(ui.Successf("now using tracker %q", name))
		return nil
	},
}

func init() {
	trackerCmd.AddCommand(trackerListCmd)
	trackerCmd.AddCommand(trackerUseCmd)
	rootCmd.AddCommand(trackerCmd)
}
