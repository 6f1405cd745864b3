package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/iguana-project/iguana/internal/buildinfo"
	"github.com/iguana-project/iguana/internal/ui"
)

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show iguana version and build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := currentVersionInfo()

		if isJSONOutput() {
			outputSuccess(info, nil)
			return nil
		}

		fmt.Printf("iguana %s\n", info.Version)
		tbl := ui.NewTable(2)
		if info.Commit != "" {
			tbl.AddRow(ui.Muted.Render("commit"), info.Commit)
		}
		if info.BuildDate != "" {
			tbl.AddRow(ui.Muted.Render("built"), info.BuildDate)
		}
		tbl.AddRow(ui.Muted.Render("go"), info.GoVersion)
		tbl.AddRow(ui.Muted.Render("platform"), info.Platform)
		fmt.Print(tbl.String())
		return nil
	},
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   buildinfo.Version,
		Commit:    buildinfo.Commit,
		BuildDate: buildinfo.Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok || bi == nil {
		if info.Version == "" {
			info.Version = "devel"
		}
		return info
	}

	if info.Version == "" {
		if v := bi.Main.Version; v != "" && v != "(devel)" {
			info.Version = v
		} else {
			info.Version = "devel"
		}
	}
	if bi.GoVersion != "" {
		info.GoVersion = bi.GoVersion
	}
	if info.Commit == "" {
		if rev := buildSetting(bi, "vcs.revision"); rev != "" {
			info.Commit = rev
			if buildSetting(bi, "vcs.modified") == "true" {
				info.Commit += "-dirty"
			}
		}
	}
	if info.BuildDate == "" {
		info.BuildDate = buildSetting(bi, "vcs.time")
	}
	return info
}

func buildSetting(bi *debug.BuildInfo, key string) string {
	for _, s := range bi.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
