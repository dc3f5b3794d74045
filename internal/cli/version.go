package cli

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set by ldflags at build time:
//
//	go build -ldflags "-X github.com/ppiankov/labelsel/internal/cli.version=v0.3.0 -X github.com/ppiankov/labelsel/internal/cli.commit=$(git rev-parse --short HEAD)"
var (
	version = "dev"
	commit  = ""
)

var versionShort bool

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print only the version")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := buildInfo()
		if versionShort {
			fmt.Fprintln(cmd.OutOrStdout(), info.Version)
			return nil
		}
		out, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

type versionInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	GoVersion string `json:"go_version"`
}

// buildInfo prefers ldflags values and falls back to the module version and
// VCS revision embedded by `go install`.
func buildInfo() versionInfo {
	info := versionInfo{
		Name:      "labelsel",
		Version:   version,
		Commit:    commit,
		GoVersion: runtime.Version(),
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	if info.Commit == "" {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				info.Commit = s.Value
				if len(info.Commit) > 12 {
					info.Commit = info.Commit[:12]
				}
			}
		}
	}
	return info
}
