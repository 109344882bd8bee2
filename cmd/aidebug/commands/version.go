package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the version number, git commit, build date and Go runtime.

Examples:
  aidebug version
  aidebug version --short
  aidebug version --json`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

// Flags for version command
var (
	versionShort bool
	versionJSON  bool
)

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().BoolVarP(&versionShort, "short", "s", false, "print only version number")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "output as JSON")
}

// VersionInfo holds all version information.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetVersionInfo returns the current version info.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// runVersion implements the version command logic
func runVersion(cmd *cobra.Command, args []string) error {
	vi := GetVersionInfo()
	out := cmd.OutOrStdout()

	if versionShort {
		fmt.Fprintln(out, vi.Version)
		return nil
	}
	if versionJSON {
		return printJSON(out, vi)
	}

	fmt.Fprintf(out, "aidebug version %s\n", vi.Version)
	fmt.Fprintf(out, "  Commit:     %s\n", vi.Commit)
	fmt.Fprintf(out, "  Built:      %s\n", vi.BuildDate)
	fmt.Fprintf(out, "  Go version: %s\n", vi.GoVersion)
	fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", vi.OS, vi.Arch)
	return nil
}
