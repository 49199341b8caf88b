package cmd

import (
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Build information
var (
	Version   = "0.3.0"
	BuildDate = "undefined"
	GitCommit = "undefined"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display build, version, and runtime information about LeakHound.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		cyan := color.New(color.FgCyan).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()

		fmt.Fprintln(out, cyan("LeakHound Version Information"))
		fmt.Fprintf(out, "%s: %s\n", cyan("Version"), green(Version))
		fmt.Fprintf(out, "%s: %s\n", cyan("Build Date"), green(BuildDate))
		fmt.Fprintf(out, "%s: %s\n", cyan("Git Commit"), green(GitCommit))
		fmt.Fprintf(out, "%s: %s\n", cyan("Go Version"), green(runtime.Version()))
		fmt.Fprintf(out, "%s: %s/%s\n", cyan("Platform"), green(runtime.GOOS), green(runtime.GOARCH))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
