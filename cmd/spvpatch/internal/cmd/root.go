package cmd

import (
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is filled in when building via a release process; "go install"
// leaves it blank and version() falls back to build-info.
var Version string

var rootCmd = &cobra.Command{
	Use:   "spvpatch",
	Short: "Runtime SPIR-V shader patcher.",
	Long:  "Apply constant, nonuniform, link-merge, memory-model, and debug-stripping patches to a SPIR-V module.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
	},
}

// Execute runs the root command; each subcommand registers itself with
// rootCmd from its own file's init. Called by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func version() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output file (default: stdout)")
	rootCmd.Version = version()
}
