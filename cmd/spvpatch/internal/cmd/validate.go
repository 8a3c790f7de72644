package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gogpu/spv-patcher/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate [flags] input.spv",
	Short: "run spirv-val against a module, if it is on PATH.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fail("expected exactly one input file")
		}
		bin, err := os.ReadFile(args[0])
		if err != nil {
			fail("reading module: %v", err)
		}

		result, err := validator.Run(context.Background(), bin, validator.Options{
			TargetEnv: GetString(cmd, "target-env"),
		})
		if err != nil {
			fail("validate: %v", err)
		}

		printDiagnostics(result.Diagnostics)
		if !result.Passed {
			os.Exit(1)
		}
	},
}

// printDiagnostics writes diagnostics to stdout, preceded by a banner line
// padded to the terminal width when stdout is an interactive TTY and by no
// banner when piped — the same term.IsTerminal gate Consensys-go-corset's terminal
// helper uses to decide whether to bother with layout at all.
func printDiagnostics(diagnostics string) {
	if diagnostics == "" {
		return
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		width, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil {
			width = 80
		}
		banner := "SPIR-V validation diagnostics"
		padding := width - len(banner)
		if padding < 0 {
			padding = 0
		}
		fmt.Println(banner + strings.Repeat("-", padding))
	}
	fmt.Println(diagnostics)
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("target-env", "", "spirv-val --target-env (e.g. vulkan1.2)")
}
