package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/spv-patcher/validator"
)

var disassembleCmd = &cobra.Command{
	Use:   "disassemble [flags] input.spv",
	Short: "print a human-readable disassembly, via spirv-dis if available.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fail("expected exactly one input file")
		}
		bin, err := os.ReadFile(args[0])
		if err != nil {
			fail("reading module: %v", err)
		}

		result, err := validator.Disassemble(context.Background(), bin, validator.DisassemblyOptions{
			RawIDs: GetFlag(cmd, "raw-id"),
		})
		if err != nil {
			fail("disassemble: %v", err)
		}
		if !result.Available {
			fmt.Fprintln(os.Stderr, "note: spirv-dis not found on PATH, using built-in disassembly")
		}
		fmt.Print(result.Text)
	},
}

func init() {
	rootCmd.AddCommand(disassembleCmd)
	disassembleCmd.Flags().Bool("raw-id", false, "keep numeric ids instead of spirv-dis's friendly names")
}
