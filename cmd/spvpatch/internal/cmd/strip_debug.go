package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gogpu/spv-patcher/patch"
)

var stripDebugCmd = &cobra.Command{
	Use:   "strip-debug [flags] input.spv",
	Short: "remove names, OpLine/OpNoLine markers, and/or OpSource strings.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fail("expected exactly one input file")
		}
		m, err := readModule(args[0])
		if err != nil {
			fail("reading module: %v", err)
		}

		result, err := patch.NewPatcher(m).Apply(patch.StripDebug{
			StripOpLine:   GetFlag(cmd, "lines"),
			StripOpSource: GetFlag(cmd, "source"),
		})
		if err != nil {
			fail("strip-debug: %v", err)
		}

		bin, err := result.AssembleBytes()
		if err != nil {
			fail("assembling result: %v", err)
		}
		if err := writeOutput(GetString(cmd, "output"), bin); err != nil {
			fail("writing output: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(stripDebugCmd)
	stripDebugCmd.Flags().Bool("lines", true, "strip OpLine/OpNoLine debug markers")
	stripDebugCmd.Flags().Bool("source", true, "strip OpSource/OpSourceContinued debug strings")
}
