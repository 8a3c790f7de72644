package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gogpu/spv-patcher/patch"
)

var nonuniformCmd = &cobra.Command{
	Use:   "nonuniform [flags] input.spv",
	Short: "propagate and decorate NonUniform taint from descriptor-indexing loads.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fail("expected exactly one input file")
		}
		m, err := readModule(args[0])
		if err != nil {
			fail("reading module: %v", err)
		}

		result, err := patch.NewPatcher(m).Apply(patch.NonUniformDecorate{})
		if err != nil {
			fail("nonuniform: %v", err)
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
	rootCmd.AddCommand(nonuniformCmd)
}
