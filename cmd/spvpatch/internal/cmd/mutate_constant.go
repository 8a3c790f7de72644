package cmd

import (
	"math"

	"github.com/spf13/cobra"

	"github.com/gogpu/spv-patcher/patch"
)

var mutateConstantCmd = &cobra.Command{
	Use:   "mutate-constant [flags] input.spv",
	Short: "rewrite an OpConstant literal's value.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fail("expected exactly one input file")
		}
		m, err := readModule(args[0])
		if err != nil {
			fail("reading module: %v", err)
		}

		p := patch.NewPatcher(m)

		var result *patch.Patcher
		if GetFlag(cmd, "float") {
			result, err = p.Apply(patch.MutateConstantFloat{
				From: float32(GetFloat(cmd, "from")),
				To:   float32(GetFloat(cmd, "to")),
			})
		} else {
			result, err = p.Apply(patch.MutateConstantInt{
				From: GetUint32(cmd, "from-int"),
				To:   GetUint32(cmd, "to-int"),
			})
		}
		if err != nil {
			fail("mutate-constant: %v", err)
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

// GetFloat gets an expected float64 flag.
func GetFloat(cmd *cobra.Command, flag string) float64 {
	r, err := cmd.Flags().GetFloat64(flag)
	if err != nil {
		fail("%v", err)
	}
	return r
}

func init() {
	rootCmd.AddCommand(mutateConstantCmd)
	mutateConstantCmd.Flags().Bool("float", false, "mutate a 32-bit float constant instead of an int constant")
	mutateConstantCmd.Flags().Uint32("from-int", 0, "int literal to match")
	mutateConstantCmd.Flags().Uint32("to-int", 0, "int literal to replace it with")
	mutateConstantCmd.Flags().Float64("from", math.NaN(), "float literal to match")
	mutateConstantCmd.Flags().Float64("to", math.NaN(), "float literal to replace it with")
}
