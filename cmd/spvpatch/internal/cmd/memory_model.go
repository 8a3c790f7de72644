package cmd

import (
	"github.com/spf13/cobra"

	"github.com/gogpu/spv-patcher/patch"
	"github.com/gogpu/spv-patcher/spirv"
)

var memoryModelNames = map[string]spirv.MemoryModelKind{
	"simple":  spirv.MemoryModelSimple,
	"glsl450": spirv.MemoryModelGLSL450,
	"opencl":  spirv.MemoryModelOpenCL,
	"vulkan":  spirv.MemoryModelVulkan,
}

var memoryModelCmd = &cobra.Command{
	Use:   "memory-model [flags] input.spv",
	Short: "rewrite the module's memory model.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fail("expected exactly one input file")
		}
		from, ok := memoryModelNames[GetString(cmd, "from")]
		if !ok {
			fail("unknown --from memory model %q", GetString(cmd, "from"))
		}
		to, ok := memoryModelNames[GetString(cmd, "to")]
		if !ok {
			fail("unknown --to memory model %q", GetString(cmd, "to"))
		}

		m, err := readModule(args[0])
		if err != nil {
			fail("reading module: %v", err)
		}

		result, err := patch.NewPatcher(m).Apply(patch.MemoryModel{From: from, To: to})
		if err != nil {
			fail("memory-model: %v", err)
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
	rootCmd.AddCommand(memoryModelCmd)
	memoryModelCmd.Flags().String("from", "glsl450", "expected current memory model (simple|glsl450|opencl|vulkan)")
	memoryModelCmd.Flags().String("to", "vulkan", "memory model to rewrite to (simple|glsl450|opencl|vulkan)")
}
