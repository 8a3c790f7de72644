package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gogpu/spv-patcher/funcfind"
	"github.com/gogpu/spv-patcher/patch"
	"github.com/gogpu/spv-patcher/spirv"
)

var staticReplaceCmd = &cobra.Command{
	Use:   "static-replace [flags] input.spv",
	Short: "splice an exported function body from a replacement module into the target.",
	Long: `Replace a target function's body with an exported function drawn from a
separate replacement module. The target candidate is found automatically by
structural signature match; --replacement-func selects which function in the
replacement module is the source (by exact name, falling back to a substring
match with a warning).`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fail("expected exactly one input file")
		}
		replPath := GetString(cmd, "replacement")
		if replPath == "" {
			fail("--replacement is required")
		}
		funcName := GetString(cmd, "replacement-func")
		if funcName == "" {
			fail("--replacement-func is required")
		}

		target, err := readModule(args[0])
		if err != nil {
			fail("reading target module: %v", err)
		}
		repl, err := readModule(replPath)
		if err != nil {
			fail("reading replacement module: %v", err)
		}

		headers, warnings := funcfind.Find(repl, funcfind.NewNameIdent(funcName))
		for _, w := range warnings {
			log.Warn(w)
		}
		if len(headers) == 0 {
			fail("no function named %q found in replacement module", funcName)
		}
		replIndex, ok := indexOfFunction(repl, headers[0])
		if !ok {
			fail("internal: matched function header not found in replacement module")
		}

		result, err := patch.NewPatcher(target).Apply(patch.StaticReplace{
			Replacement:      repl,
			ReplacementIndex: replIndex,
			KeepAsLibrary:    GetFlag(cmd, "keep-as-library"),
		})
		if err != nil {
			fail("static-replace: %v", err)
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

// indexOfFunction finds header's position in m.Functions by result id, since
// funcfind.Find returns instruction headers, not indices.
func indexOfFunction(m *spirv.Module, header *spirv.Instruction) (int, bool) {
	headerID, ok := header.ResultID()
	if !ok {
		return 0, false
	}
	for i := range m.Functions {
		if m.Functions[i].ResultID() == headerID {
			return i, true
		}
	}
	return 0, false
}

func init() {
	rootCmd.AddCommand(staticReplaceCmd)
	staticReplaceCmd.Flags().String("replacement", "", "path to the replacement SPIR-V module")
	staticReplaceCmd.Flags().String("replacement-func", "", "name of the exported function to splice in")
	staticReplaceCmd.Flags().Bool("keep-as-library", false, "keep LinkageAttributes/Linkage capability in the output")
}
