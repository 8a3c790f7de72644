package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/spv-patcher/spirv"
)

// GetFlag gets an expected bool flag, or exits if the flag was never
// registered — a programmer error, not a user-facing one.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return r
}

// GetString gets an expected string flag.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return r
}

// GetUint32 gets an expected uint32 flag.
func GetUint32(cmd *cobra.Command, flag string) uint32 {
	r, err := cmd.Flags().GetUint32(flag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return r
}

// GetInt gets an expected int flag.
func GetInt(cmd *cobra.Command, flag string) int {
	r, err := cmd.Flags().GetInt(flag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return r
}

// readModule reads and parses a SPIR-V binary from path.
func readModule(path string) (*spirv.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return spirv.Parse(data)
}

// writeOutput writes bin to outputPath, or to stdout when outputPath is
// empty, matching the teacher CLI's "-o defaults to stdout" convention.
func writeOutput(outputPath string, bin []byte) error {
	if outputPath == "" {
		_, err := os.Stdout.Write(bin)
		return err
	}
	return os.WriteFile(outputPath, bin, 0o644)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
