// Package validator shells out to the SPIRV-Tools command-line binaries to
// check and (optionally) describe a patched module. Neither tool is part of
// this module's build; both are looked up on PATH at call time and their
// absence degrades gracefully rather than failing a patch run — validation
// is diagnostic, never load-bearing for correctness.
package validator

import (
	"bytes"
	"context"
	"os/exec"

	log "github.com/sirupsen/logrus"

	"github.com/gogpu/spv-patcher/spirv"
)

// Options configures a validator invocation.
type Options struct {
	// BinaryPath overrides the binary looked up on PATH. Empty means
	// "spirv-val", resolved via exec.LookPath.
	BinaryPath string
	// TargetEnv is passed to spirv-val as --target-env when non-empty
	// (e.g. "vulkan1.2", "opengl4.5").
	TargetEnv string
}

// Result is the outcome of a validation run.
type Result struct {
	// Passed is true both when spirv-val reports no errors and when the
	// binary could not be found at all — absence is a skip, not a failure.
	Passed bool
	// Diagnostics holds spirv-val's combined stdout+stderr, or an
	// explanatory message when the binary was not found.
	Diagnostics string
}

// Run validates bin (an assembled SPIR-V module) against spirv-val. It never
// returns an error for a missing binary or a validation failure reported by
// spirv-val itself — those are communicated through Result. It returns an
// error only for an operational fault: the process context was cancelled,
// or stdin could not be written to the spawned process.
func Run(ctx context.Context, bin []byte, opts Options) (*Result, error) {
	binaryPath := opts.BinaryPath
	if binaryPath == "" {
		binaryPath = "spirv-val"
	}

	resolved, err := exec.LookPath(binaryPath)
	if err != nil {
		log.Warnf("validator: %s not found on PATH, skipping validation", binaryPath)
		return &Result{Passed: true, Diagnostics: "spirv-val not found, skipped"}, nil
	}

	args := []string{}
	if opts.TargetEnv != "" {
		args = append(args, "--target-env", opts.TargetEnv)
	}
	args = append(args, "-") // read module from stdin

	cmd := exec.CommandContext(ctx, resolved, args...) //nolint:gosec // G204: resolved via LookPath, args are flags/dash
	cmd.Stdin = bytes.NewReader(bin)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	runErr := cmd.Run()
	diagnostics := out.String()

	if runErr == nil {
		return &Result{Passed: true, Diagnostics: diagnostics}, nil
	}
	if _, ok := runErr.(*exec.ExitError); ok {
		// spirv-val exits non-zero on validation failure; that is a
		// reportable result, not an operational error.
		return &Result{Passed: false, Diagnostics: diagnostics}, nil
	}
	return nil, spirv.Wrap(spirv.KindExternal, "validator.Run", runErr)
}
