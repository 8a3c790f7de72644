package validator

import (
	"bytes"
	"context"
	"os/exec"

	log "github.com/sirupsen/logrus"

	"github.com/gogpu/spv-patcher/spirv"
)

// DisassemblyOptions configures a spirv-dis invocation.
type DisassemblyOptions struct {
	// BinaryPath overrides the binary looked up on PATH. Empty means
	// "spirv-dis", resolved via exec.LookPath.
	BinaryPath string
	// RawIDs passes --raw-id to spirv-dis, keeping numeric ids instead of
	// the tool's friendly-name synthesis.
	RawIDs bool
}

// DisassemblyResult is the outcome of a disassembly run.
type DisassemblyResult struct {
	// Available is false when spirv-dis could not be found; Text then
	// falls back to this module's own spirv.Print output so callers
	// always get something to show, just not spirv-dis's exact rendering.
	Available bool
	Text      string
}

// Disassemble renders bin as SPIR-V assembly text via spirv-dis. Like Run,
// a missing binary degrades rather than fails: Disassemble falls back to
// parsing bin and running it through spirv.Module.Print, this engine's own
// disassembler, so the caller still gets readable output.
func Disassemble(ctx context.Context, bin []byte, opts DisassemblyOptions) (*DisassemblyResult, error) {
	binaryPath := opts.BinaryPath
	if binaryPath == "" {
		binaryPath = "spirv-dis"
	}

	resolved, err := exec.LookPath(binaryPath)
	if err != nil {
		log.Warnf("validator: %s not found on PATH, falling back to built-in disassembly", binaryPath)
		text, fallbackErr := fallbackDisassemble(bin)
		if fallbackErr != nil {
			return nil, fallbackErr
		}
		return &DisassemblyResult{Available: false, Text: text}, nil
	}

	args := []string{}
	if opts.RawIDs {
		args = append(args, "--raw-id")
	}
	args = append(args, "-") // read from stdin, write to stdout

	cmd := exec.CommandContext(ctx, resolved, args...) //nolint:gosec // G204: resolved via LookPath, args are flags/dash
	cmd.Stdin = bytes.NewReader(bin)

	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut

	if err := cmd.Run(); err != nil {
		return nil, spirv.Wrapf(spirv.KindExternal, "disassembler.Disassemble", err, "spirv-dis: %s", errOut.String())
	}
	return &DisassemblyResult{Available: true, Text: out.String()}, nil
}

func fallbackDisassemble(bin []byte) (string, error) {
	m, err := spirv.Parse(bin)
	if err != nil {
		return "", spirv.Wrap(spirv.KindParse, "disassembler.fallbackDisassemble", err)
	}
	var buf bytes.Buffer
	if err := m.Print(&buf); err != nil {
		return "", spirv.Wrap(spirv.KindInternal, "disassembler.fallbackDisassemble", err)
	}
	return buf.String(), nil
}
