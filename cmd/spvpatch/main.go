// Command spvpatch is a thin command-line front end over the patch engine:
// read a SPIR-V binary, apply one patch, write the result. It exists to
// exercise the library end-to-end, not as a replacement for a full shader
// build pipeline.
package main

import (
	"github.com/gogpu/spv-patcher/cmd/spvpatch/internal/cmd"
)

func main() {
	cmd.Execute()
}
