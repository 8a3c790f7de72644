// Package spvpatcher provides a runtime SPIR-V shader patcher: load an
// already-compiled SPIR-V module, apply a sequence of patches (constant
// rewrites, non-uniform descriptor-indexing decoration, whole-function
// replacement via link-merge, memory-model rewrites, debug stripping), and
// re-emit the patched binary.
//
// The package offers a simple, high-level API for the common case as well
// as lower-level access to individual packages (spirv, structured,
// typegraph, funcfind, patch, validator) for callers that need to compose
// passes themselves.
//
// Example usage:
//
//	bin, err := os.ReadFile("shader.spv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	patched, err := spvpatcher.ApplyPatches(bin,
//	    patch.MutateConstantInt{From: 4, To: 8},
//	    patch.NonUniformDecorate{},
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// For finer control over the dual flat/structured representation or the
// cached type graph, construct a patch.Patcher directly via patch.NewPatcher
// and call its Apply method per patch.
package spvpatcher

import (
	"fmt"

	"github.com/gogpu/spv-patcher/patch"
	"github.com/gogpu/spv-patcher/spirv"
)

// Load parses a SPIR-V binary into a *spirv.Module.
func Load(bin []byte) (*spirv.Module, error) {
	return spirv.Parse(bin)
}

// ApplyPatches parses bin, applies every patch in order, and re-assembles
// the result to bytes. It is the one-call convenience path; callers who
// need the intermediate *patch.Patcher (e.g. to inspect Warnings() between
// patches) should use patch.NewPatcher directly instead.
func ApplyPatches(bin []byte, patches ...patch.Patch) ([]byte, error) {
	m, err := Load(bin)
	if err != nil {
		return nil, fmt.Errorf("spvpatcher: parse: %w", err)
	}

	p := patch.NewPatcher(m)
	for i, pat := range patches {
		p, err = p.Apply(pat)
		if err != nil {
			return nil, fmt.Errorf("spvpatcher: patch %d: %w", i, err)
		}
	}

	out, err := p.AssembleBytes()
	if err != nil {
		return nil, fmt.Errorf("spvpatcher: assemble: %w", err)
	}
	return out, nil
}
