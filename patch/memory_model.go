package patch

import "github.com/gogpu/spv-patcher/spirv"

// MemoryModel rewrites the module's single OpMemoryModel instruction's
// memory-model operand from From to To (e.g. GLSL450 -> Vulkan, the
// transform a shader needs before it can use descriptor indexing or other
// Vulkan-memory-model-gated features). The addressing model operand is left
// untouched — changing it is a much larger transform (every pointer-typed
// value's representation potentially changes) that this patch does not
// attempt.
type MemoryModel struct {
	From, To spirv.MemoryModelKind
}

// Apply rejects the patch outright if the module's current memory model
// isn't From, rather than silently doing nothing — unlike a constant
// mutation, a caller asking to retarget the memory model almost certainly
// has a specific source model in mind, and applying To over a different
// model the caller didn't expect is far more likely to be a bug than a
// no-op would be for a missing constant.
func (p MemoryModel) Apply(patcher *Patcher) (*Patcher, error) {
	m, err := patcher.AsFlat()
	if err != nil {
		return nil, err
	}
	if m.MemoryModel == nil || len(m.MemoryModel.Operands) < 2 {
		return nil, spirv.NewError(spirv.KindPatchPrecondition, "memory-model", "module has no OpMemoryModel instruction")
	}
	current := spirv.MemoryModelKind(m.MemoryModel.Operands[1])
	if current != p.From {
		return nil, spirv.NewError(spirv.KindPatchPrecondition, "memory-model",
			"module's current memory model does not match the patch's From")
	}
	m.MemoryModel.Operands[1] = uint32(p.To)
	return patcher, nil
}
