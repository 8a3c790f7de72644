package patch

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/gogpu/spv-patcher/spirv"
)

// NonUniformDecorate infers and adds the NonUniform decoration a
// descriptor-indexing shader is missing — the fix for the easy-to-forget
// "nonuniformEXT(i)" wrapper around a dynamic index into a descriptor-set
// array. It runs three passes:
//
//  1. Seed: every global variable whose storage class is not Uniform or
//     PushConstant is a possible source of a non-uniform value (it is
//     conservative: almost anything that isn't a uniform/push-constant
//     input could vary per-invocation), and every OpTypeRuntimeArray is
//     recorded as a potential descriptor-array element type.
//  2. Trace: the seed set is propagated forward through arithmetic,
//     access chains, and stores until a fixed point; separately, every
//     OpAccessChain whose base is a variable of runtime-array (or
//     runtime-array-wrapping) type is checked for a tainted index
//     operand, and only those access chains (plus their loads/stores)
//     are marked for decoration.
//  3. Decorate: every marked id is decorated NonUniform (idempotently),
//     and the SPV_EXT_descriptor_indexing extension plus the
//     ShaderNonUniform/*ArrayNonUniformIndexing capabilities are added,
//     each checked for presence first.
//
// This mirrors SPIRV-Cross's and DXC's "mark non-uniform" passes: taint is
// a forward, intraprocedural data-flow property. It does not cross
// function call boundaries: an OpFunctionCall result is tainted as a whole
// when the callee id or any argument is tainted, and the callee's body is
// not inspected.
type NonUniformDecorate struct{}

func (p NonUniformDecorate) Apply(patcher *Patcher) (*Patcher, error) {
	m, err := patcher.AsFlat()
	if err != nil {
		return nil, err
	}

	seeds, runtimeArrays := seedNonUniform(m)
	if seeds.None() {
		return patcher, nil
	}

	tainted := propagateNonUniform(m, seeds)

	wrapping := typesWrappingRuntimeArray(m, runtimeArrays)
	runtimeArrayVars := runtimeArrayVariables(m, wrapping)
	hits := traceIndices(m, tainted, runtimeArrayVars)
	if len(hits) == 0 {
		return patcher, nil
	}

	decorateNonUniform(m, hits, tainted)
	return patcher, nil
}

// seedNonUniform seeds Pass 1's starting set from every global variable
// whose storage class is not Uniform or PushConstant — those two classes
// are uniform-across-invocations inputs by construction, everything else
// (StorageBuffer, Image, UniformConstant sampler/texture bindings, ...) is
// conservatively treated as a possible non-uniform source. It also
// collects every OpTypeRuntimeArray id, the shape Pass 2 traces indexing
// into.
func seedNonUniform(m *spirv.Module) (seeds *bitset.BitSet, runtimeArrayTypes *bitset.BitSet) {
	seeds = bitset.New(uint(m.Bound()))
	runtimeArrayTypes = bitset.New(uint(m.Bound()))

	for _, inst := range m.TypesConstantsGlobals {
		switch inst.Opcode {
		case spirv.OpVariable:
			if len(inst.Operands) < 3 {
				continue
			}
			switch spirv.StorageClass(inst.Operands[2]) {
			case spirv.StorageClassUniform, spirv.StorageClassPushConstant:
				// uniform-across-invocations inputs: never seeded.
			default:
				if id, ok := inst.ResultID(); ok {
					seeds.Set(uint(id))
				}
			}
		case spirv.OpTypeRuntimeArray:
			if id, ok := inst.ResultID(); ok {
				runtimeArrayTypes.Set(uint(id))
			}
		}
	}
	return seeds, runtimeArrayTypes
}

// typesWrappingRuntimeArray returns every type id declared directly on top
// of a runtime-array type: an OpTypePointer whose pointee is a runtime
// array, or an OpTypeStruct with a runtime-array member. This is a
// one-level scan, mirroring the original pass's "find every type
// definition where the runtime array is used as a super type" — it does
// not chase a pointer-to-struct-containing-a-runtime-array two hops deep.
func typesWrappingRuntimeArray(m *spirv.Module, runtimeArrays *bitset.BitSet) *bitset.BitSet {
	wrapping := bitset.New(uint(m.Bound()))
	for _, inst := range m.TypesConstantsGlobals {
		switch inst.Opcode {
		case spirv.OpTypePointer:
			if len(inst.Operands) < 3 {
				continue
			}
			if runtimeArrays.Test(uint(inst.Operands[2])) {
				if id, ok := inst.ResultID(); ok {
					wrapping.Set(uint(id))
				}
			}
		case spirv.OpTypeStruct:
			id, ok := inst.ResultID()
			if !ok || len(inst.Operands) < 2 {
				continue
			}
			for _, member := range inst.Operands[1:] {
				if runtimeArrays.Test(uint(member)) {
					wrapping.Set(uint(id))
					break
				}
			}
		}
	}
	return wrapping
}

// runtimeArrayVariables returns every global OpVariable whose declared
// type (its result-type operand) is one of wrapping — the descriptor
// bindings Pass 2's OpAccessChain trace treats as runtime-array accesses.
func runtimeArrayVariables(m *spirv.Module, wrapping *bitset.BitSet) *bitset.BitSet {
	vars := bitset.New(uint(m.Bound()))
	for _, inst := range m.TypesConstantsGlobals {
		if inst.Opcode != spirv.OpVariable {
			continue
		}
		typeID, ok := inst.ResultType()
		if !ok || !wrapping.Test(uint(typeID)) {
			continue
		}
		if id, ok := inst.ResultID(); ok {
			vars.Set(uint(id))
		}
	}
	return vars
}

// propagateNonUniform runs a forward fixed-point worklist over every
// function's instructions, tainting any result id that consumes a tainted
// operand, until no pass adds a new id. OpStore has no result id (the
// general propagator loop below never sees it), so storing a tainted
// value taints its destination pointer as an explicit special case.
func propagateNonUniform(m *spirv.Module, seeds *bitset.BitSet) *bitset.BitSet {
	tainted := seeds.Clone()
	for {
		changed := false
		for _, fn := range m.Functions {
			for _, blk := range fn.Blocks {
				for _, inst := range blk.Instructions {
					if inst.Opcode == spirv.OpStore {
						if len(inst.Operands) < 2 {
							continue
						}
						dst, src := inst.Operands[0], inst.Operands[1]
						if tainted.Test(uint(src)) && !tainted.Test(uint(dst)) {
							tainted.Set(uint(dst))
							changed = true
						}
						continue
					}

					if !isNonUniformPropagator(inst.Opcode) {
						continue
					}
					anyTainted := false
					for _, ref := range inst.IDRefs() {
						if tainted.Test(uint(ref)) {
							anyTainted = true
							break
						}
					}
					if !anyTainted {
						continue
					}
					id, ok := inst.ResultID()
					if !ok || tainted.Test(uint(id)) {
						continue
					}
					tainted.Set(uint(id))
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}
	return tainted
}

func isNonUniformPropagator(op spirv.OpCode) bool {
	switch op {
	case spirv.OpAccessChain, spirv.OpInBoundsAccessChain, spirv.OpLoad,
		spirv.OpCompositeConstruct, spirv.OpCompositeExtract, spirv.OpCompositeInsert,
		spirv.OpVectorShuffle, spirv.OpBitcast,
		spirv.OpIAdd, spirv.OpFAdd, spirv.OpISub, spirv.OpFSub,
		spirv.OpIMul, spirv.OpFMul, spirv.OpUDiv, spirv.OpSDiv, spirv.OpFDiv,
		spirv.OpFunctionCall:
		return true
	default:
		return false
	}
}

// traceIndices finds every OpAccessChain (or OpInBoundsAccessChain) whose
// base operand is one of runtimeArrayVars and at least one of whose index
// operands is tainted — the access-chain-centric core of Pass 2. Only
// these access chains (and whatever loads/stores from them Pass 3
// discovers) get decorated; an ordinary tainted value that never indexes
// a descriptor array is left alone.
func traceIndices(m *spirv.Module, tainted *bitset.BitSet, runtimeArrayVars *bitset.BitSet) []spirv.Instruction {
	var hits []spirv.Instruction
	for _, fn := range m.Functions {
		for _, blk := range fn.Blocks {
			for _, inst := range blk.Instructions {
				if inst.Opcode != spirv.OpAccessChain && inst.Opcode != spirv.OpInBoundsAccessChain {
					continue
				}
				refs := inst.IDRefs()
				if len(refs) < 2 {
					continue
				}
				base := refs[0]
				if !runtimeArrayVars.Test(uint(base)) {
					continue
				}
				for _, idx := range refs[1:] {
					if tainted.Test(uint(idx)) {
						hits = append(hits, inst)
						break
					}
				}
			}
		}
	}
	return hits
}

// decorateNonUniform annotates every hit access chain (plus whichever of
// its own operands are themselves tainted, and whichever OpLoad/OpStore
// instructions consume or feed one) with NonUniform, idempotently, and
// adds the extension/capabilities the decoration requires.
func decorateNonUniform(m *spirv.Module, hits []spirv.Instruction, tainted *bitset.BitSet) {
	m.AddExtension(spirv.ExtDescriptorIndexing)

	searchLoadIDs := bitset.New(uint(m.Bound()))
	for _, hit := range hits {
		id, ok := hit.ResultID()
		if !ok {
			continue
		}
		if !m.HasDecoration(id, spirv.DecorationNonUniform) {
			m.Decorate(id, spirv.DecorationNonUniform)
		}
		searchLoadIDs.Set(uint(id))

		for _, ref := range hit.IDRefs() {
			if tainted.Test(uint(ref)) && !m.HasDecoration(ref, spirv.DecorationNonUniform) {
				m.Decorate(ref, spirv.DecorationNonUniform)
			}
		}
	}

	var postDecorate []uint32
	for _, fn := range m.Functions {
		for _, blk := range fn.Blocks {
			for _, inst := range blk.Instructions {
				switch inst.Opcode {
				case spirv.OpLoad:
					refs := inst.IDRefs()
					if len(refs) < 1 || !searchLoadIDs.Test(uint(refs[0])) {
						continue
					}
					if id, ok := inst.ResultID(); ok {
						postDecorate = append(postDecorate, id)
					}
				case spirv.OpStore:
					if len(inst.Operands) < 2 || !searchLoadIDs.Test(uint(inst.Operands[0])) {
						continue
					}
					postDecorate = append(postDecorate, inst.Operands[1])
				}
			}
		}
	}
	for _, id := range postDecorate {
		if !m.HasDecoration(id, spirv.DecorationNonUniform) {
			m.Decorate(id, spirv.DecorationNonUniform)
		}
	}

	m.AddCapability(spirv.CapabilityShaderNonUniform)
	m.AddCapability(spirv.CapabilityRuntimeDescriptorArray)
	m.AddCapability(spirv.CapabilitySampledImageArrayNonUniformIndexing)
	m.AddCapability(spirv.CapabilityStorageBufferArrayNonUniformIndexing)
	m.AddCapability(spirv.CapabilityStorageImageArrayNonUniformIndexing)
}
