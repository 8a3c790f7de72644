package patch

import "github.com/gogpu/spv-patcher/spirv"

// remapInstruction renumbers the ids inst refers to, for copying an
// instruction from one module's id space into another's (link-merge's
// Merge stage). Type/constant/global-section opcodes are handled
// explicitly, mirroring typegraph's own per-opcode switch, because their
// operand layouts mix id references with literal payload words (a storage
// class, an int width, a constant's literal value) that must never be
// remapped. Function-body instructions fall back to the generic
// result-type/result-id-then-everything-else-is-an-id layout, which holds
// for every opcode this engine ever merges into a function body.
func remapInstruction(inst spirv.Instruction, remap func(uint32) uint32) spirv.Instruction {
	out := spirv.Instruction{Opcode: inst.Opcode, Operands: append([]uint32{}, inst.Operands...)}
	ops := out.Operands

	switch inst.Opcode {
	case spirv.OpTypeVoid, spirv.OpTypeBool, spirv.OpTypeSampler:
		remapAt(ops, remap, 0)
	case spirv.OpTypeInt, spirv.OpTypeFloat:
		remapAt(ops, remap, 0) // result id only; width/signedness are literal
	case spirv.OpTypeVector, spirv.OpTypeMatrix, spirv.OpTypeRuntimeArray, spirv.OpTypeSampledImage:
		remapAt(ops, remap, 0, 1) // result id, element/column/image type id
	case spirv.OpTypeArray:
		remapAt(ops, remap, 0, 1, 2) // result id, element type id, length constant id
	case spirv.OpTypePointer:
		remapAt(ops, remap, 0, 2) // result id, pointee type id; storage class at 1 is literal
	case spirv.OpTypeStruct, spirv.OpTypeFunction:
		remapAt(ops, remap, allIndices(len(ops))...) // result id plus every member/param/return type id
	case spirv.OpTypeOpaque:
		remapAt(ops, remap, 0) // result id only; the rest is a literal name
	case spirv.OpTypeImage:
		remapAt(ops, remap, 0, 1) // result id, sampled-type id; remaining words are literal
	case spirv.OpConstant:
		remapAt(ops, remap, 0, 1) // type id, result id; literal value untouched
	case spirv.OpConstantTrue, spirv.OpConstantFalse, spirv.OpConstantNull:
		remapAt(ops, remap, 0, 1)
	case spirv.OpConstantComposite:
		remapAt(ops, remap, allIndices(len(ops))...) // type, result, every component id
	case spirv.OpVariable:
		// Operands: [result type, result, storage class, initializer?] —
		// storage class at index 2 is a literal, not an id.
		remapAt(ops, remap, 0, 1)
		if len(ops) > 3 {
			remapAt(ops, remap, 3)
		}
	case spirv.OpName, spirv.OpMemberName:
		remapAt(ops, remap, 0) // target id; the rest is a literal string
	default:
		hasType, hasResult := spirv.HasResult(inst.Opcode)
		idx := 0
		if hasType {
			remapAt(ops, remap, idx)
			idx++
		}
		if hasResult {
			remapAt(ops, remap, idx)
			idx++
		}
		for ; idx < len(ops); idx++ {
			remapAt(ops, remap, idx)
		}
	}
	return out
}

func remapAt(ops []uint32, remap func(uint32) uint32, indices ...int) {
	for _, i := range indices {
		if i >= 0 && i < len(ops) {
			ops[i] = remap(ops[i])
		}
	}
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func remapInstructions(insts []spirv.Instruction, remap func(uint32) uint32) []spirv.Instruction {
	out := make([]spirv.Instruction, len(insts))
	for i, inst := range insts {
		out[i] = remapInstruction(inst, remap)
	}
	return out
}

func remapBlocks(blocks []spirv.BasicBlock, remap func(uint32) uint32) []spirv.BasicBlock {
	out := make([]spirv.BasicBlock, len(blocks))
	for i, blk := range blocks {
		out[i] = spirv.BasicBlock{
			Label:        remapInstruction(blk.Label, remap),
			Instructions: remapInstructions(blk.Instructions, remap),
		}
	}
	return out
}
