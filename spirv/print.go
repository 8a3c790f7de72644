package spirv

import (
	"fmt"
	"io"
)

// opcodeNames names the subset of opcodes this engine understands well
// enough to label in a dump; anything else prints as "Op<n>".
var opcodeNames = map[OpCode]string{
	OpNop: "OpNop", OpUndef: "OpUndef", OpSourceContinued: "OpSourceContinued",
	OpSource: "OpSource", OpSourceExtension: "OpSourceExtension", OpName: "OpName",
	OpMemberName: "OpMemberName", OpString: "OpString", OpExtension: "OpExtension",
	OpExtInstImport: "OpExtInstImport", OpExtInst: "OpExtInst",
	OpMemoryModel: "OpMemoryModel", OpEntryPoint: "OpEntryPoint",
	OpExecutionMode: "OpExecutionMode", OpCapability: "OpCapability",
	OpTypeVoid: "OpTypeVoid", OpTypeBool: "OpTypeBool", OpTypeInt: "OpTypeInt",
	OpTypeFloat: "OpTypeFloat", OpTypeVector: "OpTypeVector", OpTypeMatrix: "OpTypeMatrix",
	OpTypeImage: "OpTypeImage", OpTypeSampler: "OpTypeSampler",
	OpTypeSampledImage: "OpTypeSampledImage", OpTypeArray: "OpTypeArray",
	OpTypeRuntimeArray: "OpTypeRuntimeArray", OpTypeStruct: "OpTypeStruct",
	OpTypeOpaque: "OpTypeOpaque", OpTypePointer: "OpTypePointer",
	OpTypeFunction: "OpTypeFunction", OpConstantTrue: "OpConstantTrue",
	OpConstantFalse: "OpConstantFalse", OpConstant: "OpConstant",
	OpConstantComposite: "OpConstantComposite", OpConstantSampler: "OpConstantSampler",
	OpSpecConstantOp: "OpSpecConstantOp", OpFunction: "OpFunction",
	OpFunctionParameter: "OpFunctionParameter", OpFunctionEnd: "OpFunctionEnd",
	OpFunctionCall: "OpFunctionCall", OpVariable: "OpVariable", OpLoad: "OpLoad",
	OpStore: "OpStore", OpAccessChain: "OpAccessChain",
	OpInBoundsAccessChain: "OpInBoundsAccessChain", OpArrayLength: "OpArrayLength",
	OpDecorate: "OpDecorate", OpMemberDecorate: "OpMemberDecorate",
	OpDecorationGroup: "OpDecorationGroup", OpGroupDecorate: "OpGroupDecorate",
	OpGroupMemberDecorate: "OpGroupMemberDecorate", OpDecorateId: "OpDecorateId",
	OpDecorateString: "OpDecorateString", OpMemberDecorateString: "OpMemberDecorateString",
	OpIAdd: "OpIAdd", OpFAdd: "OpFAdd", OpISub: "OpISub", OpFSub: "OpFSub",
	OpIMul: "OpIMul", OpFMul: "OpFMul", OpUDiv: "OpUDiv", OpSDiv: "OpSDiv", OpFDiv: "OpFDiv",
	OpPhi: "OpPhi", OpLoopMerge: "OpLoopMerge", OpSelectionMerge: "OpSelectionMerge",
	OpLabel: "OpLabel", OpBranch: "OpBranch", OpBranchConditional: "OpBranchConditional",
	OpSwitch: "OpSwitch", OpKill: "OpKill", OpReturn: "OpReturn",
	OpReturnValue: "OpReturnValue", OpUnreachable: "OpUnreachable",
}

var capabilityNames = map[Capability]string{
	CapabilityMatrix: "Matrix", CapabilityShader: "Shader", CapabilityGeometry: "Geometry",
	CapabilityLinkage: "Linkage", CapabilityKernel: "Kernel",
	CapabilityShaderNonUniform:                  "ShaderNonUniform",
	CapabilityRuntimeDescriptorArray:             "RuntimeDescriptorArray",
	CapabilitySampledImageArrayNonUniformIndexing: "SampledImageArrayNonUniformIndexing",
	CapabilityStorageBufferArrayNonUniformIndexing: "StorageBufferArrayNonUniformIndexing",
	CapabilityStorageImageArrayNonUniformIndexing:  "StorageImageArrayNonUniformIndexing",
}

var decorationNames = map[Decoration]string{
	DecorationBuiltIn:            "BuiltIn",
	DecorationLinkageAttributes:  "LinkageAttributes",
	DecorationNonUniform:         "NonUniform",
}

var storageClassNames = map[StorageClass]string{
	StorageClassUniformConstant: "UniformConstant",
	StorageClassInput:           "Input",
	StorageClassUniform:         "Uniform",
	StorageClassOutput:          "Output",
	StorageClassWorkgroup:       "Workgroup",
	StorageClassPrivate:         "Private",
	StorageClassFunction:        "Function",
	StorageClassPushConstant:    "PushConstant",
	StorageClassStorageBuffer:   "StorageBuffer",
}

var executionModelNames = map[ExecutionModel]string{
	ExecutionModelVertex:      "Vertex",
	ExecutionModelFragment:    "Fragment",
	ExecutionModelGLCompute:   "GLCompute",
	ExecutionModelKernel:      "Kernel",
	ExecutionModelGeometry:    "Geometry",
}

func opName(op OpCode) string {
	if n, ok := opcodeNames[op]; ok {
		return n
	}
	return fmt.Sprintf("Op%d", uint32(op))
}

// Print writes a human-readable, .spvasm-like dump of the module to w. It is
// meant for diagnosing what a patch changed, not as a faithful disassembler
// replacement — operand words that are themselves enums (storage class,
// decoration, ...) are named where this package recognizes them and printed
// numerically otherwise.
func (m *Module) Print(w io.Writer) error {
	fmt.Fprintf(w, "; SPIR-V\n; Version: %d.%d\n; Generator: 0x%08X\n; Bound: %d\n; Schema: %d\n\n",
		m.Header.Version.Major, m.Header.Version.Minor, m.Header.Generator, m.bound, m.Header.Schema)

	printAll := func(insts []Instruction) {
		for _, inst := range insts {
			printInstruction(w, inst)
		}
	}
	printAll(m.Capabilities)
	printAll(m.Extensions)
	printAll(m.ExtInstImports)
	if m.MemoryModel != nil {
		printInstruction(w, *m.MemoryModel)
	}
	printAll(m.EntryPoints)
	printAll(m.ExecutionModes)
	printAll(m.DebugStrings)
	printAll(m.DebugNames)
	printAll(m.Annotations)
	printAll(m.TypesConstantsGlobals)
	for _, fn := range m.Functions {
		fmt.Fprintln(w)
		printInstruction(w, fn.Header)
		printAll(fn.Parameters)
		for _, blk := range fn.Blocks {
			printInstruction(w, blk.Label)
			printAll(blk.Instructions)
		}
	}
	return nil
}

func printInstruction(w io.Writer, inst Instruction) {
	resultType, hasType := inst.ResultType()
	resultID, hasResult := inst.ResultID()

	prefix := ""
	if hasResult {
		prefix = fmt.Sprintf("%%%d = ", resultID)
	}
	fmt.Fprintf(w, "%s%s", prefix, opName(inst.Opcode))
	if hasType {
		fmt.Fprintf(w, " %%%d", resultType)
	}

	start := 0
	if hasType {
		start++
	}
	if hasResult {
		start++
	}
	switch inst.Opcode {
	case OpDecorate:
		ops := inst.Operands
		if len(ops) >= 2 {
			fmt.Fprintf(w, " %%%d %s", ops[0], decorationName(Decoration(ops[1])))
			for _, extra := range ops[2:] {
				fmt.Fprintf(w, " %d", extra)
			}
			fmt.Fprintln(w)
			return
		}
	case OpCapability:
		if len(inst.Operands) == 1 {
			fmt.Fprintf(w, " %s\n", capabilityName(Capability(inst.Operands[0])))
			return
		}
	case OpVariable:
		if len(inst.Operands) > start {
			fmt.Fprintf(w, " %s", storageClassName(StorageClass(inst.Operands[start])))
			for _, extra := range inst.Operands[start+1:] {
				fmt.Fprintf(w, " %%%d", extra)
			}
			fmt.Fprintln(w)
			return
		}
	case OpEntryPoint:
		if len(inst.Operands) >= 2 {
			model := executionModelName(ExecutionModel(inst.Operands[0]))
			name, nameWords := decodeString(inst.Operands, 2)
			fmt.Fprintf(w, " %s %%%d %q", model, inst.Operands[1], name)
			for _, iface := range inst.Operands[2+nameWords:] {
				fmt.Fprintf(w, " %%%d", iface)
			}
			fmt.Fprintln(w)
			return
		}
	}

	for _, operand := range inst.Operands[start:] {
		fmt.Fprintf(w, " %d", operand)
	}
	fmt.Fprintln(w)
}

func capabilityName(c Capability) string {
	if n, ok := capabilityNames[c]; ok {
		return n
	}
	return fmt.Sprintf("%d", uint32(c))
}

func decorationName(d Decoration) string {
	if n, ok := decorationNames[d]; ok {
		return n
	}
	return fmt.Sprintf("%d", uint32(d))
}

func storageClassName(s StorageClass) string {
	if n, ok := storageClassNames[s]; ok {
		return n
	}
	return fmt.Sprintf("%d", uint32(s))
}

func executionModelName(e ExecutionModel) string {
	if n, ok := executionModelNames[e]; ok {
		return n
	}
	return fmt.Sprintf("%d", uint32(e))
}
