// Package spirv provides a flat-instruction-stream representation of SPIR-V
// modules plus the accessor, parser and assembler operations the patch
// engine needs: parsing bytes into an ordered instruction stream, querying
// and mutating that stream in place, and re-assembling it to words or bytes.
//
// SPIR-V is the standard intermediate language for GPU shaders and compute
// kernels, used by Vulkan, OpenCL and other APIs. This package does not
// compile shader source into SPIR-V and does not synthesize SPIR-V from an
// AST — it only parses and rewrites already-assembled binaries.
package spirv

// Version represents a SPIR-V version.
type Version struct {
	Major uint8
	Minor uint8
}

// Common SPIR-V versions.
var (
	Version1_0 = Version{1, 0}
	Version1_3 = Version{1, 3}
	Version1_4 = Version{1, 4}
	Version1_5 = Version{1, 5}
	Version1_6 = Version{1, 6}
)

// SPIR-V magic number and header layout constants.
const (
	MagicNumber  uint32 = 0x07230203
	GeneratorID  uint32 = 0x00000000 // Unregistered generator
	HeaderWords  = 5
	MinByteCount = HeaderWords * 4
)

// OpCode represents a SPIR-V opcode.
type OpCode uint16

// Opcodes used by the patch engine. Not every opcode in the SPIR-V spec is
// named here — only the ones the accessor, type graph, nonuniform pass and
// link-merge pass need to recognize by name. Unrecognized opcodes still
// round-trip losslessly through Instruction.Operands.
const (
	OpNop               OpCode = 0
	OpUndef             OpCode = 1
	OpSourceContinued   OpCode = 2
	OpSource            OpCode = 3
	OpSourceExtension   OpCode = 4
	OpName              OpCode = 5
	OpMemberName        OpCode = 6
	OpString            OpCode = 7
	OpExtension         OpCode = 10
	OpExtInstImport     OpCode = 11
	OpExtInst           OpCode = 12
	OpMemoryModel       OpCode = 14
	OpEntryPoint        OpCode = 15
	OpExecutionMode     OpCode = 16
	OpCapability        OpCode = 17
	OpTypeVoid          OpCode = 19
	OpTypeBool          OpCode = 20
	OpTypeInt           OpCode = 21
	OpTypeFloat         OpCode = 22
	OpTypeVector        OpCode = 23
	OpTypeMatrix        OpCode = 24
	OpTypeImage         OpCode = 25
	OpTypeSampler       OpCode = 26
	OpTypeSampledImage  OpCode = 27
	OpTypeArray         OpCode = 28
	OpTypeRuntimeArray  OpCode = 29
	OpTypeStruct        OpCode = 30
	OpTypeOpaque        OpCode = 31
	OpTypePointer       OpCode = 32
	OpTypeFunction      OpCode = 33
	OpTypeForwardPointer OpCode = 39
	OpConstantTrue      OpCode = 41
	OpConstantFalse     OpCode = 42
	OpConstant          OpCode = 43
	OpConstantComposite OpCode = 44
	OpConstantSampler   OpCode = 45
	OpConstantNull      OpCode = 46
	OpSpecConstantOp    OpCode = 52
	OpFunction          OpCode = 54
	OpFunctionParameter OpCode = 55
	OpFunctionEnd       OpCode = 56
	OpFunctionCall      OpCode = 57
	OpVariable          OpCode = 59
	OpLoad              OpCode = 61
	OpStore             OpCode = 62
	OpAccessChain       OpCode = 65
	OpInBoundsAccessChain OpCode = 66
	OpDecorate          OpCode = 71
	OpMemberDecorate    OpCode = 72
	OpDecorationGroup   OpCode = 73
	OpGroupDecorate     OpCode = 74
	OpGroupMemberDecorate OpCode = 75
	OpArrayLength       OpCode = 68
	OpVectorShuffle     OpCode = 79
	OpCompositeConstruct OpCode = 80
	OpCompositeExtract  OpCode = 81
	OpCompositeInsert   OpCode = 82
	OpBitcast           OpCode = 124
	OpPhi               OpCode = 245
	OpLoopMerge         OpCode = 246
	OpSelectionMerge    OpCode = 247
	OpLabel             OpCode = 248
	OpBranch            OpCode = 249
	OpBranchConditional OpCode = 250
	OpSwitch            OpCode = 251
	OpKill              OpCode = 252
	OpReturn            OpCode = 253
	OpReturnValue       OpCode = 254
	OpUnreachable       OpCode = 255
	OpDecorateId        OpCode = 332
	OpDecorateString    OpCode = 5632
	OpMemberDecorateString OpCode = 5633
)

// Arithmetic, logic and comparison opcodes the nonuniform taint pass
// forward-propagates through.
const (
	OpIAdd OpCode = 128
	OpFAdd OpCode = 129
	OpISub OpCode = 130
	OpFSub OpCode = 131
	OpIMul OpCode = 132
	OpFMul OpCode = 133
	OpUDiv OpCode = 134
	OpSDiv OpCode = 135
	OpFDiv OpCode = 136
)

// Decoration represents a SPIR-V decoration kind (operand of OpDecorate).
type Decoration uint32

// Decorations the engine inspects or appends.
const (
	DecorationBlock              Decoration = 2
	DecorationRowMajor           Decoration = 4
	DecorationColMajor           Decoration = 5
	DecorationArrayStride        Decoration = 6
	DecorationMatrixStride       Decoration = 7
	DecorationBuiltIn            Decoration = 11
	DecorationNoPerspective      Decoration = 13
	DecorationFlat               Decoration = 14
	DecorationLocation           Decoration = 30
	DecorationComponent          Decoration = 31
	DecorationIndex              Decoration = 32
	DecorationBinding            Decoration = 33
	DecorationDescriptorSet      Decoration = 34
	DecorationOffset             Decoration = 35
	DecorationLinkageAttributes  Decoration = 41
	DecorationNonUniform         Decoration = 5300 // NonUniformEXT / NonUniform
)

// LinkageType is the operand following the export name string in a
// LinkageAttributes decoration.
type LinkageType uint32

const (
	LinkageTypeExport LinkageType = 0
	LinkageTypeImport LinkageType = 1
)

// BuiltIn represents a SPIR-V built-in decoration value.
type BuiltIn uint32

// ExecutionModel represents a SPIR-V entry-point execution model.
type ExecutionModel uint32

const (
	ExecutionModelVertex                 ExecutionModel = 0
	ExecutionModelTessellationControl    ExecutionModel = 1
	ExecutionModelTessellationEvaluation ExecutionModel = 2
	ExecutionModelGeometry               ExecutionModel = 3
	ExecutionModelFragment               ExecutionModel = 4
	ExecutionModelGLCompute              ExecutionModel = 5
	ExecutionModelKernel                 ExecutionModel = 6
)

// ExecutionMode represents a SPIR-V execution mode.
type ExecutionMode uint32

// StorageClass represents a SPIR-V storage class.
type StorageClass uint32

const (
	StorageClassUniformConstant StorageClass = 0
	StorageClassInput           StorageClass = 1
	StorageClassUniform         StorageClass = 2
	StorageClassOutput          StorageClass = 3
	StorageClassWorkgroup       StorageClass = 4
	StorageClassCrossWorkgroup  StorageClass = 5
	StorageClassPrivate         StorageClass = 6
	StorageClassFunction        StorageClass = 7
	StorageClassGeneric         StorageClass = 8
	StorageClassPushConstant    StorageClass = 9
	StorageClassAtomicCounter   StorageClass = 10
	StorageClassImage           StorageClass = 11
	StorageClassStorageBuffer   StorageClass = 12

	// seed-pass bookkeeping: of these, only Uniform and PushConstant
	// variables are never tainted at OpVariable-seed time.
)

// AddressingModel represents a SPIR-V addressing model.
type AddressingModel uint32

const (
	AddressingModelLogical    AddressingModel = 0
	AddressingModelPhysical32 AddressingModel = 1
	AddressingModelPhysical64 AddressingModel = 2
)

// MemoryModelKind represents a SPIR-V memory model value (second operand of
// OpMemoryModel). Named *Kind to avoid clashing with the patch.MemoryModel
// patch type.
type MemoryModelKind uint32

const (
	MemoryModelSimple  MemoryModelKind = 0
	MemoryModelGLSL450 MemoryModelKind = 1
	MemoryModelOpenCL  MemoryModelKind = 2
	MemoryModelVulkan  MemoryModelKind = 3
)

// FunctionControl represents the function-control mask on OpFunction.
type FunctionControl uint32

const (
	FunctionControlNone FunctionControl = 0x0
)

// Capability represents a SPIR-V capability.
type Capability uint32

// Capabilities the engine inspects or appends. Values per the SPIR-V spec.
const (
	CapabilityMatrix                             Capability = 0
	CapabilityShader                              Capability = 1
	CapabilityGeometry                            Capability = 2
	CapabilityKernel                              Capability = 6
	CapabilityFloat16                             Capability = 9
	CapabilityFloat64                             Capability = 10
	CapabilityInt64                               Capability = 11
	CapabilityInt16                               Capability = 22
	CapabilityInt8                                Capability = 39
	CapabilityLinkage                             Capability = 5
	CapabilityShaderNonUniform                    Capability = 5301
	CapabilityRuntimeDescriptorArray              Capability = 5302
	CapabilitySampledImageArrayNonUniformIndexing Capability = 5305
	CapabilityStorageBufferArrayNonUniformIndexing Capability = 5307
	CapabilityStorageImageArrayNonUniformIndexing Capability = 5308
)

// SourceExtensions / extensions the engine names explicitly.
const (
	ExtDescriptorIndexing = "SPV_EXT_descriptor_indexing"
)

// GLSLExtInstImportName is the canonical name of the GLSL.std.450 extended
// instruction set. Nothing in the engine special-cases it; OpExtInstImport
// instructions are carried through like any other.
const GLSLExtInstImportName = "GLSL.std.450"
