package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/spv-patcher/spirv"
)

// nonUniformFixture is everything buildMissingNonUniformModule hands back,
// so the test can assert inference happened at every id the pass is
// supposed to touch.
type nonUniformFixture struct {
	loadIndex   uint32 // OpLoad of the per-invocation index
	accessChain uint32 // OpAccessChain into the runtime-array variable
	arrayVar    uint32 // the runtime-array-typed variable itself (the access chain's base)
	loadElement uint32 // OpLoad of the access chain's result
}

// buildMissingNonUniformModule builds an ordinary descriptor-indexing
// shader that forgot the NonUniform decoration entirely — scenario 2: a
// StorageBuffer-backed index variable feeds an OpAccessChain into a
// UniformConstant variable of runtime-array type, and the result is
// loaded. Nothing in this module is pre-decorated; the pass must infer
// the whole chain from the storage classes and the runtime-array type
// alone.
func buildMissingNonUniformModule(t *testing.T) (*spirv.Module, nonUniformFixture) {
	t.Helper()
	m := spirv.NewModule(spirv.Version1_3)
	m.AddCapability(spirv.CapabilityShader)
	mm := spirv.Instruction{Opcode: spirv.OpMemoryModel,
		Operands: []uint32{uint32(spirv.AddressingModelLogical), uint32(spirv.MemoryModelGLSL450)}}
	m.MemoryModel = &mm

	intType := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals,
		spirv.Instruction{Opcode: spirv.OpTypeInt, Operands: []uint32{intType, 32, 1}})
	floatType := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals,
		spirv.Instruction{Opcode: spirv.OpTypeFloat, Operands: []uint32{floatType, 32}})

	ptrIndexType := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals,
		spirv.Instruction{Opcode: spirv.OpTypePointer,
			Operands: []uint32{ptrIndexType, uint32(spirv.StorageClassStorageBuffer), intType}})

	runtimeArrayType := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals,
		spirv.Instruction{Opcode: spirv.OpTypeRuntimeArray, Operands: []uint32{runtimeArrayType, floatType}})
	ptrArrayType := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals,
		spirv.Instruction{Opcode: spirv.OpTypePointer,
			Operands: []uint32{ptrArrayType, uint32(spirv.StorageClassUniformConstant), runtimeArrayType}})
	ptrElemType := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals,
		spirv.Instruction{Opcode: spirv.OpTypePointer,
			Operands: []uint32{ptrElemType, uint32(spirv.StorageClassUniformConstant), floatType}})

	indexVar := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals,
		spirv.Instruction{Opcode: spirv.OpVariable,
			Operands: []uint32{ptrIndexType, indexVar, uint32(spirv.StorageClassStorageBuffer)}})
	arrayVar := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals,
		spirv.Instruction{Opcode: spirv.OpVariable,
			Operands: []uint32{ptrArrayType, arrayVar, uint32(spirv.StorageClassUniformConstant)}})

	voidType := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals, spirv.Instruction{Opcode: spirv.OpTypeVoid, Operands: []uint32{voidType}})
	fnType := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals, spirv.Instruction{Opcode: spirv.OpTypeFunction, Operands: []uint32{fnType, voidType}})

	fn := m.NextID()
	fnInst := spirv.Instruction{Opcode: spirv.OpFunction, Operands: []uint32{voidType, fn, 0, fnType}}
	label := m.NextID()
	loadIndex := m.NextID()
	accessChain := m.NextID()
	loadElement := m.NextID()
	block := spirv.BasicBlock{
		Label: spirv.Instruction{Opcode: spirv.OpLabel, Operands: []uint32{label}},
		Instructions: []spirv.Instruction{
			{Opcode: spirv.OpLoad, Operands: []uint32{intType, loadIndex, indexVar}},
			{Opcode: spirv.OpAccessChain, Operands: []uint32{ptrElemType, accessChain, arrayVar, loadIndex}},
			{Opcode: spirv.OpLoad, Operands: []uint32{floatType, loadElement, accessChain}},
			{Opcode: spirv.OpReturn},
		},
	}
	m.Functions = append(m.Functions, spirv.Function{Header: fnInst, Blocks: []spirv.BasicBlock{block}})
	m.SetName(fn, "main")
	m.EntryPoints = append(m.EntryPoints, spirv.Instruction{Opcode: spirv.OpEntryPoint, Operands: []uint32{uint32(spirv.ExecutionModelGLCompute), fn}})

	return m, nonUniformFixture{
		loadIndex:   loadIndex,
		accessChain: accessChain,
		arrayVar:    arrayVar,
		loadElement: loadElement,
	}
}

func TestNonUniformDecorate_InfersMissingDecorationFromScratch(t *testing.T) {
	m, fx := buildMissingNonUniformModule(t)

	// Nothing is pre-decorated: the pass must infer all of it.
	require.False(t, m.HasDecoration(fx.loadIndex, spirv.DecorationNonUniform))
	require.False(t, m.HasDecoration(fx.accessChain, spirv.DecorationNonUniform))

	p := NewPatcher(m)
	result, err := p.Apply(NonUniformDecorate{})
	require.NoError(t, err)

	out, err := result.AsFlat()
	require.NoError(t, err)

	assert.True(t, out.HasDecoration(fx.loadIndex, spirv.DecorationNonUniform), "tainted index load")
	assert.True(t, out.HasDecoration(fx.accessChain, spirv.DecorationNonUniform), "access chain into the runtime array")
	assert.True(t, out.HasDecoration(fx.arrayVar, spirv.DecorationNonUniform), "the runtime-array base pointer")
	assert.True(t, out.HasDecoration(fx.loadElement, spirv.DecorationNonUniform), "load of the access chain's result")

	assert.True(t, out.HasExtension(spirv.ExtDescriptorIndexing))
	assert.True(t, out.HasCapability(spirv.CapabilityShaderNonUniform))
	assert.True(t, out.HasCapability(spirv.CapabilityRuntimeDescriptorArray))
	assert.True(t, out.HasCapability(spirv.CapabilitySampledImageArrayNonUniformIndexing))
	assert.True(t, out.HasCapability(spirv.CapabilityStorageBufferArrayNonUniformIndexing))
	assert.True(t, out.HasCapability(spirv.CapabilityStorageImageArrayNonUniformIndexing))
}

func TestNonUniformDecorate_IsIdempotent(t *testing.T) {
	m, _ := buildMissingNonUniformModule(t)

	p := NewPatcher(m)
	result, err := p.Apply(NonUniformDecorate{})
	require.NoError(t, err)

	before, err := result.AsFlat()
	require.NoError(t, err)
	extCount := len(before.Extensions)
	capCount := len(before.Capabilities)
	annCount := len(before.Annotations)

	result, err = result.Apply(NonUniformDecorate{})
	require.NoError(t, err)
	after, err := result.AsFlat()
	require.NoError(t, err)

	assert.Len(t, after.Extensions, extCount)
	assert.Len(t, after.Capabilities, capCount)
	assert.Len(t, after.Annotations, annCount)
}

// TestNonUniformDecorate_NoRuntimeArrayIsANoOp checks that an ordinary
// uniform-only shader — no non-Uniform/PushConstant variable at all —
// is left untouched: Pass 1 never seeds anything, so the pass returns
// without adding the extension, capabilities, or any decoration.
func TestNonUniformDecorate_NoRuntimeArrayIsANoOp(t *testing.T) {
	m := spirv.NewModule(spirv.Version1_3)
	m.AddCapability(spirv.CapabilityShader)
	mm := spirv.Instruction{Opcode: spirv.OpMemoryModel,
		Operands: []uint32{uint32(spirv.AddressingModelLogical), uint32(spirv.MemoryModelGLSL450)}}
	m.MemoryModel = &mm

	intType := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals, spirv.Instruction{Opcode: spirv.OpTypeInt, Operands: []uint32{intType, 32, 1}})
	ptrType := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals,
		spirv.Instruction{Opcode: spirv.OpTypePointer, Operands: []uint32{ptrType, uint32(spirv.StorageClassUniform), intType}})
	uniformVar := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals,
		spirv.Instruction{Opcode: spirv.OpVariable, Operands: []uint32{ptrType, uniformVar, uint32(spirv.StorageClassUniform)}})

	voidType := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals, spirv.Instruction{Opcode: spirv.OpTypeVoid, Operands: []uint32{voidType}})
	fnType := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals, spirv.Instruction{Opcode: spirv.OpTypeFunction, Operands: []uint32{fnType, voidType}})

	fn := m.NextID()
	label := m.NextID()
	loadResult := m.NextID()
	m.Functions = append(m.Functions, spirv.Function{
		Header: spirv.Instruction{Opcode: spirv.OpFunction, Operands: []uint32{voidType, fn, 0, fnType}},
		Blocks: []spirv.BasicBlock{{
			Label: spirv.Instruction{Opcode: spirv.OpLabel, Operands: []uint32{label}},
			Instructions: []spirv.Instruction{
				{Opcode: spirv.OpLoad, Operands: []uint32{intType, loadResult, uniformVar}},
				{Opcode: spirv.OpReturn},
			},
		}},
	})
	m.SetName(fn, "main")
	m.EntryPoints = append(m.EntryPoints, spirv.Instruction{Opcode: spirv.OpEntryPoint, Operands: []uint32{uint32(spirv.ExecutionModelGLCompute), fn}})

	p := NewPatcher(m)
	result, err := p.Apply(NonUniformDecorate{})
	require.NoError(t, err)

	out, err := result.AsFlat()
	require.NoError(t, err)
	assert.False(t, out.HasExtension(spirv.ExtDescriptorIndexing))
	assert.Empty(t, out.Annotations)
}
