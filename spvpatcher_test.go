package spvpatcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/spv-patcher/patch"
	"github.com/gogpu/spv-patcher/spirv"
)

func buildTrivialModule() *spirv.Module {
	m := spirv.NewModule(spirv.Version1_3)
	m.AddCapability(spirv.CapabilityShader)
	mm := spirv.Instruction{Opcode: spirv.OpMemoryModel,
		Operands: []uint32{uint32(spirv.AddressingModelLogical), uint32(spirv.MemoryModelGLSL450)}}
	m.MemoryModel = &mm

	intType := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals, spirv.Instruction{Opcode: spirv.OpTypeInt, Operands: []uint32{intType, 32, 1}})
	constID := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals, spirv.Instruction{Opcode: spirv.OpConstant, Operands: []uint32{intType, constID, 4}})

	voidType := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals, spirv.Instruction{Opcode: spirv.OpTypeVoid, Operands: []uint32{voidType}})
	fnType := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals, spirv.Instruction{Opcode: spirv.OpTypeFunction, Operands: []uint32{fnType, voidType}})

	fn := m.NextID()
	label := m.NextID()
	m.Functions = append(m.Functions, spirv.Function{
		Header: spirv.Instruction{Opcode: spirv.OpFunction, Operands: []uint32{voidType, fn, 0, fnType}},
		Blocks: []spirv.BasicBlock{{
			Label:        spirv.Instruction{Opcode: spirv.OpLabel, Operands: []uint32{label}},
			Instructions: []spirv.Instruction{{Opcode: spirv.OpReturn}},
		}},
	})
	m.SetName(fn, "main")
	m.EntryPoints = append(m.EntryPoints, spirv.Instruction{Opcode: spirv.OpEntryPoint, Operands: []uint32{uint32(spirv.ExecutionModelGLCompute), fn}})
	return m
}

func TestApplyPatches_RunsSequenceAndAssembles(t *testing.T) {
	m := buildTrivialModule()
	bin := m.AssembleBytes()

	out, err := ApplyPatches(bin, patch.MutateConstantInt{From: 4, To: 8}, patch.StripDebug{StripOpLine: true, StripOpSource: true})
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	reparsed, err := Load(out)
	require.NoError(t, err)
	assert.Empty(t, reparsed.DebugNames)
}

func TestApplyPatches_FailsFastOnBadInput(t *testing.T) {
	_, err := ApplyPatches([]byte{0x01, 0x02}, patch.StripDebug{})
	require.Error(t, err)
}
