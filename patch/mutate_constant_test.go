package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/spv-patcher/spirv"
)

func TestMutateConstantInt_RewritesMatchingLiteral(t *testing.T) {
	target, intType, fnType, calcFn := buildCalcModule(spirv.OpIAdd)
	addMainCaller(target, intType, fnType, calcFn)

	p := NewPatcher(target)
	result, err := p.Apply(MutateConstantInt{From: 2, To: 99})
	require.NoError(t, err)

	m, err := result.AsFlat()
	require.NoError(t, err)

	found := false
	for _, inst := range m.TypesConstantsGlobals {
		if inst.Opcode == spirv.OpConstant && len(inst.Operands) == 3 && inst.Operands[2] == 99 {
			found = true
		}
		assert.NotEqual(t, uint32(2), constLiteral(inst))
	}
	assert.True(t, found)
}

func TestMutateConstantInt_ZeroMatchesIsNotAnError(t *testing.T) {
	target, intType, fnType, calcFn := buildCalcModule(spirv.OpIAdd)
	addMainCaller(target, intType, fnType, calcFn)

	p := NewPatcher(target)
	_, err := p.Apply(MutateConstantInt{From: 12345, To: 1})
	require.NoError(t, err)
}

func TestMutateConstantFloat_ComparesByBitPattern(t *testing.T) {
	m := spirv.NewModule(spirv.Version1_3)
	floatType := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals, spirv.Instruction{Opcode: spirv.OpTypeFloat, Operands: []uint32{floatType, 32}})
	constID := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals,
		spirv.Instruction{Opcode: spirv.OpConstant, Operands: []uint32{floatType, constID, 0x3F800000}}) // 1.0f

	p := NewPatcher(m)
	result, err := p.Apply(MutateConstantFloat{From: 1.0, To: 2.0})
	require.NoError(t, err)

	out, err := result.AsFlat()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x40000000), out.TypesConstantsGlobals[1].Operands[2]) // 2.0f
}

func constLiteral(inst spirv.Instruction) uint32 {
	if inst.Opcode != spirv.OpConstant || len(inst.Operands) != 3 {
		return 0
	}
	return inst.Operands[2]
}
