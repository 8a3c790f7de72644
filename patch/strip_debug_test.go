package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/spv-patcher/spirv"
)

func TestStripDebug_RemovesNamesLinesAndSource(t *testing.T) {
	target, intType, fnType, calcFn := buildCalcModule(spirv.OpIAdd)
	addMainCaller(target, intType, fnType, calcFn)

	target.DebugStrings = append(target.DebugStrings,
		spirv.Instruction{Opcode: spirv.OpSource, Operands: []uint32{1, 450}})

	fileID := target.NextID()
	fn := &target.Functions[0]
	lined := []spirv.Instruction{{Opcode: 8 /* OpLine */, Operands: []uint32{fileID, 1, 0}}}
	lined = append(lined, fn.Blocks[0].Instructions...)
	fn.Blocks[0].Instructions = lined

	require.NotEmpty(t, target.DebugNames)
	require.NotEmpty(t, target.DebugStrings)

	p := NewPatcher(target)
	result, err := p.Apply(StripDebug{StripOpLine: true, StripOpSource: true})
	require.NoError(t, err)

	m, err := result.AsFlat()
	require.NoError(t, err)

	assert.Empty(t, m.DebugNames)
	assert.Empty(t, m.DebugStrings)
	for _, inst := range m.Functions[0].Blocks[0].Instructions {
		assert.NotEqual(t, spirv.OpCode(8), inst.Opcode)
	}
}

func TestStripDebug_KeepsLinesWhenNotRequested(t *testing.T) {
	target, intType, fnType, calcFn := buildCalcModule(spirv.OpIAdd)
	addMainCaller(target, intType, fnType, calcFn)

	fn := &target.Functions[0]
	fileID := target.NextID()
	lined := []spirv.Instruction{{Opcode: 8, Operands: []uint32{fileID, 1, 0}}}
	lined = append(lined, fn.Blocks[0].Instructions...)
	fn.Blocks[0].Instructions = lined
	before := len(fn.Blocks[0].Instructions)

	p := NewPatcher(target)
	result, err := p.Apply(StripDebug{StripOpLine: false, StripOpSource: false})
	require.NoError(t, err)

	m, err := result.AsFlat()
	require.NoError(t, err)
	assert.Len(t, m.Functions[0].Blocks[0].Instructions, before)
}
