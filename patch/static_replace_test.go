package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/spv-patcher/spirv"
)

func TestStaticReplace_SwapsFunctionBody(t *testing.T) {
	target, intType, fnType, calcFn := buildCalcModule(spirv.OpIAdd)
	addMainCaller(target, intType, fnType, calcFn)

	repl, _, _, replCalc := buildCalcModule(spirv.OpIMul)
	repl.DecorateLinkage(replCalc, "calculation", spirv.LinkageTypeExport)

	p := NewPatcher(target)
	result, err := p.Apply(StaticReplace{Replacement: repl, ReplacementIndex: 0})
	require.NoError(t, err)

	m, err := result.AsFlat()
	require.NoError(t, err)
	require.NoError(t, m.Validate())

	assert.False(t, m.HasAnyLinkageAttributes())
	assert.False(t, m.HasCapability(spirv.CapabilityLinkage))

	var calleeBody []spirv.Instruction
	for _, fn := range m.Functions {
		name, ok := m.GetName(fn.ResultID())
		if !ok || name != "main" {
			continue
		}
		for _, blk := range fn.Blocks {
			for _, inst := range blk.Instructions {
				if inst.Opcode != spirv.OpFunctionCall {
					continue
				}
				callee, ok := m.FindFunction(inst.Operands[2])
				require.True(t, ok)
				require.NotEmpty(t, callee.Blocks)
				calleeBody = callee.Blocks[0].Instructions
			}
		}
	}
	require.NotEmpty(t, calleeBody)
	assert.Equal(t, spirv.OpIMul, calleeBody[0].Opcode)
}

func TestStaticReplace_RejectsMissingLinkageAttributes(t *testing.T) {
	target, intType, fnType, calcFn := buildCalcModule(spirv.OpIAdd)
	addMainCaller(target, intType, fnType, calcFn)
	repl, _, _, _ := buildCalcModule(spirv.OpIMul) // no Export decoration

	p := NewPatcher(target)
	_, err := p.Apply(StaticReplace{Replacement: repl, ReplacementIndex: 0})
	require.Error(t, err)
}

func TestStaticReplace_RejectsSignatureMismatch(t *testing.T) {
	target, intType, fnType, calcFn := buildCalcModule(spirv.OpIAdd)
	addMainCaller(target, intType, fnType, calcFn)

	// float(): the target has int(int, int) and void() but nothing
	// returning float with no parameters.
	repl := spirv.NewModule(spirv.Version1_3)
	floatType := repl.NextID()
	repl.TypesConstantsGlobals = append(repl.TypesConstantsGlobals, spirv.Instruction{Opcode: spirv.OpTypeFloat, Operands: []uint32{floatType, 32}})
	zero := repl.NextID()
	repl.TypesConstantsGlobals = append(repl.TypesConstantsGlobals, spirv.Instruction{Opcode: spirv.OpConstant, Operands: []uint32{floatType, zero, 0}})
	fnTypeRepl := repl.NextID()
	repl.TypesConstantsGlobals = append(repl.TypesConstantsGlobals, spirv.Instruction{Opcode: spirv.OpTypeFunction, Operands: []uint32{fnTypeRepl, floatType}})
	replFn := repl.NextID()
	fnInst := spirv.Instruction{Opcode: spirv.OpFunction, Operands: []uint32{floatType, replFn, 0, fnTypeRepl}}
	label := repl.NextID()
	repl.Functions = append(repl.Functions, spirv.Function{
		Header: fnInst,
		Blocks: []spirv.BasicBlock{{Label: spirv.Instruction{Opcode: spirv.OpLabel, Operands: []uint32{label}}, Instructions: []spirv.Instruction{{Opcode: spirv.OpReturnValue, Operands: []uint32{zero}}}}},
	})
	repl.DecorateLinkage(replFn, "doesNotMatchAnything", spirv.LinkageTypeExport)

	p := NewPatcher(target)
	_, err := p.Apply(StaticReplace{Replacement: repl, ReplacementIndex: 0})
	require.Error(t, err)
}
