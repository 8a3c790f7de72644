package funcfind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/spv-patcher/spirv"
)

func buildTwoFuncModule() *spirv.Module {
	m := spirv.NewModule(spirv.Version1_3)
	intType := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals, spirv.Instruction{Opcode: spirv.OpTypeInt, Operands: []uint32{intType, 32, 1}})
	fnType := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals, spirv.Instruction{Opcode: spirv.OpTypeFunction, Operands: []uint32{fnType, intType, intType}})

	newFunc := func(name string) uint32 {
		id := m.NextID()
		param := m.NextID()
		label := m.NextID()
		fnInst := spirv.Instruction{Opcode: spirv.OpFunction, Operands: []uint32{intType, id, 0, fnType}}
		m.Functions = append(m.Functions, spirv.Function{
			Header:     fnInst,
			Parameters: []spirv.Instruction{{Opcode: spirv.OpFunctionParameter, Operands: []uint32{intType, param}}},
			Blocks: []spirv.BasicBlock{{
				Label:        spirv.Instruction{Opcode: spirv.OpLabel, Operands: []uint32{label}},
				Instructions: []spirv.Instruction{{Opcode: spirv.OpReturnValue, Operands: []uint32{param}}},
			}},
		})
		m.SetName(id, name)
		return id
	}
	newFunc("identity")
	newFunc("identity_v2")
	return m
}

func TestEnumerate_ListsEveryFunction(t *testing.T) {
	m := buildTwoFuncModule()
	infos := Enumerate(m)
	require.Len(t, infos, 2)
	assert.Equal(t, "identity", infos[0].Name)
	assert.True(t, infos[0].HasName)
	assert.Len(t, infos[0].Signature.ParamTypes, 1)
}

func TestFind_ByExactName(t *testing.T) {
	m := buildTwoFuncModule()
	headers, warnings := Find(m, NewNameIdent("identity"))
	require.Len(t, headers, 1)
	assert.Empty(t, warnings)
}

func TestFind_BySubstringWarns(t *testing.T) {
	m := buildTwoFuncModule()
	headers, warnings := Find(m, NewNameIdent("entity"))
	require.Len(t, headers, 2)
	assert.NotEmpty(t, warnings)
}

func TestFind_BySignature(t *testing.T) {
	m := buildTwoFuncModule()
	sig := Enumerate(m)[0].Signature
	headers, warnings := Find(m, NewSignatureIdent(sig))
	require.Len(t, headers, 2) // both functions share the same signature
	assert.NotEmpty(t, warnings)
}
