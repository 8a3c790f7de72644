package typegraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/spv-patcher/spirv"
)

func buildVec4Module(t *testing.T) (*spirv.Module, uint32, uint32) {
	t.Helper()
	m := spirv.NewModule(spirv.Version1_3)
	floatID := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals,
		spirv.Instruction{Opcode: spirv.OpTypeFloat, Operands: []uint32{floatID, 32}})
	vec4ID := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals,
		spirv.Instruction{Opcode: spirv.OpTypeVector, Operands: []uint32{vec4ID, floatID, 4}})
	return m, floatID, vec4ID
}

func TestBuild_ResolvesScalarAndVector(t *testing.T) {
	m, floatID, vec4ID := buildVec4Module(t)

	g, err := Build(m)
	require.NoError(t, err)

	floatNode, ok := g.NodeByID(floatID)
	require.True(t, ok)
	assert.Equal(t, KindFloat, floatNode.Kind)
	assert.EqualValues(t, 32, floatNode.Width)

	vecNode, ok := g.NodeByID(vec4ID)
	require.True(t, ok)
	assert.Equal(t, KindVector, vecNode.Kind)
	assert.EqualValues(t, 4, vecNode.Count)
	assert.True(t, Equal(vecNode.Elem, floatNode))
}

func TestBuild_StructuralEqualityAcrossDifferentIDs(t *testing.T) {
	m1, _, vec4a := buildVec4Module(t)
	m2, _, vec4b := buildVec4Module(t)
	// Shift every id in m2 up so the two modules' numbering disagrees. The
	// float width and vector count are literals, not ids, and stay as they are.
	m2.TypesConstantsGlobals[0].Operands[0] += 100 // float result id
	m2.TypesConstantsGlobals[1].Operands[0] += 100 // vector result id
	m2.TypesConstantsGlobals[1].Operands[1] += 100 // vector element type id
	vec4b += 100

	g1, err := Build(m1)
	require.NoError(t, err)
	g2, err := Build(m2)
	require.NoError(t, err)

	n1, ok := g1.NodeByID(vec4a)
	require.True(t, ok)
	n2, ok := g2.NodeByID(vec4b)
	require.True(t, ok)

	assert.True(t, Equal(n1, n2))
	assert.Equal(t, Key(n1), Key(n2))
}

func TestBuild_StructOffsetsAreStructural(t *testing.T) {
	m := spirv.NewModule(spirv.Version1_3)
	floatID := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals,
		spirv.Instruction{Opcode: spirv.OpTypeFloat, Operands: []uint32{floatID, 32}})
	structID := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals,
		spirv.Instruction{Opcode: spirv.OpTypeStruct, Operands: []uint32{structID, floatID, floatID}})
	m.Annotations = append(m.Annotations,
		spirv.Instruction{Opcode: spirv.OpMemberDecorate, Operands: []uint32{structID, 0, uint32(spirv.DecorationOffset), 0}},
		spirv.Instruction{Opcode: spirv.OpMemberDecorate, Operands: []uint32{structID, 1, uint32(spirv.DecorationOffset), 16}},
	)

	g, err := Build(m)
	require.NoError(t, err)

	n, ok := g.NodeByID(structID)
	require.True(t, ok)
	require.Len(t, n.Members, 2)
	assert.EqualValues(t, 0, n.Members[0].Offset)
	assert.EqualValues(t, 16, n.Members[1].Offset)
}

func TestBuild_RejectsUnresolvableType(t *testing.T) {
	m := spirv.NewModule(spirv.Version1_3)
	// A vector referencing a scalar id that is never declared.
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals,
		spirv.Instruction{Opcode: spirv.OpTypeVector, Operands: []uint32{m.NextID(), 999, 4}})

	_, err := Build(m)
	require.Error(t, err)
}
