package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/spv-patcher/spirv"
)

func TestMemoryModel_RewritesWhenFromMatches(t *testing.T) {
	target, intType, fnType, calcFn := buildCalcModule(spirv.OpIAdd)
	addMainCaller(target, intType, fnType, calcFn)

	p := NewPatcher(target)
	result, err := p.Apply(MemoryModel{From: spirv.MemoryModelGLSL450, To: spirv.MemoryModelVulkan})
	require.NoError(t, err)

	m, err := result.AsFlat()
	require.NoError(t, err)
	assert.Equal(t, uint32(spirv.MemoryModelVulkan), m.MemoryModel.Operands[1])
}

func TestMemoryModel_RejectsMismatchedFrom(t *testing.T) {
	target, intType, fnType, calcFn := buildCalcModule(spirv.OpIAdd)
	addMainCaller(target, intType, fnType, calcFn)

	p := NewPatcher(target)
	_, err := p.Apply(MemoryModel{From: spirv.MemoryModelVulkan, To: spirv.MemoryModelGLSL450})
	require.Error(t, err)
}
