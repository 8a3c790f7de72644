package patch

import "github.com/gogpu/spv-patcher/spirv"

// buildCalcModule builds a module declaring a 32-bit signed int type, a
// (int,int)->int function type, and a two-parameter function named
// "calculation" whose body combines its two parameters with combine
// (OpIAdd or OpIMul) and returns the result. Shared by the constant-
// mutation and link-merge tests, which both need a small arithmetic
// function to operate on.
func buildCalcModule(combine spirv.OpCode) (m *spirv.Module, intType, fnType, calcFn uint32) {
	m = spirv.NewModule(spirv.Version1_3)
	m.AddCapability(spirv.CapabilityShader)
	mm := spirv.Instruction{Opcode: spirv.OpMemoryModel,
		Operands: []uint32{uint32(spirv.AddressingModelLogical), uint32(spirv.MemoryModelGLSL450)}}
	m.MemoryModel = &mm

	intType = m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals,
		spirv.Instruction{Opcode: spirv.OpTypeInt, Operands: []uint32{intType, 32, 1}})

	fnType = m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals,
		spirv.Instruction{Opcode: spirv.OpTypeFunction, Operands: []uint32{fnType, intType, intType, intType}})

	calcFn = m.NextID()
	paramA := m.NextID()
	paramB := m.NextID()
	fnInst := spirv.Instruction{Opcode: spirv.OpFunction, Operands: []uint32{intType, calcFn, 0, fnType}}
	params := []spirv.Instruction{
		{Opcode: spirv.OpFunctionParameter, Operands: []uint32{intType, paramA}},
		{Opcode: spirv.OpFunctionParameter, Operands: []uint32{intType, paramB}},
	}

	label := m.NextID()
	result := m.NextID()
	block := spirv.BasicBlock{
		Label: spirv.Instruction{Opcode: spirv.OpLabel, Operands: []uint32{label}},
		Instructions: []spirv.Instruction{
			{Opcode: combine, Operands: []uint32{intType, result, paramA, paramB}},
			{Opcode: spirv.OpReturnValue, Operands: []uint32{result}},
		},
	}
	m.Functions = append(m.Functions, spirv.Function{Header: fnInst, Parameters: params, Blocks: []spirv.BasicBlock{block}})
	m.SetName(calcFn, "calculation")
	return m, intType, fnType, calcFn
}

// addMainCaller adds a void "main" entry point to m that calls calcFn with
// two int constants (2 and 3) and discards the result.
func addMainCaller(m *spirv.Module, intType, _ uint32, calcFn uint32) {
	voidType := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals, spirv.Instruction{Opcode: spirv.OpTypeVoid, Operands: []uint32{voidType}})
	mainFnType := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals, spirv.Instruction{Opcode: spirv.OpTypeFunction, Operands: []uint32{mainFnType, voidType}})

	constA := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals, spirv.Instruction{Opcode: spirv.OpConstant, Operands: []uint32{intType, constA, 2}})
	constB := m.NextID()
	m.TypesConstantsGlobals = append(m.TypesConstantsGlobals, spirv.Instruction{Opcode: spirv.OpConstant, Operands: []uint32{intType, constB, 3}})

	mainFn := m.NextID()
	fnInst := spirv.Instruction{Opcode: spirv.OpFunction, Operands: []uint32{voidType, mainFn, 0, mainFnType}}
	label := m.NextID()
	callResult := m.NextID()
	block := spirv.BasicBlock{
		Label: spirv.Instruction{Opcode: spirv.OpLabel, Operands: []uint32{label}},
		Instructions: []spirv.Instruction{
			{Opcode: spirv.OpFunctionCall, Operands: []uint32{intType, callResult, calcFn, constA, constB}},
			{Opcode: spirv.OpReturn},
		},
	}
	m.Functions = append(m.Functions, spirv.Function{Header: fnInst, Blocks: []spirv.BasicBlock{block}})
	m.SetName(mainFn, "main")
	m.EntryPoints = append(m.EntryPoints,
		spirv.Instruction{Opcode: spirv.OpEntryPoint, Operands: []uint32{uint32(spirv.ExecutionModelGLCompute), mainFn}})
}
