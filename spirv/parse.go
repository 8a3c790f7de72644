package spirv

import "encoding/binary"

// Parse decodes a SPIR-V binary (little-endian words) into a flat Module.
// It fails with KindParse on a malformed or truncated stream, and with
// KindInvalidModule if the freshly parsed module violates one of the
// flat-IR invariants from §3 (no memory model, not exactly one entry
// point, a dangling id reference).
func Parse(data []byte) (*Module, error) {
	if len(data) < MinByteCount {
		return nil, NewError(KindParse, "parse", "input shorter than a SPIR-V header")
	}
	if len(data)%4 != 0 {
		return nil, NewError(KindParse, "parse", "input length is not a multiple of 4 bytes")
	}

	magic := binary.LittleEndian.Uint32(data[0:4])
	if magic != MagicNumber {
		return nil, NewError(KindParse, "parse", "invalid SPIR-V magic number")
	}

	versionWord := binary.LittleEndian.Uint32(data[4:8])
	generator := binary.LittleEndian.Uint32(data[8:12])
	bound := binary.LittleEndian.Uint32(data[12:16])
	schema := binary.LittleEndian.Uint32(data[16:20])

	m := &Module{
		Header: Header{
			Version:   Version{Major: uint8(versionWord >> 16), Minor: uint8(versionWord >> 8)},
			Generator: generator,
			Schema:    schema,
		},
		bound: bound,
	}

	insts, err := decodeInstructions(data[20:])
	if err != nil {
		return nil, err
	}

	if err := m.classify(insts); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// decodeInstructions walks the raw word stream after the header, splitting
// it into individual Instruction values.
func decodeInstructions(body []byte) ([]Instruction, error) {
	var insts []Instruction
	offset := 0
	for offset < len(body) {
		if offset+4 > len(body) {
			return nil, NewError(KindParse, "parse", "truncated instruction header")
		}
		word := binary.LittleEndian.Uint32(body[offset:])
		opcode := OpCode(word & 0xFFFF)
		wordCount := int(word >> 16)
		if wordCount == 0 {
			return nil, NewError(KindParse, "parse", "instruction with zero word count")
		}
		end := offset + wordCount*4
		if end > len(body) {
			return nil, NewError(KindParse, "parse", "instruction word count overruns module")
		}
		operands := make([]uint32, wordCount-1)
		for i := range operands {
			operands[i] = binary.LittleEndian.Uint32(body[offset+4+i*4:])
		}
		insts = append(insts, Instruction{Opcode: opcode, Operands: operands})
		offset = end
	}
	return insts, nil
}

// classify walks the flat instruction list once, in order, distributing
// each instruction into its section. Instructions are required by the
// SPIR-V spec to appear in this order, with Functions (delimited by
// OpFunction/OpFunctionEnd, and within a function by OpLabel) always last.
func (m *Module) classify(insts []Instruction) error {
	var (
		curFunc  *Function
		curBlock *BasicBlock
	)

	flushBlock := func() {
		if curBlock != nil && curFunc != nil {
			curFunc.Blocks = append(curFunc.Blocks, *curBlock)
			curBlock = nil
		}
	}
	flushFunc := func() {
		flushBlock()
		if curFunc != nil {
			m.Functions = append(m.Functions, *curFunc)
			curFunc = nil
		}
	}

	for _, inst := range insts {
		switch inst.Opcode {
		case OpCapability:
			m.Capabilities = append(m.Capabilities, inst)
		case OpExtension:
			m.Extensions = append(m.Extensions, inst)
		case OpExtInstImport:
			m.ExtInstImports = append(m.ExtInstImports, inst)
		case OpMemoryModel:
			if m.MemoryModel != nil {
				return NewError(KindInvalidModule, "parse", "more than one OpMemoryModel instruction")
			}
			cp := inst
			m.MemoryModel = &cp
		case OpEntryPoint:
			m.EntryPoints = append(m.EntryPoints, inst)
		case OpExecutionMode:
			m.ExecutionModes = append(m.ExecutionModes, inst)
		case OpSource, OpSourceContinued, OpSourceExtension, OpString:
			m.DebugStrings = append(m.DebugStrings, inst)
		case OpName, OpMemberName:
			m.DebugNames = append(m.DebugNames, inst)
		case OpDecorate, OpMemberDecorate, OpDecorationGroup, OpGroupDecorate,
			OpGroupMemberDecorate, OpDecorateId, OpDecorateString, OpMemberDecorateString:
			m.Annotations = append(m.Annotations, inst)
		case OpFunction:
			flushFunc()
			f := &Function{Header: inst}
			curFunc = f
		case OpFunctionParameter:
			if curFunc == nil {
				return NewError(KindParse, "parse", "OpFunctionParameter outside a function")
			}
			curFunc.Parameters = append(curFunc.Parameters, inst)
		case OpFunctionEnd:
			flushFunc()
		case OpLabel:
			if curFunc == nil {
				return NewError(KindParse, "parse", "OpLabel outside a function")
			}
			flushBlock()
			curBlock = &BasicBlock{Label: inst}
		default:
			if curFunc == nil {
				// Global types/constants/variables section: a single
				// ordered bag, per §3 ("order encodes dependencies").
				m.TypesConstantsGlobals = append(m.TypesConstantsGlobals, inst)
			} else {
				if curBlock == nil {
					return NewError(KindParse, "parse", "instruction inside function body before first OpLabel")
				}
				curBlock.Instructions = append(curBlock.Instructions, inst)
			}
		}
	}
	flushFunc()
	return nil
}
