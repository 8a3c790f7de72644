package spirv

import "encoding/binary"

// Instruction is a single SPIR-V instruction: an opcode plus its ordered
// operand words (result-type id and result id, when present, are just the
// first operand words — SPIR-V's own layout rules say which ones they are
// for a given opcode, so Instruction does not special-case them).
type Instruction struct {
	Opcode   OpCode
	Operands []uint32
}

// WordCount is the instruction's total SPIR-V word count, including the
// opcode/word-count header word itself.
func (i Instruction) WordCount() int {
	return len(i.Operands) + 1
}

// Encode returns the instruction as SPIR-V words (header word + operands).
func (i Instruction) Encode() []uint32 {
	words := make([]uint32, 0, i.WordCount())
	words = append(words, (uint32(i.WordCount())<<16)|uint32(i.Opcode))
	words = append(words, i.Operands...)
	return words
}

// HasResult reports whether opcode op produces a result id, and whether it
// also carries a result-type id before it. This mirrors the fixed table in
// the SPIR-V machine-readable grammar, trimmed to the opcodes this engine
// ever needs to inspect a result id for.
func HasResult(op OpCode) (hasResultType, hasResult bool) {
	switch op {
	case OpNop, OpSource, OpSourceContinued, OpSourceExtension, OpName, OpMemberName,
		OpExtension, OpMemoryModel, OpEntryPoint, OpExecutionMode, OpCapability,
		OpDecorate, OpMemberDecorate, OpGroupDecorate, OpGroupMemberDecorate,
		OpDecorateId, OpDecorateString, OpMemberDecorateString,
		OpFunctionEnd, OpStore, OpLoopMerge, OpSelectionMerge, OpBranch,
		OpBranchConditional, OpSwitch, OpKill, OpReturn, OpReturnValue, OpUnreachable,
		OpTypeForwardPointer:
		return false, false
	case OpString, OpExtInstImport, OpUndef, OpTypeVoid, OpTypeBool, OpTypeInt,
		OpTypeFloat, OpTypeVector, OpTypeMatrix, OpTypeImage, OpTypeSampler,
		OpTypeSampledImage, OpTypeArray, OpTypeRuntimeArray, OpTypeStruct,
		OpTypeOpaque, OpTypePointer, OpTypeFunction, OpLabel,
		OpFunctionParameter, OpDecorationGroup:
		return false, true
	default:
		// Default assumption for value-producing instructions: result type
		// then result id are the first two operand words. This covers
		// OpConstant*, OpFunction, OpFunctionCall, OpLoad, OpAccessChain,
		// OpVariable (ResultType, Result, StorageClass, Initializer?),
		// arithmetic/logic/comparison ops, OpPhi, etc. Opcodes that do not
		// follow this convention must be added to one of the cases above.
		return true, true
	}
}

// ResultID returns the instruction's result id, if it has one.
func (i Instruction) ResultID() (uint32, bool) {
	hasType, hasResult := HasResult(i.Opcode)
	if !hasResult {
		return 0, false
	}
	idx := 0
	if hasType {
		idx = 1
	}
	if idx >= len(i.Operands) {
		return 0, false
	}
	return i.Operands[idx], true
}

// ResultType returns the instruction's result-type id, if it has one.
func (i Instruction) ResultType() (uint32, bool) {
	hasType, _ := HasResult(i.Opcode)
	if !hasType || len(i.Operands) == 0 {
		return 0, false
	}
	return i.Operands[0], true
}

// IDRefs returns every operand word that is plausibly an id reference: every
// operand after the result id (or from the start, if the instruction has no
// result). This over-approximates for opcodes with trailing non-id literal
// operands (handled case-by-case by callers that care, e.g. OpConstant's
// literal operand) but is exactly what the nonuniform taint pass and
// Validate's dangling-reference check need for "does this instruction
// refer to id X".
func (i Instruction) IDRefs() []uint32 {
	hasType, hasResult := HasResult(i.Opcode)
	start := 0
	if hasType {
		start++
	}
	if hasResult {
		start++
	}
	if start >= len(i.Operands) {
		return nil
	}
	return i.Operands[start:]
}

// instructionBuilder incrementally assembles one instruction's operand
// words, including variable-length literal-string operands.
type instructionBuilder struct {
	words []uint32
}

func newInstructionBuilder() *instructionBuilder {
	return &instructionBuilder{words: make([]uint32, 0, 8)}
}

func (b *instructionBuilder) addWord(w uint32) *instructionBuilder {
	b.words = append(b.words, w)
	return b
}

func (b *instructionBuilder) addWords(ws ...uint32) *instructionBuilder {
	b.words = append(b.words, ws...)
	return b
}

// addString appends a null-terminated, word-padded UTF-8 literal string.
func (b *instructionBuilder) addString(s string) *instructionBuilder {
	bs := []byte(s)
	bs = append(bs, 0)
	for len(bs)%4 != 0 {
		bs = append(bs, 0)
	}
	for i := 0; i < len(bs); i += 4 {
		w := uint32(bs[i]) | uint32(bs[i+1])<<8 | uint32(bs[i+2])<<16 | uint32(bs[i+3])<<24
		b.words = append(b.words, w)
	}
	return b
}

func (b *instructionBuilder) build(op OpCode) Instruction {
	return Instruction{Opcode: op, Operands: b.words}
}

// decodeString reads a null-terminated literal string starting at operand
// index start, returning the string and the number of words it occupies.
func decodeString(operands []uint32, start int) (string, int) {
	buf := make([]byte, 0, (len(operands)-start)*4)
	wordsUsed := 0
	for idx := start; idx < len(operands); idx++ {
		w := operands[idx]
		bs := [4]byte{byte(w), byte(w >> 8), byte(w >> 16), byte(w >> 24)}
		wordsUsed++
		terminated := false
		for _, c := range bs {
			if c == 0 {
				terminated = true
				break
			}
			buf = append(buf, c)
		}
		if terminated {
			break
		}
	}
	return string(buf), wordsUsed
}

func encodeUint32LE(w uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, w)
	return b
}
