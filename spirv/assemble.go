package spirv

import "encoding/binary"

// Assemble emits the module as SPIR-V words in canonical section order.
// This is the only way a flat Module is turned back into a binary — there
// is deliberately no way to splice two modules' word streams together
// (link-merge copies a replacement's instructions in only after renumbering
// them into this module's id space). Each function is closed with the
// OpFunctionEnd that Parse consumes as its delimiter.
func (m *Module) Assemble() []uint32 {
	total := HeaderWords
	count := func(insts []Instruction) int {
		n := 0
		for _, inst := range insts {
			n += inst.WordCount()
		}
		return n
	}
	total += count(m.Capabilities)
	total += count(m.Extensions)
	total += count(m.ExtInstImports)
	if m.MemoryModel != nil {
		total += m.MemoryModel.WordCount()
	}
	total += count(m.EntryPoints)
	total += count(m.ExecutionModes)
	total += count(m.DebugStrings)
	total += count(m.DebugNames)
	total += count(m.Annotations)
	total += count(m.TypesConstantsGlobals)
	for _, fn := range m.Functions {
		total += fn.Header.WordCount()
		total += count(fn.Parameters)
		for _, blk := range fn.Blocks {
			total += blk.Label.WordCount()
			total += count(blk.Instructions)
		}
		total++ // OpFunctionEnd
	}

	words := make([]uint32, 0, total)
	words = append(words,
		MagicNumber,
		versionWord(m.Header.Version),
		m.Header.Generator,
		m.bound,
		m.Header.Schema,
	)

	appendAll := func(insts []Instruction) {
		for _, inst := range insts {
			words = append(words, inst.Encode()...)
		}
	}
	appendAll(m.Capabilities)
	appendAll(m.Extensions)
	appendAll(m.ExtInstImports)
	if m.MemoryModel != nil {
		words = append(words, m.MemoryModel.Encode()...)
	}
	appendAll(m.EntryPoints)
	appendAll(m.ExecutionModes)
	appendAll(m.DebugStrings)
	appendAll(m.DebugNames)
	appendAll(m.Annotations)
	appendAll(m.TypesConstantsGlobals)
	for _, fn := range m.Functions {
		words = append(words, fn.Header.Encode()...)
		appendAll(fn.Parameters)
		for _, blk := range fn.Blocks {
			words = append(words, blk.Label.Encode()...)
			appendAll(blk.Instructions)
		}
		words = append(words, Instruction{Opcode: OpFunctionEnd}.Encode()...)
	}
	return words
}

// AssembleBytes emits the module as little-endian bytes, bit-exact with
// Assemble's words reinterpreted as little-endian uint32s.
func (m *Module) AssembleBytes() []byte {
	words := m.Assemble()
	out := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

func versionWord(v Version) uint32 {
	return (uint32(v.Major) << 16) | (uint32(v.Minor) << 8)
}
