package spirv

import "fmt"

// Module is the flat-IR form of a SPIR-V module: an ordered sequence of
// instruction sections, exactly as laid out by the SPIR-V binary format.
// Order within TypesConstantsGlobals and within Functions is semantically
// significant (it encodes id-definition-before-use dependencies); order
// within the other sections matters only where the spec requires it
// (there is exactly one MemoryModel instruction and exactly one entry
// point; everything else is a bag that happens to be kept in a slice so
// re-emission is deterministic).
type Module struct {
	Header Header

	Capabilities          []Instruction
	Extensions            []Instruction
	ExtInstImports         []Instruction
	MemoryModel           *Instruction
	EntryPoints           []Instruction
	ExecutionModes        []Instruction
	DebugStrings          []Instruction // OpSource, OpSourceExtension, OpString
	DebugNames            []Instruction // OpName, OpMemberName
	Annotations           []Instruction // OpDecorate, OpMemberDecorate, ...
	TypesConstantsGlobals []Instruction // OpType*, OpConstant*, global OpVariable (with its result type)
	Functions             []Function

	// bound is the next-id high-water mark at parse/construction time; it
	// only ever grows (see NextID), it is never recomputed from scratch,
	// so ids handed out by one patch stay valid across later patches even
	// if an earlier patch removed instructions.
	bound uint32
}

// Header mirrors the 5-word SPIR-V module header.
type Header struct {
	Version   Version
	Generator uint32
	Bound     uint32
	Schema    uint32
}

// Function is one function definition: the OpFunction header, its
// OpFunctionParameter instructions, and its ordered basic blocks.
type Function struct {
	Header     Instruction // OpFunction
	Parameters []Instruction
	Blocks     []BasicBlock
}

// BasicBlock is an OpLabel followed by its body instructions, ending in a
// block-terminator instruction (OpBranch, OpBranchConditional, OpSwitch,
// OpReturn, OpReturnValue, OpKill or OpUnreachable).
type BasicBlock struct {
	Label        Instruction
	Instructions []Instruction
}

// ResultID returns the function's result id (the id other instructions,
// e.g. OpFunctionCall and OpEntryPoint, use to refer to this function).
func (f Function) ResultID() uint32 {
	id, _ := f.Header.ResultID()
	return id
}

// ResultType returns the function's return-type id.
func (f Function) ResultType() uint32 {
	t, _ := f.Header.ResultType()
	return t
}

// ParamTypes returns the ordered list of parameter type ids.
func (f Function) ParamTypes() []uint32 {
	types := make([]uint32, 0, len(f.Parameters))
	for _, p := range f.Parameters {
		if t, ok := p.ResultType(); ok {
			types = append(types, t)
		}
	}
	return types
}

// NewModule creates an empty flat module targeting the given version, with
// bound seeded to 1 (id 0 is never valid in SPIR-V).
func NewModule(version Version) *Module {
	return &Module{
		Header: Header{Version: version, Generator: GeneratorID, Schema: 0},
		bound:  1,
	}
}

// NextID hands out a fresh id strictly greater than every id currently in
// use in the module. Per §5's id-space discipline, this is the only way new
// instructions acquire an id when a patch emits one (e.g. decorate steps
// never need a new id, but the nonuniform pass's access-chain bookkeeping
// and link-merge's import stub might).
func (m *Module) NextID() uint32 {
	id := m.bound
	m.bound++
	return id
}

// ObserveID grows the bound to be at least one past id, if it isn't
// already. Called while parsing, and whenever a patch copies an
// instruction from another module (e.g. link-merge) so ids borrowed from a
// foreign module's numbering don't collide with this module's own.
func (m *Module) ObserveID(id uint32) {
	if id >= m.bound {
		m.bound = id + 1
	}
}

// Bound returns the current id bound (one past the highest id in use).
func (m *Module) Bound() uint32 {
	return m.bound
}

// AllInstructions returns every instruction in the module in canonical
// section order — the exact order Assemble will emit them in (less the
// OpFunctionEnd Assemble adds after each function). Used by Validate, which
// needs a single deterministic walk over the module.
func (m *Module) AllInstructions() []Instruction {
	out := make([]Instruction, 0, 64)
	out = append(out, m.Capabilities...)
	out = append(out, m.Extensions...)
	out = append(out, m.ExtInstImports...)
	if m.MemoryModel != nil {
		out = append(out, *m.MemoryModel)
	}
	out = append(out, m.EntryPoints...)
	out = append(out, m.ExecutionModes...)
	out = append(out, m.DebugStrings...)
	out = append(out, m.DebugNames...)
	out = append(out, m.Annotations...)
	out = append(out, m.TypesConstantsGlobals...)
	for _, fn := range m.Functions {
		out = append(out, fn.Header)
		out = append(out, fn.Parameters...)
		for _, blk := range fn.Blocks {
			out = append(out, blk.Label)
			out = append(out, blk.Instructions...)
		}
	}
	return out
}

// Validate checks the flat-IR invariants from §3: exactly one memory model,
// exactly one entry point, unique result ids, and every id-ref resolving to
// a defined instruction.
func (m *Module) Validate() error {
	if m.MemoryModel == nil {
		return NewError(KindInvalidModule, "validate", "module has no OpMemoryModel instruction")
	}
	if len(m.EntryPoints) != 1 {
		return NewError(KindInvalidModule, "validate",
			fmt.Sprintf("module must have exactly one entry point, found %d", len(m.EntryPoints)))
	}

	defined := make(map[uint32]bool, 256)
	for _, inst := range m.AllInstructions() {
		if id, ok := inst.ResultID(); ok {
			if defined[id] {
				return NewError(KindInvalidModule, "validate", fmt.Sprintf("duplicate result id %%%d", id))
			}
			defined[id] = true
		}
	}
	for _, inst := range m.AllInstructions() {
		for _, ref := range inst.IDRefs() {
			// Not every operand word is actually an id ref (literals,
			// e.g. OpConstant's value, are indistinguishable from ids at
			// this layer) so we only flag refs that look like ids (are
			// below the bound) and aren't defined; this catches the
			// invariant violation class the spec cares about (dangling
			// references introduced by a buggy patch) without rejecting
			// legitimate small-integer literal operands that happen to
			// also be below the bound, since a literal equal to a real
			// defined id is not a correctness concern.
			if ref != 0 && ref < m.bound && !defined[ref] && looksLikeIDRef(inst.Opcode) {
				return NewError(KindInvalidModule, "validate",
					fmt.Sprintf("instruction references undefined id %%%d", ref))
			}
		}
	}
	return nil
}

// looksLikeIDRef restricts the dangling-reference check to opcodes whose
// operands (after result/result-type) are unambiguously id references, as
// opposed to opcodes like OpConstant/OpConstantComposite whose trailing
// operands are literal values that must not be validated as ids.
func looksLikeIDRef(op OpCode) bool {
	switch op {
	case OpConstant, OpConstantComposite, OpEntryPoint, OpExecutionMode:
		return false
	default:
		return true
	}
}
