package spirv

// HasExtension reports whether the module already declares extension name
// via OpExtension.
func (m *Module) HasExtension(name string) bool {
	for _, inst := range m.Extensions {
		if s, _ := decodeString(inst.Operands, 0); s == name {
			return true
		}
	}
	return false
}

// AddExtension appends an OpExtension instruction for name, unless the
// module already declares it.
func (m *Module) AddExtension(name string) {
	if m.HasExtension(name) {
		return
	}
	b := newInstructionBuilder().addString(name)
	m.Extensions = append(m.Extensions, b.build(OpExtension))
}

// HasCapability reports whether cap is already declared.
func (m *Module) HasCapability(cap Capability) bool {
	for _, inst := range m.Capabilities {
		if len(inst.Operands) == 1 && Capability(inst.Operands[0]) == cap {
			return true
		}
	}
	return false
}

// AddCapability declares cap, idempotently: calling it twice with the same
// capability leaves the module unchanged after the first call.
func (m *Module) AddCapability(cap Capability) {
	if m.HasCapability(cap) {
		return
	}
	m.Capabilities = append(m.Capabilities, Instruction{Opcode: OpCapability, Operands: []uint32{uint32(cap)}})
}

// RemoveCapability removes cap's declaration, if present. It is a no-op if
// the capability was never declared.
func (m *Module) RemoveCapability(cap Capability) {
	out := m.Capabilities[:0]
	for _, inst := range m.Capabilities {
		if len(inst.Operands) == 1 && Capability(inst.Operands[0]) == cap {
			continue
		}
		out = append(out, inst)
	}
	m.Capabilities = out
}

// HasDecoration reports whether target already carries an OpDecorate
// annotation of kind decoration.
func (m *Module) HasDecoration(target uint32, decoration Decoration) bool {
	for _, inst := range m.Annotations {
		if inst.Opcode == OpDecorate && len(inst.Operands) >= 2 &&
			inst.Operands[0] == target && Decoration(inst.Operands[1]) == decoration {
			return true
		}
	}
	return false
}

// Decorate appends an OpDecorate annotation (target, decoration, extra...).
// It does not check for duplicates — callers that need idempotence (e.g. the
// nonuniform pass, which must not double-decorate an access chain visited
// twice) should check HasDecoration first.
func (m *Module) Decorate(target uint32, decoration Decoration, extra ...uint32) {
	operands := make([]uint32, 0, 2+len(extra))
	operands = append(operands, target, uint32(decoration))
	operands = append(operands, extra...)
	m.Annotations = append(m.Annotations, Instruction{Opcode: OpDecorate, Operands: operands})
}

// GetName returns the debug name bound to id via OpName, if any.
func (m *Module) GetName(id uint32) (string, bool) {
	for _, inst := range m.DebugNames {
		if inst.Opcode == OpName && len(inst.Operands) >= 1 && inst.Operands[0] == id {
			name, _ := decodeString(inst.Operands, 1)
			return name, true
		}
	}
	return "", false
}

// SetName adds or replaces the OpName bound to id.
func (m *Module) SetName(id uint32, name string) {
	for i, inst := range m.DebugNames {
		if inst.Opcode == OpName && len(inst.Operands) >= 1 && inst.Operands[0] == id {
			b := newInstructionBuilder().addWord(id).addString(name)
			m.DebugNames[i] = b.build(OpName)
			return
		}
	}
	b := newInstructionBuilder().addWord(id).addString(name)
	m.DebugNames = append(m.DebugNames, b.build(OpName))
}

// GetByName returns the id whose debug name equals name, if one is bound.
// Ambiguous in the general case (multiple ids may share a debug name after
// optimization passes) — GetByName returns the first match in section order.
func (m *Module) GetByName(name string) (uint32, bool) {
	for _, inst := range m.DebugNames {
		if inst.Opcode != OpName || len(inst.Operands) < 1 {
			continue
		}
		if n, _ := decodeString(inst.Operands, 1); n == name {
			return inst.Operands[0], true
		}
	}
	return 0, false
}

// ExecutionModel returns the module's single entry point's execution model.
// Callers may assume Validate has already rejected modules with zero or more
// than one entry point.
func (m *Module) ExecutionModel() (ExecutionModel, bool) {
	if len(m.EntryPoints) != 1 {
		return 0, false
	}
	ep := m.EntryPoints[0]
	if len(ep.Operands) < 1 {
		return 0, false
	}
	return ExecutionModel(ep.Operands[0]), true
}

// EntryPointFunction returns the result id of the module's entry-point
// function.
func (m *Module) EntryPointFunction() (uint32, bool) {
	if len(m.EntryPoints) != 1 {
		return 0, false
	}
	ep := m.EntryPoints[0]
	if len(ep.Operands) < 2 {
		return 0, false
	}
	return ep.Operands[1], true
}

// FindFunction returns the Function whose result id is id.
func (m *Module) FindFunction(id uint32) (*Function, bool) {
	for i := range m.Functions {
		if m.Functions[i].ResultID() == id {
			return &m.Functions[i], true
		}
	}
	return nil, false
}
