package spirv

// DecodeString decodes a null-terminated, word-padded literal string
// starting at operand index start, returning the string and the number of
// words it occupied. Exported for packages (funcfind, patch) that need to
// read string-carrying operands this package doesn't already expose an
// accessor for, e.g. a LinkageAttributes decoration's embedded export name.
func DecodeString(operands []uint32, start int) (string, int) {
	return decodeString(operands, start)
}

// DecorateLinkage appends a LinkageAttributes decoration on target, naming
// it name with the given linkage type (Export or Import).
func (m *Module) DecorateLinkage(target uint32, name string, linkageType LinkageType) {
	b := newInstructionBuilder().
		addWord(target).
		addWord(uint32(DecorationLinkageAttributes)).
		addString(name).
		addWord(uint32(linkageType))
	m.Annotations = append(m.Annotations, b.build(OpDecorate))
}

// LinkageAttributesOf returns the name and linkage type carried by target's
// LinkageAttributes decoration, if it has one.
func (m *Module) LinkageAttributesOf(target uint32) (name string, kind LinkageType, ok bool) {
	for _, inst := range m.Annotations {
		if inst.Opcode != OpDecorate || len(inst.Operands) < 2 {
			continue
		}
		if inst.Operands[0] != target || Decoration(inst.Operands[1]) != DecorationLinkageAttributes {
			continue
		}
		n, used := decodeString(inst.Operands, 2)
		idx := 2 + used
		if idx >= len(inst.Operands) {
			return n, 0, true
		}
		return n, LinkageType(inst.Operands[idx]), true
	}
	return "", 0, false
}

// HasAnyLinkageAttributes reports whether any id in the module carries a
// LinkageAttributes decoration — link-merge's Prepare stage refuses to run
// against a target module that already has one, since this engine only
// ever drives one link-merge at a time.
func (m *Module) HasAnyLinkageAttributes() bool {
	for _, inst := range m.Annotations {
		if inst.Opcode == OpDecorate && len(inst.Operands) >= 2 &&
			Decoration(inst.Operands[1]) == DecorationLinkageAttributes {
			return true
		}
	}
	return false
}

// RemoveLinkageAttributes drops every LinkageAttributes annotation from the
// module, used by link-merge's Strip stage once every import has resolved.
func (m *Module) RemoveLinkageAttributes() {
	out := m.Annotations[:0:0]
	for _, inst := range m.Annotations {
		if inst.Opcode == OpDecorate && len(inst.Operands) >= 2 &&
			Decoration(inst.Operands[1]) == DecorationLinkageAttributes {
			continue
		}
		out = append(out, inst)
	}
	m.Annotations = out
}
