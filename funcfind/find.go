package funcfind

import (
	"fmt"
	"strings"

	"github.com/gogpu/spv-patcher/spirv"
)

// FuncInfo summarizes one function definition for Enumerate's caller.
type FuncInfo struct {
	Name      string
	HasName   bool
	Signature FuncSignature
	Header    *spirv.Instruction
}

// Enumerate lists every function defined in m, in declaration order.
func Enumerate(m *spirv.Module) []FuncInfo {
	out := make([]FuncInfo, 0, len(m.Functions))
	for i := range m.Functions {
		f := &m.Functions[i]
		name, hasName := m.GetName(f.ResultID())
		out = append(out, FuncInfo{
			Name:      name,
			HasName:   hasName,
			Signature: SignatureOf(f),
			Header:    &f.Header,
		})
	}
	return out
}

// Find returns every function header matching ident, plus any warnings
// worth surfacing to the caller (a substring-only name match, or more than
// one candidate matching). An empty result with no warnings means no
// candidate matched at all.
func Find(m *spirv.Module, ident FuncIdent) ([]*spirv.Instruction, []string) {
	if ident.byName() {
		return findByName(m, ident.Name)
	}
	return findBySignature(m, *ident.Signature)
}

func findByName(m *spirv.Module, name string) ([]*spirv.Instruction, []string) {
	var exact []*spirv.Instruction
	var substr []*spirv.Instruction
	var substrNames []string

	for i := range m.Functions {
		f := &m.Functions[i]
		fname, ok := m.GetName(f.ResultID())
		if !ok {
			continue
		}
		if fname == name {
			exact = append(exact, &f.Header)
			continue
		}
		if strings.Contains(fname, name) {
			substr = append(substr, &f.Header)
			substrNames = append(substrNames, fname)
		}
	}

	if len(exact) > 0 {
		var warnings []string
		if len(exact) > 1 {
			warnings = append(warnings, fmt.Sprintf("name %q matched %d functions exactly; using the first", name, len(exact)))
		}
		return exact, warnings
	}
	if len(substr) > 0 {
		warnings := []string{fmt.Sprintf("name %q matched no function exactly; falling back to substring match against %v", name, substrNames)}
		if len(substr) > 1 {
			warnings = append(warnings, fmt.Sprintf("substring match for %q is ambiguous: %d candidates", name, len(substr)))
		}
		return substr, warnings
	}
	return nil, nil
}

func findBySignature(m *spirv.Module, sig FuncSignature) ([]*spirv.Instruction, []string) {
	var matches []*spirv.Instruction
	for i := range m.Functions {
		f := &m.Functions[i]
		if SignatureOf(f).Equal(sig) {
			matches = append(matches, &f.Header)
		}
	}
	var warnings []string
	if len(matches) > 1 {
		warnings = append(warnings, fmt.Sprintf("signature matched %d functions; tie-break is first in declaration order", len(matches)))
	}
	return matches, warnings
}
