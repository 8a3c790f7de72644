package patch

import "github.com/gogpu/spv-patcher/spirv"

// StripDebug removes debug-only instructions from the module: names always
// (OpName, OpMemberName — these carry no semantic weight, only readability,
// so they are dropped unconditionally), plus OpLine/OpNoLine and
// OpSource/OpSourceExtension/OpSourceContinued/OpString when their
// respective flags are set. Dropping names is unconditional because,
// unlike OpLine/OpSource, keeping them serves no purpose once a module is
// headed for a release build — there is no "keep names but strip source"
// use case this patch needs to support.
type StripDebug struct {
	StripOpLine   bool
	StripOpSource bool
}

func (p StripDebug) Apply(patcher *Patcher) (*Patcher, error) {
	m, err := patcher.AsFlat()
	if err != nil {
		return nil, err
	}
	m.DebugNames = nil

	if p.StripOpSource {
		m.DebugStrings = nil
	}

	if p.StripOpLine {
		for i := range m.Functions {
			fn := &m.Functions[i]
			for j := range fn.Blocks {
				fn.Blocks[j].Instructions = stripLines(fn.Blocks[j].Instructions)
			}
		}
	}
	return patcher, nil
}

func stripLines(insts []spirv.Instruction) []spirv.Instruction {
	out := insts[:0:0]
	for _, inst := range insts {
		if inst.Opcode == opLine || inst.Opcode == opNoLine {
			continue
		}
		out = append(out, inst)
	}
	return out
}

// OpLine and OpNoLine are debug-only line-mapping instructions that can
// appear inside a function body (unlike OpSource/OpName, which are confined
// to the module's debug sections) — not named in opcode.go's main table
// because no other package needs to recognize them.
const (
	opLine   spirv.OpCode = 8
	opNoLine spirv.OpCode = 317
)
