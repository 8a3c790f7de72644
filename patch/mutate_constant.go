package patch

import (
	"math"

	"github.com/gogpu/spv-patcher/spirv"
)

// MutateConstantInt rewrites every OpConstant whose single literal operand
// equals From (bit-for-bit, regardless of the constant's declared type) to
// To. Finding zero matches is not an error — a module that no longer
// contains the constant a patch was written against is a legitimate, if
// unusual, outcome, and the caller is in a better position than this patch
// to decide whether that is a problem.
type MutateConstantInt struct {
	From, To uint32
}

// Apply operates purely on the flat module: OpConstant never appears inside
// a function body, so there is no need to go anywhere near structured form.
func (p MutateConstantInt) Apply(patcher *Patcher) (*Patcher, error) {
	m, err := patcher.AsFlat()
	if err != nil {
		return nil, err
	}
	for i := range m.TypesConstantsGlobals {
		inst := &m.TypesConstantsGlobals[i]
		if inst.Opcode != spirv.OpConstant {
			continue
		}
		// Operands: [type, result, literal...]; a 32-bit scalar constant
		// carries exactly one literal word.
		if len(inst.Operands) != 3 {
			continue
		}
		if inst.Operands[2] == p.From {
			inst.Operands[2] = p.To
		}
	}
	return patcher, nil
}

// MutateConstantFloat rewrites every 32-bit float OpConstant whose literal
// bit pattern equals From to To's bit pattern. Comparison is by bit pattern
// rather than by float equality so that NaN payloads and signed zero are
// matched exactly rather than coerced through IEEE-754 comparison rules.
type MutateConstantFloat struct {
	From, To float32
}

func (p MutateConstantFloat) Apply(patcher *Patcher) (*Patcher, error) {
	m, err := patcher.AsFlat()
	if err != nil {
		return nil, err
	}
	from := math.Float32bits(p.From)
	to := math.Float32bits(p.To)
	for i := range m.TypesConstantsGlobals {
		inst := &m.TypesConstantsGlobals[i]
		if inst.Opcode != spirv.OpConstant {
			continue
		}
		if len(inst.Operands) != 3 {
			continue
		}
		if inst.Operands[2] == from {
			inst.Operands[2] = to
		}
	}
	return patcher, nil
}
