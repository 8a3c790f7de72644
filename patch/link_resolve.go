package patch

import "github.com/gogpu/spv-patcher/spirv"

// resolve is link-merge's fourth stage: every OpFunctionCall that still
// targets the import stub is redirected to the merged-in export function,
// and the import stub's now-unreferenced declaration and its debug names
// are removed.
func (st *staticReplaceState) resolve(patcher *Patcher) error {
	target, err := patcher.AsFlat()
	if err != nil {
		return err
	}

	redirected := 0
	for i := range target.Functions {
		fn := &target.Functions[i]
		for b := range fn.Blocks {
			insts := fn.Blocks[b].Instructions
			for k := range insts {
				if insts[k].Opcode != spirv.OpFunctionCall {
					continue
				}
				// Operands: [type, result, function id, args...].
				if len(insts[k].Operands) < 3 {
					continue
				}
				if insts[k].Operands[2] == st.targetFuncID {
					insts[k].Operands[2] = st.mergedExportFuncID
					redirected++
				}
			}
		}
	}
	if redirected == 0 {
		// Legitimate when the replaced function is the entry point itself
		// (never reached via OpFunctionCall) rather than a callee.
		st.warnings = append(st.warnings, "no call site referenced the import stub")
	}

	if id, ok := target.EntryPointFunction(); ok && id == st.targetFuncID {
		for i := range target.EntryPoints {
			if len(target.EntryPoints[i].Operands) > 1 && target.EntryPoints[i].Operands[1] == st.targetFuncID {
				target.EntryPoints[i].Operands[1] = st.mergedExportFuncID
			}
		}
	}

	out := target.Functions[:0:0]
	for i := range target.Functions {
		if target.Functions[i].ResultID() == st.targetFuncID {
			continue
		}
		out = append(out, target.Functions[i])
	}
	target.Functions = out

	names := target.DebugNames[:0:0]
	for _, inst := range target.DebugNames {
		if len(inst.Operands) > 0 && inst.Operands[0] == st.targetFuncID {
			continue
		}
		names = append(names, inst)
	}
	target.DebugNames = names

	patcher.InvalidateTypeGraph()
	return nil
}
