package patch

import (
	"github.com/gogpu/spv-patcher/spirv"
	"github.com/gogpu/spv-patcher/typegraph"
)

// merge is link-merge's second stage. It lowers the replacement module's ids
// into the target's id space, but types are not simply offset-and-copied:
// every OpType* the replacement defines is looked up in the target's type
// graph by structural key first, and reused verbatim when a structurally
// identical type already exists there. Only types with no structural match
// in the target get a fresh id past the target's bound. Constants and
// global variables are not interned (the spec ties interning to types only,
// since two modules can share a struct layout without sharing any constant
// value) and are always copied in with a freshly offset id.
func (st *staticReplaceState) merge(patcher *Patcher) error {
	target, err := patcher.AsFlat()
	if err != nil {
		return err
	}
	repl := st.cfg.Replacement

	targetGraph, err := patcher.TypeGraph()
	if err != nil {
		return err
	}
	replGraph, err := typegraph.Build(repl)
	if err != nil {
		return err
	}

	// Index the target's existing types by structural key so the
	// replacement's types can be unified against them instead of
	// duplicated.
	keyToTargetID := make(map[string]uint32, len(targetGraph.ByID))
	for id, n := range targetGraph.ByID {
		if _, ok := keyToTargetID[typegraph.Key(n)]; !ok {
			keyToTargetID[typegraph.Key(n)] = id
		}
	}

	st.idOffset = target.Bound()
	remapBase := func(id uint32) uint32 {
		if id == 0 {
			return 0
		}
		return id + st.idOffset
	}

	// typeRemap sends a replacement type id either to a pre-existing
	// target id (structurally identical type already present) or to a
	// freshly offset one (the replacement defines a type the target has
	// never seen).
	typeRemap := make(map[uint32]uint32, len(repl.TypesConstantsGlobals))
	for _, inst := range repl.TypesConstantsGlobals {
		if !isTypeOpcode(inst.Opcode) {
			continue
		}
		id, ok := inst.ResultID()
		if !ok {
			continue
		}
		node, ok := replGraph.NodeByID(id)
		if !ok {
			continue
		}
		if targetID, ok := keyToTargetID[typegraph.Key(node)]; ok {
			typeRemap[id] = targetID
			continue
		}
		typeRemap[id] = remapBase(id)
	}

	remap := func(id uint32) uint32 {
		if id == 0 {
			return 0
		}
		if mapped, ok := typeRemap[id]; ok {
			return mapped
		}
		return remapBase(id)
	}

	for _, inst := range repl.TypesConstantsGlobals {
		if id, ok := inst.ResultID(); ok && isTypeOpcode(inst.Opcode) {
			if mapped, unified := typeRemap[id]; unified && mapped < st.idOffset {
				// Structurally identical to a type the target already
				// defines: reuse the target's id, do not duplicate the
				// declaration.
				continue
			}
		}
		target.TypesConstantsGlobals = append(target.TypesConstantsGlobals, remapInstruction(inst, remap))
	}

	var merged *spirv.Function
	for i := range repl.Functions {
		fn := &repl.Functions[i]
		if fn.ResultID() != st.replFuncID {
			continue
		}
		merged = &spirv.Function{
			Header:     remapInstruction(fn.Header, remap),
			Parameters: remapInstructions(fn.Parameters, remap),
			Blocks:     remapBlocks(fn.Blocks, remap),
		}
		break
	}
	if merged == nil {
		return spirv.NewError(spirv.KindInternal, "merge", "replacement function vanished between prepare and merge")
	}

	// The bound only needs to cover the worst case (nothing unified), so
	// it is grown with the flat offset, not the interning-aware remap.
	target.ObserveID(remapBase(repl.Bound() - 1))
	target.Functions = append(target.Functions, *merged)
	st.mergedExportFuncID = merged.ResultID()

	patcher.InvalidateTypeGraph()
	return nil
}

// isTypeOpcode reports whether op declares a type in the
// TypesConstantsGlobals section — the subset of that section merge's type
// interning applies to, as opposed to OpConstant*/OpVariable which are
// always copied in with a fresh id.
func isTypeOpcode(op spirv.OpCode) bool {
	switch op {
	case spirv.OpTypeVoid, spirv.OpTypeBool, spirv.OpTypeInt, spirv.OpTypeFloat,
		spirv.OpTypeVector, spirv.OpTypeMatrix, spirv.OpTypeImage, spirv.OpTypeSampler,
		spirv.OpTypeSampledImage, spirv.OpTypeArray, spirv.OpTypeRuntimeArray,
		spirv.OpTypeStruct, spirv.OpTypeOpaque, spirv.OpTypePointer, spirv.OpTypeFunction:
		return true
	default:
		return false
	}
}

// structurize runs the control-flow structurizer on the merged target by
// forcing a full lower/lift round trip: Lower rebuilds every function's
// region tree (including the freshly-merged one) and Lift re-flattens it,
// which both validates that the merge produced well-structured control
// flow and normalizes the merged function's block layout to match the
// rest of the engine's output.
func (st *staticReplaceState) structurize(patcher *Patcher) error {
	if _, _, err := patcher.AsStructured(); err != nil {
		return err
	}
	_, err := patcher.AsFlat()
	return err
}
