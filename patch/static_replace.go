package patch

import (
	"github.com/pkg/errors"

	"github.com/gogpu/spv-patcher/spirv"
)

// linkStage is the link-merge state machine's position, threaded through
// the five private stage methods below (one per file) purely for
// diagnostics — each stage either succeeds and advances to the next, or
// returns an error wrapped with the stage name that produced it.
type linkStage int

const (
	stateReadyToLinkPrepare linkStage = iota
	stateLinkAnnotated
	stateMerged
	stateStructurized
	stateImportsResolved
	stateLinkageStripped
)

func (s linkStage) String() string {
	switch s {
	case stateReadyToLinkPrepare:
		return "prepare"
	case stateLinkAnnotated:
		return "merge"
	case stateMerged:
		return "structurize"
	case stateStructurized:
		return "resolve"
	case stateImportsResolved:
		return "strip"
	default:
		return "done"
	}
}

// StaticReplace replaces one function's body in the target module with the
// body of an exported function drawn from a separate replacement module —
// link-merge, the engine's hardest pass, modeled as a five-stage pipeline
// (Prepare, Merge, Structurize, Resolve, Strip). Merge works on flat IR: it
// copies the replacement's definitions into the target with every id
// renumbered above the target's bound, reusing the target's own type id
// wherever a typegraph key matches. The two modules never share a
// structured-IR context; only Structurize lowers the merged target to
// structured IR and lifts it back.
//
// Replacement must carry a LinkageAttributes Export decoration on the
// function at ReplacementIndex — Prepare validates this and fails the
// whole patch if it's missing. KeepAsLibrary, if set, leaves the Linkage
// capability and LinkageAttributes annotations in the emitted module
// instead of stripping them, for a caller that intends to link the result
// again later. When more than one target function matches the
// replacement's signature, Prepare picks the first in declaration order
// and records a warning — callers should not depend on that tie-break
// being stable across unrelated edits to the target module.
type StaticReplace struct {
	Replacement      *spirv.Module
	ReplacementIndex int
	KeepAsLibrary    bool
}

// staticReplaceState threads data between the five private stage methods;
// each stage reads what the previous stage left behind and writes what the
// next one needs.
type staticReplaceState struct {
	stage linkStage
	cfg   StaticReplace

	targetFuncID uint32 // target module's function id being replaced
	exportName   string
	replFuncID   uint32 // replacement module's function id being merged in
	idOffset     uint32 // replacement ids remapped into target space by adding this

	mergedExportFuncID uint32 // the merged-in export function's id, in target space

	warnings []string
}

func (p StaticReplace) Apply(patcher *Patcher) (*Patcher, error) {
	st := &staticReplaceState{stage: stateReadyToLinkPrepare, cfg: p}

	if err := st.prepare(patcher); err != nil {
		return nil, errors.Wrapf(err, "link-merge: %s stage", st.stage)
	}
	st.stage = stateLinkAnnotated

	if err := st.merge(patcher); err != nil {
		return nil, errors.Wrapf(err, "link-merge: %s stage", st.stage)
	}
	st.stage = stateMerged

	if err := st.structurize(patcher); err != nil {
		return nil, errors.Wrapf(err, "link-merge: %s stage", st.stage)
	}
	st.stage = stateStructurized

	if err := st.resolve(patcher); err != nil {
		return nil, errors.Wrapf(err, "link-merge: %s stage", st.stage)
	}
	st.stage = stateImportsResolved

	if err := st.strip(patcher); err != nil {
		return nil, errors.Wrapf(err, "link-merge: %s stage", st.stage)
	}
	st.stage = stateLinkageStripped

	for _, w := range st.warnings {
		patcher.addWarning("link-merge", w)
	}
	patcher.InvalidateTypeGraph()
	return patcher, nil
}
