package patch

import (
	"fmt"

	"github.com/gogpu/spv-patcher/funcfind"
	"github.com/gogpu/spv-patcher/spirv"
	"github.com/gogpu/spv-patcher/typegraph"
)

// prepare is link-merge's first stage, run on flat IR. It finds the
// replacement function's LinkageAttributes decoration, matches its
// signature against a candidate in the target module by structural type
// equality (ids are never comparable across modules), marks the target
// candidate as an Import, and clears its body — the body will come from
// the replacement module once merge runs.
func (st *staticReplaceState) prepare(patcher *Patcher) error {
	repl := st.cfg.Replacement
	if repl == nil {
		return spirv.NewError(spirv.KindPatchPrecondition, "prepare", "no replacement module configured")
	}
	if st.cfg.ReplacementIndex < 0 || st.cfg.ReplacementIndex >= len(repl.Functions) {
		return spirv.NewError(spirv.KindPatchPrecondition, "prepare", "replacement index out of range")
	}
	replFn := &repl.Functions[st.cfg.ReplacementIndex]
	replFuncID := replFn.ResultID()

	name, kind, ok := repl.LinkageAttributesOf(replFuncID)
	if !ok {
		return spirv.NewError(spirv.KindPatchPrecondition, "prepare",
			"replacement function carries no LinkageAttributes decoration")
	}
	if kind != spirv.LinkageTypeExport {
		st.warnings = append(st.warnings, fmt.Sprintf("replacement function %q is decorated Import, not Export", name))
	}

	target, err := patcher.AsFlat()
	if err != nil {
		return err
	}
	if target.HasAnyLinkageAttributes() {
		return spirv.NewError(spirv.KindPatchPrecondition, "prepare",
			"target module already carries a LinkageAttributes annotation")
	}

	replGraph, err := typegraph.Build(repl)
	if err != nil {
		return err
	}
	targetGraph, err := patcher.TypeGraph()
	if err != nil {
		return err
	}

	candidateID, warn, err := matchSignature(target, targetGraph, replGraph, funcfind.SignatureOf(replFn))
	if err != nil {
		return err
	}
	if warn != "" {
		st.warnings = append(st.warnings, warn)
	}

	target.AddCapability(spirv.CapabilityLinkage)
	target.DecorateLinkage(candidateID, name, spirv.LinkageTypeImport)
	if fn, ok := target.FindFunction(candidateID); ok {
		fn.Blocks = nil
	}

	st.targetFuncID = candidateID
	st.exportName = name
	st.replFuncID = replFuncID
	return nil
}

// matchSignature compares replSig (built from the replacement module's
// type graph) against every function declared in target, tie-breaking on
// the first match in declaration order and warning if more than one
// candidate matches.
func matchSignature(target *spirv.Module, targetGraph, replGraph *typegraph.Graph, replSig funcfind.FuncSignature) (uint32, string, error) {
	replReturn, ok := replGraph.NodeByID(replSig.ReturnType)
	if !ok {
		return 0, "", spirv.NewError(spirv.KindSignatureMismatch, "prepare",
			"replacement function's return type did not resolve in its type graph")
	}
	replParams := make([]*typegraph.Node, 0, len(replSig.ParamTypes))
	for _, t := range replSig.ParamTypes {
		n, ok := replGraph.NodeByID(t)
		if !ok {
			return 0, "", spirv.NewError(spirv.KindSignatureMismatch, "prepare",
				"replacement function's parameter type did not resolve in its type graph")
		}
		replParams = append(replParams, n)
	}

	var matches []uint32
	for i := range target.Functions {
		fn := &target.Functions[i]
		sig := funcfind.SignatureOf(fn)
		if len(sig.ParamTypes) != len(replParams) {
			continue
		}
		retNode, ok := targetGraph.NodeByID(sig.ReturnType)
		if !ok || !typegraph.Equal(retNode, replReturn) {
			continue
		}
		allMatch := true
		for i2, pt := range sig.ParamTypes {
			pn, ok := targetGraph.NodeByID(pt)
			if !ok || !typegraph.Equal(pn, replParams[i2]) {
				allMatch = false
				break
			}
		}
		if allMatch {
			matches = append(matches, fn.ResultID())
		}
	}

	if len(matches) == 0 {
		return 0, "", spirv.NewError(spirv.KindSignatureMismatch, "prepare",
			"no candidate function in the target module matches the replacement's signature")
	}
	var warn string
	if len(matches) > 1 {
		warn = fmt.Sprintf("replacement signature matched %d target functions; using the first (declaration order)", len(matches))
	}
	return matches[0], warn, nil
}
