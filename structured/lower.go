package structured

import "github.com/gogpu/spv-patcher/spirv"

// loopFrame tracks the merge/continue targets of an enclosing loop so a
// plain OpBranch that jumps to one of them can be recognized as a
// break/continue instead of literal fallthrough.
type loopFrame struct {
	merge    uint32
	continuing uint32
}

// Lower builds the structured form of every function in ctx.Module, in
// order. It stops at the first function whose structurizer fails and
// returns an error naming that function; no partial Module is returned.
func Lower(ctx *Context) (*Module, error) {
	sm := &Module{Functions: make([]*Function, 0, len(ctx.Module.Functions))}
	for i := range ctx.Module.Functions {
		ff := &ctx.Module.Functions[i]
		body, err := lowerFunction(ff)
		if err != nil {
			id, _ := ff.Header.ResultID()
			return nil, spirv.Wrapf(spirv.KindLowerLift, "structured.Lower", err, "function %%%d", id)
		}
		sm.Functions = append(sm.Functions, &Function{
			Header:     ff.Header,
			Parameters: ff.Parameters,
			Body:       body,
		})
	}
	return sm, nil
}

func lowerFunction(f *spirv.Function) (*Region, error) {
	if len(f.Blocks) == 0 {
		// A declaration-only function (e.g. link-merge's Import stub,
		// mid-pipeline before Resolve removes it) has no body to
		// structurize.
		return nil, nil
	}
	blocks := make(map[uint32]*spirv.BasicBlock, len(f.Blocks))
	for i := range f.Blocks {
		blocks[f.Blocks[i].Label.Operands[0]] = &f.Blocks[i]
	}
	entry := f.Blocks[0].Label.Operands[0]
	return structurizeFrom(blocks, entry, 0, nil)
}

// structurizeFrom builds the Region chain starting at labelID, stopping
// (returning nil) once it would re-enter stopAt (the enclosing construct's
// merge or continue block — 0 means "never stop", used for a function's
// outermost sequence).
func structurizeFrom(blocks map[uint32]*spirv.BasicBlock, labelID, stopAt uint32, loops []loopFrame) (*Region, error) {
	if labelID == stopAt {
		return nil, nil
	}
	blk, ok := blocks[labelID]
	if !ok {
		return nil, spirv.NewError(spirv.KindLowerLift, "structurize", "branch to undefined label")
	}
	if len(blk.Instructions) == 0 {
		return nil, spirv.NewError(spirv.KindLowerLift, "structurize", "basic block has no terminator")
	}

	term := blk.Instructions[len(blk.Instructions)-1]
	body := blk.Instructions[:len(blk.Instructions)-1]

	// A selection or loop header carries its merge instruction immediately
	// before the terminator.
	var merge *spirv.Instruction
	if len(body) > 0 {
		last := body[len(body)-1]
		if last.Opcode == spirv.OpSelectionMerge || last.Opcode == spirv.OpLoopMerge {
			merge = &body[len(body)-1]
			body = body[:len(body)-1]
		}
	}

	switch {
	case merge != nil && merge.Opcode == spirv.OpLoopMerge && term.Opcode == spirv.OpBranch:
		return structurizeLoop(blocks, labelID, body, merge, term, stopAt, loops)
	case merge != nil && merge.Opcode == spirv.OpSelectionMerge && term.Opcode == spirv.OpBranchConditional:
		return structurizeIf(blocks, labelID, body, merge, term, stopAt, loops)
	case term.Opcode == spirv.OpBranch:
		return structurizeBranch(blocks, labelID, body, term, stopAt, loops)
	default:
		// OpReturn, OpReturnValue, OpKill, OpUnreachable, OpSwitch (treated
		// as an opaque terminator — multi-way switches are rare enough in
		// patch targets that this engine preserves them verbatim rather
		// than structurizing into nested ifs).
		return &Region{Kind: RegionTerminator, Instructions: body, Terminator: term, LabelID: labelID}, nil
	}
}

func structurizeLoop(blocks map[uint32]*spirv.BasicBlock, labelID uint32, body []spirv.Instruction, merge, term *spirv.Instruction, stopAt uint32, loops []loopFrame) (*Region, error) {
	if len(merge.Operands) < 2 {
		return nil, spirv.NewError(spirv.KindLowerLift, "structurize", "OpLoopMerge missing operands")
	}
	mergeBlock, continueBlock := merge.Operands[0], merge.Operands[1]
	bodyStart := term.Operands[0]

	innerLoops := append(append([]loopFrame{}, loops...), loopFrame{merge: mergeBlock, continuing: continueBlock})

	bodyRegion, err := structurizeFrom(blocks, bodyStart, continueBlock, innerLoops)
	if err != nil {
		return nil, err
	}
	continuingRegion, err := structurizeFromBackedge(blocks, continueBlock, labelID, innerLoops)
	if err != nil {
		return nil, err
	}
	next, err := structurizeFrom(blocks, mergeBlock, stopAt, loops)
	if err != nil {
		return nil, err
	}

	return &Region{
		Kind: RegionLoop, Instructions: body, Body: bodyRegion, Continuing: continuingRegion,
		MergeBlock: mergeBlock, ContinueID: continueBlock, Next: next, LabelID: labelID,
	}, nil
}

// structurizeFromBackedge structurizes a loop's continuing block, which
// normally ends in a plain OpBranch back to the loop header — that backedge
// is implied by RegionLoop rather than represented as its own Region.
func structurizeFromBackedge(blocks map[uint32]*spirv.BasicBlock, labelID, headerID uint32, loops []loopFrame) (*Region, error) {
	blk, ok := blocks[labelID]
	if !ok {
		return nil, spirv.NewError(spirv.KindLowerLift, "structurize", "loop continue target undefined")
	}
	if len(blk.Instructions) == 0 {
		return nil, spirv.NewError(spirv.KindLowerLift, "structurize", "continue block has no terminator")
	}
	term := blk.Instructions[len(blk.Instructions)-1]
	body := blk.Instructions[:len(blk.Instructions)-1]
	if term.Opcode == spirv.OpBranch && len(term.Operands) == 1 && term.Operands[0] == headerID {
		return &Region{Kind: RegionSeq, Instructions: body, LabelID: labelID}, nil
	}
	// Not a simple backedge (e.g. a BreakIf-style conditional continue) —
	// preserve the raw terminator rather than guessing at its structure.
	return &Region{Kind: RegionTerminator, Instructions: body, Terminator: term, LabelID: labelID}, nil
}

func structurizeIf(blocks map[uint32]*spirv.BasicBlock, labelID uint32, body []spirv.Instruction, merge, term *spirv.Instruction, stopAt uint32, loops []loopFrame) (*Region, error) {
	if len(merge.Operands) < 1 || len(term.Operands) < 3 {
		return nil, spirv.NewError(spirv.KindLowerLift, "structurize", "malformed selection construct")
	}
	mergeBlock := merge.Operands[0]
	cond, trueLabel, falseLabel := term.Operands[0], term.Operands[1], term.Operands[2]

	var accept, reject *Region
	var err error
	if trueLabel != mergeBlock {
		accept, err = structurizeFrom(blocks, trueLabel, mergeBlock, loops)
		if err != nil {
			return nil, err
		}
	}
	if falseLabel != mergeBlock {
		reject, err = structurizeFrom(blocks, falseLabel, mergeBlock, loops)
		if err != nil {
			return nil, err
		}
	}
	next, err := structurizeFrom(blocks, mergeBlock, stopAt, loops)
	if err != nil {
		return nil, err
	}
	return &Region{
		Kind: RegionIf, Instructions: body, Condition: cond, Accept: accept, Reject: reject,
		MergeLabel: mergeBlock, Next: next, LabelID: labelID,
	}, nil
}

func structurizeBranch(blocks map[uint32]*spirv.BasicBlock, labelID uint32, body []spirv.Instruction, term *spirv.Instruction, stopAt uint32, loops []loopFrame) (*Region, error) {
	target := term.Operands[0]
	if target == stopAt {
		return &Region{Kind: RegionSeq, Instructions: body, LabelID: labelID}, nil
	}
	for i := len(loops) - 1; i >= 0; i-- {
		if target == loops[i].merge {
			return &Region{Kind: RegionBreak, Instructions: body, LabelID: labelID}, nil
		}
		if target == loops[i].continuing {
			return &Region{Kind: RegionContinue, Instructions: body, LabelID: labelID}, nil
		}
	}
	next, err := structurizeFrom(blocks, target, stopAt, loops)
	if err != nil {
		return nil, err
	}
	return &Region{Kind: RegionSeq, Instructions: body, Next: next, LabelID: labelID}, nil
}
