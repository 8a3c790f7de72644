package structured

import "github.com/gogpu/spv-patcher/spirv"

// Lift flattens every function in sm back into ctx.Module's flat Function
// list, replacing it in place, and returns ctx.Module. Every Region must
// carry a LabelID — lowerFunction always sets one, and a patch that builds
// a brand-new Region (rather than editing one Lower produced) must call
// ctx.NextID() for it, the same discipline flat-IR patches already follow
// for any other fresh id.
func Lift(sm *Module, ctx *Context) (*spirv.Module, error) {
	functions := make([]spirv.Function, 0, len(sm.Functions))
	for _, f := range sm.Functions {
		blocks, err := liftChain(f.Body, 0, nil)
		if err != nil {
			id, _ := f.Header.ResultID()
			return nil, spirv.Wrapf(spirv.KindLowerLift, "structured.Lift", err, "function %%%d", id)
		}
		functions = append(functions, spirv.Function{
			Header:     f.Header,
			Parameters: f.Parameters,
			Blocks:     blocks,
		})
	}
	ctx.Module.Functions = functions
	return ctx.Module, nil
}

func headLabel(r *Region, fallback uint32) uint32 {
	if r == nil {
		return fallback
	}
	return r.LabelID
}

func withTerminator(instructions []spirv.Instruction, labelID uint32, term spirv.Instruction) spirv.BasicBlock {
	return spirv.BasicBlock{
		Label:        spirv.Instruction{Opcode: spirv.OpLabel, Operands: []uint32{labelID}},
		Instructions: append(append([]spirv.Instruction{}, instructions...), term),
	}
}

func branchTo(target uint32) spirv.Instruction {
	return spirv.Instruction{Opcode: spirv.OpBranch, Operands: []uint32{target}}
}

// liftChain flattens r and everything that follows it in sequence, falling
// through to stopAt once the chain runs out.
func liftChain(r *Region, stopAt uint32, loops []loopFrame) ([]spirv.BasicBlock, error) {
	if r == nil {
		return nil, nil
	}
	switch r.Kind {
	case RegionSeq:
		target := stopAt
		var rest []spirv.BasicBlock
		var err error
		if r.Next != nil {
			target = headLabel(r.Next, stopAt)
			rest, err = liftChain(r.Next, stopAt, loops)
			if err != nil {
				return nil, err
			}
		}
		blk := withTerminator(r.Instructions, r.LabelID, branchTo(target))
		return append([]spirv.BasicBlock{blk}, rest...), nil

	case RegionIf:
		accept, err := liftChain(r.Accept, r.MergeLabel, loops)
		if err != nil {
			return nil, err
		}
		reject, err := liftChain(r.Reject, r.MergeLabel, loops)
		if err != nil {
			return nil, err
		}
		trueLabel := headLabel(r.Accept, r.MergeLabel)
		falseLabel := headLabel(r.Reject, r.MergeLabel)

		header := append(append([]spirv.Instruction{}, r.Instructions...),
			spirv.Instruction{Opcode: spirv.OpSelectionMerge, Operands: []uint32{r.MergeLabel, 0}})
		headerBlk := spirv.BasicBlock{
			Label: spirv.Instruction{Opcode: spirv.OpLabel, Operands: []uint32{r.LabelID}},
			Instructions: append(header,
				spirv.Instruction{Opcode: spirv.OpBranchConditional, Operands: []uint32{r.Condition, trueLabel, falseLabel}}),
		}

		next, err := liftChain(r.Next, stopAt, loops)
		if err != nil {
			return nil, err
		}
		out := append([]spirv.BasicBlock{headerBlk}, accept...)
		out = append(out, reject...)
		out = append(out, next...)
		return out, nil

	case RegionLoop:
		inner := append(append([]loopFrame{}, loops...), loopFrame{merge: r.MergeBlock, continuing: r.ContinueID})
		body, err := liftChain(r.Body, r.ContinueID, inner)
		if err != nil {
			return nil, err
		}
		continuing, err := liftContinuing(r.Continuing, r.LabelID)
		if err != nil {
			return nil, err
		}

		header := append(append([]spirv.Instruction{}, r.Instructions...),
			spirv.Instruction{Opcode: spirv.OpLoopMerge, Operands: []uint32{r.MergeBlock, r.ContinueID, 0}})
		headerBlk := spirv.BasicBlock{
			Label:        spirv.Instruction{Opcode: spirv.OpLabel, Operands: []uint32{r.LabelID}},
			Instructions: append(header, branchTo(headLabel(r.Body, r.ContinueID))),
		}

		next, err := liftChain(r.Next, stopAt, loops)
		if err != nil {
			return nil, err
		}
		out := append([]spirv.BasicBlock{headerBlk}, body...)
		out = append(out, continuing...)
		out = append(out, next...)
		return out, nil

	case RegionBreak:
		if len(loops) == 0 {
			return nil, spirv.NewError(spirv.KindLowerLift, "lift", "break region outside any loop")
		}
		target := loops[len(loops)-1].merge
		return []spirv.BasicBlock{withTerminator(r.Instructions, r.LabelID, branchTo(target))}, nil

	case RegionContinue:
		if len(loops) == 0 {
			return nil, spirv.NewError(spirv.KindLowerLift, "lift", "continue region outside any loop")
		}
		target := loops[len(loops)-1].continuing
		return []spirv.BasicBlock{withTerminator(r.Instructions, r.LabelID, branchTo(target))}, nil

	case RegionTerminator:
		blk := spirv.BasicBlock{
			Label:        spirv.Instruction{Opcode: spirv.OpLabel, Operands: []uint32{r.LabelID}},
			Instructions: append(append([]spirv.Instruction{}, r.Instructions...), r.Terminator),
		}
		return []spirv.BasicBlock{blk}, nil

	default:
		return nil, spirv.NewError(spirv.KindInternal, "lift", "unrecognized region kind")
	}
}

// liftContinuing flattens a loop's continuing region, re-adding the
// backedge branch to the loop header that Lower's structurizeFromBackedge
// recognized and dropped.
func liftContinuing(r *Region, headerID uint32) ([]spirv.BasicBlock, error) {
	if r == nil {
		return nil, nil
	}
	if r.Kind == RegionTerminator {
		blk := spirv.BasicBlock{
			Label:        spirv.Instruction{Opcode: spirv.OpLabel, Operands: []uint32{r.LabelID}},
			Instructions: append(append([]spirv.Instruction{}, r.Instructions...), r.Terminator),
		}
		return []spirv.BasicBlock{blk}, nil
	}
	blk := withTerminator(r.Instructions, r.LabelID, branchTo(headerID))
	return []spirv.BasicBlock{blk}, nil
}
