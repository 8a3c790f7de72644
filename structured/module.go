package structured

import "github.com/gogpu/spv-patcher/spirv"

// Region is a node in a function's structured control-flow tree. SPIR-V
// itself requires structured control flow (every selection/loop header
// names its own merge block via OpSelectionMerge/OpLoopMerge), so this
// package's Region shapes mirror SPIR-V's own constructs directly rather
// than reconstructing structure from an arbitrary CFG the way a general
// "relooper" would.
type Region struct {
	Kind RegionKind

	// Shared by every kind: straight-line instructions that
	// precede this region's branch (empty for a bare terminator region).
	Instructions []spirv.Instruction

	// Every kind except RegionTerminator: what follows this region in its
	// enclosing sequence once the region's own control flow resolves.
	Next *Region

	// RegionIf
	Condition  uint32 // id of the bool value tested
	Accept     *Region
	Reject     *Region // nil if there was no false branch beyond the merge
	MergeLabel uint32

	// RegionLoop
	Body       *Region
	Continuing *Region
	MergeBlock uint32
	ContinueID uint32

	// RegionTerminator
	Terminator spirv.Instruction // OpReturn, OpReturnValue, OpKill, OpUnreachable

	// original block label id this region's instructions came from, kept
	// so Lift can reuse ids instead of minting new ones when nothing about
	// the region changed.
	LabelID uint32
}

// RegionKind discriminates the shape of a Region.
type RegionKind int

const (
	RegionSeq RegionKind = iota
	RegionIf
	RegionLoop
	RegionTerminator
	RegionBreak
	RegionContinue
)

// Function is one function's structured form: its header/parameter
// metadata (kept verbatim from the flat Function, since patches that care
// about signatures work through typegraph.Node, not this struct) plus its
// Region-tree body.
type Function struct {
	Header     spirv.Instruction
	Parameters []spirv.Instruction
	Body       *Region
}

func (f *Function) ResultID() uint32 {
	id, _ := f.Header.ResultID()
	return id
}

// Module is the structured form of a whole spirv.Module: its non-function
// sections untouched (patches that touch capabilities, decorations or
// globals work directly on the flat spirv.Module — only function bodies
// round-trip through this representation) plus one Function per flat
// Function.
type Module struct {
	Functions []*Function
}

// FindFunction returns the Function whose header result id is id.
func (m *Module) FindFunction(id uint32) (*Function, bool) {
	for _, f := range m.Functions {
		if f.ResultID() == id {
			return f, true
		}
	}
	return nil, false
}
