// Package structured provides the structured-IR form of a SPIR-V function
// body — a region tree (blocks, ifs, loops) instead of a flat list of basic
// blocks connected by branches — plus the lift/lower pair that translates
// between it and the flat spirv.Module form.
//
// A Context is the shared, mutable state both forms need: the module's
// type graph (for signature comparisons) and its id allocator (so a patch
// working in structured form can still mint fresh ids that land in the
// same id space as the originating flat module). It plays the role the
// teacher's ir.TypeRegistry plays for naga: a single interning point every
// downstream pass shares by reference, standing in for the borrow-checked
// Rc<RefCell<Context>> the spec's origin describes — Go has no borrow
// checker, so sharing is just an ordinary pointer, with the convention
// (not the compiler) enforcing that only one of the flat or structured form
// is treated as the current source of truth at a time (see DualIR).
package structured

import (
	"github.com/gogpu/spv-patcher/spirv"
	"github.com/gogpu/spv-patcher/typegraph"
)

// Context is shared by every structured.Function lowered from the same
// spirv.Module, and by the DualIR that owns them.
type Context struct {
	Module *spirv.Module
	Types  *typegraph.Graph
}

// NewContext builds a Context for m, including its type graph.
func NewContext(m *spirv.Module) (*Context, error) {
	g, err := typegraph.Build(m)
	if err != nil {
		return nil, spirv.Wrap(spirv.KindLowerLift, "structured.NewContext", err)
	}
	return &Context{Module: m, Types: g}, nil
}

// NextID mints a fresh id in the underlying module's id space.
func (c *Context) NextID() uint32 {
	return c.Module.NextID()
}
