// Package funcfind locates function definitions inside a spirv.Module by
// debug name or by signature, for patches (chiefly link-merge) that need to
// identify "the function this replacement targets" without the caller
// having to walk OpFunction instructions by hand.
package funcfind

import "github.com/gogpu/spv-patcher/spirv"

// FuncSignature is a function's return type plus its ordered parameter
// types, each a type id unique within one module. Two signatures from
// different modules are only comparable by structural type equality (see
// typegraph.Equal) — comparing ids directly is meaningless across modules.
type FuncSignature struct {
	ReturnType uint32
	ParamTypes []uint32
}

// Equal compares two signatures by raw id equality — valid only when both
// signatures were built from the same module (use typegraph.Equal on each
// type pair for cross-module comparison, as link-merge's Prepare stage
// does).
func (s FuncSignature) Equal(o FuncSignature) bool {
	if s.ReturnType != o.ReturnType || len(s.ParamTypes) != len(o.ParamTypes) {
		return false
	}
	for i, t := range s.ParamTypes {
		if t != o.ParamTypes[i] {
			return false
		}
	}
	return true
}

// FuncIdent identifies a function to Find, either by debug name or by
// signature — never both, never neither. Build one with NewNameIdent or
// NewSignatureIdent; the zero value is not a valid FuncIdent.
type FuncIdent struct {
	Name      string
	Signature *FuncSignature
}

// NewNameIdent builds a FuncIdent that matches by debug name.
func NewNameIdent(name string) FuncIdent {
	return FuncIdent{Name: name}
}

// NewSignatureIdent builds a FuncIdent that matches by signature.
func NewSignatureIdent(sig FuncSignature) FuncIdent {
	return FuncIdent{Signature: &sig}
}

// byName reports whether this ident matches by debug name rather than
// signature.
func (id FuncIdent) byName() bool {
	return id.Signature == nil
}

// SignatureOf builds the FuncSignature for flat function f.
func SignatureOf(f *spirv.Function) FuncSignature {
	return FuncSignature{ReturnType: f.ResultType(), ParamTypes: f.ParamTypes()}
}
