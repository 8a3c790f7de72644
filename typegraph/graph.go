// Package typegraph builds a canonical, id-free structural representation
// of a SPIR-V module's type universe. Two modules that declare "the same"
// types under different id numberings produce equal typegraph.Node values,
// which is what the link-merge patch needs when
// matching a replacement function's signature against candidates drawn from
// a different module (ids are never comparable across modules; structure
// is).
package typegraph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/spv-patcher/spirv"
)

// Kind discriminates the shape of a Node.
type Kind int

const (
	KindVoid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindVector
	KindMatrix
	KindImage
	KindSampler
	KindSampledImage
	KindArray
	KindRuntimeArray
	KindStruct
	KindOpaque
	KindPointer
	KindFunction
)

// Member is one field of a KindStruct Node.
type Member struct {
	Type      *Node
	Offset    uint32
	HasOffset bool
}

// Node is a structural, id-free type description. Two Nodes built from
// different modules (or different ids in the same module) are Equal iff
// they describe the same SPIR-V type shape.
type Node struct {
	Kind Kind

	// Int / Float
	Width  uint32
	Signed bool // OpTypeInt's Signedness operand (0 = unsigned, 1 = signed)

	// Vector / Matrix
	Elem    *Node
	Count   uint32 // vector component count, matrix column count
	MatRows *Node  // matrix's column type (itself a KindVector Node)

	// Array / RuntimeArray / Pointer
	Length   uint32 // OpTypeArray's constant length; meaningless for RuntimeArray
	Pointee  *Node
	Storage  spirv.StorageClass

	// Struct
	Members []Member

	// Opaque (named, uninterpreted) type, e.g. "OpTypeOpaque" payloads
	OpaqueName string

	// Image / SampledImage
	SampledType  *Node
	Dim          uint32
	Depth        uint32
	Arrayed      uint32
	MultiSampled uint32
	Sampled      uint32
	ImageFormat  uint32

	// Function
	ReturnType *Node
	Params     []*Node
}

// Graph is the full set of Nodes reachable from a module's type section,
// indexed both by the originating result id (for lookups while building
// other passes) and de-duplicated by structural key (so structurally
// identical types, however declared, share one *Node).
type Graph struct {
	ByID map[uint32]*Node
	pool map[string]*Node
}

// NodeByID returns the Node a given flat-IR result id resolves to, if it
// names a type in this graph.
func (g *Graph) NodeByID(id uint32) (*Node, bool) {
	n, ok := g.ByID[id]
	return n, ok
}

// Build walks m's type section and produces its Graph. It uses a
// worklist-fixed-point algorithm rather than a single top-to-bottom pass,
// so a type may refer to one declared later in the section. A round that
// resolves nothing ends the walk with an error; this is what happens to a
// self-referential struct, since OpTypeForwardPointer is not read here.
func Build(m *spirv.Module) (*Graph, error) {
	g := &Graph{ByID: make(map[uint32]*Node), pool: make(map[string]*Node)}
	offsets := collectMemberOffsets(m)

	pending := make([]spirv.Instruction, 0, len(m.TypesConstantsGlobals))
	for _, inst := range m.TypesConstantsGlobals {
		if isTypeOpcode(inst.Opcode) {
			pending = append(pending, inst)
		}
	}

	for progress := true; progress && len(pending) > 0; {
		progress = false
		remaining := pending[:0]
		for _, inst := range pending {
			n, ok, err := g.tryResolve(inst, offsets)
			if err != nil {
				return nil, err
			}
			if !ok {
				remaining = append(remaining, inst)
				continue
			}
			progress = true
			id, _ := inst.ResultID()
			g.ByID[id] = g.intern(n)
		}
		pending = remaining
	}

	if len(pending) > 0 {
		first, _ := pending[0].ResultID()
		return nil, spirv.NewError(spirv.KindInvalidModule, "typegraph",
			fmt.Sprintf("type %%%d could not be resolved (cyclic or forward-declared without a matching definition)", first))
	}
	return g, nil
}

// collectMemberOffsets indexes OpMemberDecorate Offset annotations by
// (struct id, member index) so OpTypeStruct resolution can fold them into
// the Member's Node before the struct is interned — offsets must be part of
// the structural key from the start, since two structs with identically-
// typed members but different layouts are not the same type.
func collectMemberOffsets(m *spirv.Module) map[uint32]map[uint32]uint32 {
	offsets := make(map[uint32]map[uint32]uint32)
	for _, inst := range m.Annotations {
		if inst.Opcode != spirv.OpMemberDecorate || len(inst.Operands) < 4 {
			continue
		}
		structID, memberIdx := inst.Operands[0], inst.Operands[1]
		if spirv.Decoration(inst.Operands[2]) != spirv.DecorationOffset {
			continue
		}
		if offsets[structID] == nil {
			offsets[structID] = make(map[uint32]uint32)
		}
		offsets[structID][memberIdx] = inst.Operands[3]
	}
	return offsets
}

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

// tryResolve attempts to build a Node for inst. It returns ok=false (not an
// error) when inst references another type id this Graph hasn't resolved
// yet, so the caller can retry it on a later worklist pass.
func (g *Graph) tryResolve(inst spirv.Instruction, offsets map[uint32]map[uint32]uint32) (*Node, bool, error) {
	// Every OpType* instruction's first operand is its own result id (none
	// of them carry a result-type word); the rest of the operands are the
	// type's actual payload.
	if len(inst.Operands) < 1 {
		return nil, false, nil
	}
	rest := inst.Operands[1:]

	switch inst.Opcode {
	case spirv.OpTypeVoid:
		return &Node{Kind: KindVoid}, true, nil
	case spirv.OpTypeBool:
		return &Node{Kind: KindBool}, true, nil
	case spirv.OpTypeInt:
		if len(rest) < 2 {
			return nil, false, nil
		}
		return &Node{Kind: KindInt, Width: rest[0], Signed: rest[1] != 0}, true, nil
	case spirv.OpTypeFloat:
		if len(rest) < 1 {
			return nil, false, nil
		}
		return &Node{Kind: KindFloat, Width: rest[0]}, true, nil
	case spirv.OpTypeVector:
		if len(rest) < 2 {
			return nil, false, nil
		}
		elem, ok := g.ByID[rest[0]]
		if !ok {
			return nil, false, nil
		}
		return &Node{Kind: KindVector, Elem: elem, Count: rest[1]}, true, nil
	case spirv.OpTypeMatrix:
		if len(rest) < 2 {
			return nil, false, nil
		}
		col, ok := g.ByID[rest[0]]
		if !ok {
			return nil, false, nil
		}
		return &Node{Kind: KindMatrix, MatRows: col, Count: rest[1]}, true, nil
	case spirv.OpTypeArray:
		if len(rest) < 2 {
			return nil, false, nil
		}
		elem, ok := g.ByID[rest[0]]
		if !ok {
			return nil, false, nil
		}
		// rest[1] names a constant id; the array's length is resolved by
		// whichever pass cares about its concrete value (the
		// constant-mutation patch reads it straight off the instruction
		// list, not through here) — this graph only records the id, since
		// structural equality only needs to know two arrays share the same
		// length-defining constant, not its value.
		return &Node{Kind: KindArray, Elem: elem, Length: rest[1]}, true, nil
	case spirv.OpTypeRuntimeArray:
		if len(rest) < 1 {
			return nil, false, nil
		}
		elem, ok := g.ByID[rest[0]]
		if !ok {
			return nil, false, nil
		}
		return &Node{Kind: KindRuntimeArray, Elem: elem}, true, nil
	case spirv.OpTypeStruct:
		id, _ := inst.ResultID()
		structOffsets := offsets[id]
		members := make([]Member, 0, len(rest))
		for i, memberType := range rest {
			mt, ok := g.ByID[memberType]
			if !ok {
				return nil, false, nil
			}
			member := Member{Type: mt}
			if off, ok := structOffsets[uint32(i)]; ok {
				member.Offset, member.HasOffset = off, true
			}
			members = append(members, member)
		}
		return &Node{Kind: KindStruct, Members: members}, true, nil
	case spirv.OpTypeOpaque:
		name, _ := decodeOpaqueName(rest)
		return &Node{Kind: KindOpaque, OpaqueName: name}, true, nil
	case spirv.OpTypePointer:
		if len(rest) < 2 {
			return nil, false, nil
		}
		storage := spirv.StorageClass(rest[0])
		pointee, ok := g.ByID[rest[1]]
		if !ok {
			// A forward-declared pointer whose pointee has not resolved
			// yet is expected; try again next pass.
			return nil, false, nil
		}
		return &Node{Kind: KindPointer, Storage: storage, Pointee: pointee}, true, nil
	case spirv.OpTypeFunction:
		if len(rest) < 1 {
			return nil, false, nil
		}
		ret, ok := g.ByID[rest[0]]
		if !ok {
			return nil, false, nil
		}
		params := make([]*Node, 0, len(rest)-1)
		for _, p := range rest[1:] {
			pt, ok := g.ByID[p]
			if !ok {
				return nil, false, nil
			}
			params = append(params, pt)
		}
		return &Node{Kind: KindFunction, ReturnType: ret, Params: params}, true, nil
	case spirv.OpTypeSampler:
		return &Node{Kind: KindSampler}, true, nil
	case spirv.OpTypeImage:
		if len(rest) < 7 {
			return nil, false, nil
		}
		sampledType, ok := g.ByID[rest[0]]
		if !ok {
			return nil, false, nil
		}
		n := &Node{Kind: KindImage, SampledType: sampledType, Dim: rest[1], Depth: rest[2],
			Arrayed: rest[3], MultiSampled: rest[4], Sampled: rest[5], ImageFormat: rest[6]}
		return n, true, nil
	case spirv.OpTypeSampledImage:
		if len(rest) < 1 {
			return nil, false, nil
		}
		img, ok := g.ByID[rest[0]]
		if !ok {
			return nil, false, nil
		}
		return &Node{Kind: KindSampledImage, Elem: img}, true, nil
	default:
		return nil, false, nil
	}
}

func decodeOpaqueName(ops []uint32) (string, int) {
	var sb strings.Builder
	words := 0
	for _, w := range ops {
		words++
		done := false
		for shift := 0; shift < 32; shift += 8 {
			c := byte(w >> shift)
			if c == 0 {
				done = true
				break
			}
			sb.WriteByte(c)
		}
		if done {
			break
		}
	}
	return sb.String(), words
}

// intern returns the canonical *Node for a structurally-equal node already
// seen by this Graph, registering n as canonical if it is new. This keeps
// Equal a pointer comparison for nodes built by the same Graph, and gives
// Key a stable, reusable string to hash on.
func (g *Graph) intern(n *Node) *Node {
	key := Key(n)
	if existing, ok := g.pool[key]; ok {
		return existing
	}
	g.pool[key] = n
	return n
}

// Key returns a canonical structural string key for n: two Nodes have the
// same Key iff they are structurally Equal. Grounded on the same
// string-key-per-shape approach as a handle-based type registry, extended
// to recurse through every composite field this package's Node carries.
func Key(n *Node) string {
	if n == nil {
		return "nil"
	}
	var b strings.Builder
	writeKey(&b, n)
	return b.String()
}

func writeKey(b *strings.Builder, n *Node) {
	if n == nil {
		b.WriteString("nil")
		return
	}
	switch n.Kind {
	case KindVoid:
		b.WriteString("void")
	case KindBool:
		b.WriteString("bool")
	case KindInt:
		b.WriteString("int:")
		b.WriteString(strconv.FormatUint(uint64(n.Width), 10))
		b.WriteByte(':')
		b.WriteString(strconv.FormatBool(n.Signed))
	case KindFloat:
		b.WriteString("float:")
		b.WriteString(strconv.FormatUint(uint64(n.Width), 10))
	case KindVector:
		b.WriteString("vec:")
		b.WriteString(strconv.FormatUint(uint64(n.Count), 10))
		b.WriteByte(':')
		writeKey(b, n.Elem)
	case KindMatrix:
		b.WriteString("mat:")
		b.WriteString(strconv.FormatUint(uint64(n.Count), 10))
		b.WriteByte(':')
		writeKey(b, n.MatRows)
	case KindArray:
		b.WriteString("array:")
		b.WriteString(strconv.FormatUint(uint64(n.Length), 10))
		b.WriteByte(':')
		writeKey(b, n.Elem)
	case KindRuntimeArray:
		b.WriteString("runtime_array:")
		writeKey(b, n.Elem)
	case KindStruct:
		b.WriteString("struct:")
		b.WriteString(strconv.Itoa(len(n.Members)))
		for _, m := range n.Members {
			b.WriteString(":m(")
			writeKey(b, m.Type)
			if m.HasOffset {
				b.WriteByte(',')
				b.WriteString(strconv.FormatUint(uint64(m.Offset), 10))
			}
			b.WriteByte(')')
		}
	case KindOpaque:
		b.WriteString("opaque:")
		b.WriteString(n.OpaqueName)
	case KindPointer:
		b.WriteString("ptr:")
		b.WriteString(strconv.FormatUint(uint64(n.Storage), 10))
		b.WriteByte(':')
		writeKey(b, n.Pointee)
	case KindFunction:
		b.WriteString("fn:")
		writeKey(b, n.ReturnType)
		for _, p := range n.Params {
			b.WriteByte(',')
			writeKey(b, p)
		}
	case KindSampler:
		b.WriteString("sampler")
	case KindImage:
		b.WriteString(fmt.Sprintf("image:%d:%d:%d:%d:%d:%d:", n.Dim, n.Depth, n.Arrayed, n.MultiSampled, n.Sampled, n.ImageFormat))
		writeKey(b, n.SampledType)
	case KindSampledImage:
		b.WriteString("sampled_image:")
		writeKey(b, n.Elem)
	default:
		b.WriteString("unknown")
	}
}

// Equal reports whether a and b describe the same type shape, regardless of
// which ids or which module they were built from.
func Equal(a, b *Node) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return Key(a) == Key(b)
}
