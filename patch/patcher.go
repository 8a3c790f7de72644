// Package patch implements the patch pipeline: a Patcher owns a module in
// one of two interchangeable forms (flat or structured, see DualIR) and
// applies a sequence of Patch values to it, each requesting whichever form
// it needs and leaving the result ready for the next patch or for final
// assembly.
package patch

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/gogpu/spv-patcher/spirv"
	"github.com/gogpu/spv-patcher/structured"
	"github.com/gogpu/spv-patcher/typegraph"
)

// discardLogger is the default logger for a Patcher that was never given
// one explicitly — logging is ambient diagnostics, never load-bearing for
// correctness, so a caller that doesn't care about it pays no cost.
func discardLogger() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

// dualKind tags which of DualIR's two forms is currently authoritative.
type dualKind int

const (
	dualFlat dualKind = iota
	dualStructured
)

// DualIR holds a module in exactly one fresh form at a time — "at most one
// form fresh" — converting on demand via the structured package's Lower and
// Lift. This is the Go stand-in for the spec's tagged-union ownership
// model: there is no borrow checker to enforce it, so the enforcement is
// "only AsFlat/AsStructured ever read kind", with every other method going
// through them.
type DualIR struct {
	kind       dualKind
	flat       *spirv.Module
	structured *structured.Module
	ctx        *structured.Context
}

func newDualIR(m *spirv.Module) *DualIR {
	return &DualIR{kind: dualFlat, flat: m}
}

// AsFlat returns the module's flat form, lifting it out of structured form
// first if that is what is currently fresh.
func (d *DualIR) AsFlat() (*spirv.Module, error) {
	if d.kind == dualFlat {
		return d.flat, nil
	}
	m, err := structured.Lift(d.structured, d.ctx)
	if err != nil {
		return nil, err
	}
	d.flat = m
	d.kind = dualFlat
	return d.flat, nil
}

// AsStructured returns the module's structured form and its shared Context,
// lowering from flat form first if needed.
func (d *DualIR) AsStructured() (*structured.Module, *structured.Context, error) {
	if d.kind == dualStructured {
		return d.structured, d.ctx, nil
	}
	ctx, err := structured.NewContext(d.flat)
	if err != nil {
		return nil, nil, err
	}
	sm, err := structured.Lower(ctx)
	if err != nil {
		return nil, nil, err
	}
	d.ctx, d.structured = ctx, sm
	d.kind = dualStructured
	return d.structured, d.ctx, nil
}

// Patcher is the pipeline driver: it owns a private clone of the template
// module (so a failed or abandoned pipeline never mutates the caller's
// original) plus a cached type graph, rebuilt lazily and invalidated
// whenever a patch touches the flat module's type section.
type Patcher struct {
	state          *DualIR
	typeGraphCache *typegraph.Graph

	// warnings accumulates every non-fatal diagnostic a patch in this
	// pipeline has recorded (e.g. link-merge's Prepare matching more than
	// one candidate function, or Resolve finding no caller to redirect).
	// go.uber.org/multierr is the combinator: each warning is appended as
	// its own error, and Warnings() hands the combined value back so a
	// caller can log multierr.Errors(p.Warnings()) or treat it as one
	// error.
	warnings error

	// logger receives every warning as a structured log line, in addition
	// to it being collected into warnings. nil-safe: set lazily to a
	// discard logger on first use, so a Patcher built via NewPatcher (no
	// logger given) never pays for or requires one.
	logger *log.Logger
}

// WithLogger attaches logger to p, so the pipeline's non-fatal warnings
// (link-merge's signature tie-breaks and unredirected call sites) are also
// emitted as structured log lines, not just accumulated in Warnings(). A
// nil logger is equivalent to never calling WithLogger.
func (p *Patcher) WithLogger(logger *log.Logger) *Patcher {
	p.logger = logger
	return p
}

func (p *Patcher) log() *log.Logger {
	if p.logger == nil {
		p.logger = discardLogger()
	}
	return p.logger
}

// addWarning records a single non-fatal diagnostic from stage.
func (p *Patcher) addWarning(stage, message string) {
	p.warnings = multierr.Append(p.warnings, fmt.Errorf("%s: %s", stage, message))
	p.log().WithField("stage", stage).Warn(message)
}

// Warnings returns every non-fatal diagnostic recorded so far, combined via
// multierr. Nil means no patch in this pipeline has raised one.
func (p *Patcher) Warnings() error {
	return p.warnings
}

// Patch is the single-method interface every patch implements — Go's
// answer to the spec's dynamic-dispatch "capability" trait. Apply consumes
// p's receiver by convention: implementations return a new *Patcher (almost
// always the same pointer, mutated in place) and callers must not reuse the
// one they passed in except through the returned value.
type Patch interface {
	Apply(p *Patcher) (*Patcher, error)
}

// NewPatcher wraps a deep copy of m in a Patcher. m is not modified: every
// section, instruction and operand slice the Patcher works on is its own.
func NewPatcher(m *spirv.Module) *Patcher {
	same := func(id uint32) uint32 { return id }
	cp := *m
	for _, sec := range []*[]spirv.Instruction{&cp.Capabilities, &cp.Extensions, &cp.ExtInstImports, &cp.EntryPoints, &cp.ExecutionModes, &cp.DebugStrings, &cp.DebugNames, &cp.Annotations, &cp.TypesConstantsGlobals} {
		*sec = remapInstructions(*sec, same)
	}
	if m.MemoryModel != nil {
		mm := remapInstruction(*m.MemoryModel, same)
		cp.MemoryModel = &mm
	}
	cp.Functions = make([]spirv.Function, len(m.Functions))
	for i, fn := range m.Functions {
		cp.Functions[i] = spirv.Function{Header: remapInstruction(fn.Header, same), Parameters: remapInstructions(fn.Parameters, same), Blocks: remapBlocks(fn.Blocks, same)}
	}
	return &Patcher{state: newDualIR(&cp)}
}

// Apply runs p.Apply(patcher) and returns its result, short-circuiting the
// caller's chain on the first error exactly like every other method here.
func (p *Patcher) Apply(patch Patch) (*Patcher, error) {
	return patch.Apply(p)
}

// AsFlat exposes the patcher's flat module, converting from structured form
// if needed. Patches that need the flat form call this first.
func (p *Patcher) AsFlat() (*spirv.Module, error) {
	return p.state.AsFlat()
}

// AsStructured exposes the patcher's structured module and shared context,
// converting from flat form if needed.
func (p *Patcher) AsStructured() (*structured.Module, *structured.Context, error) {
	return p.state.AsStructured()
}

// InvalidateTypeGraph drops the cached type graph. Any patch that adds,
// removes or mutates a type-section instruction must call this so the next
// TypeGraph() rebuilds instead of serving a stale cache.
func (p *Patcher) InvalidateTypeGraph() {
	p.typeGraphCache = nil
}

// TypeGraph returns the patcher's cached type graph, building it from the
// current flat form if there is no valid cache.
func (p *Patcher) TypeGraph() (*typegraph.Graph, error) {
	if p.typeGraphCache != nil {
		return p.typeGraphCache, nil
	}
	m, err := p.AsFlat()
	if err != nil {
		return nil, err
	}
	g, err := typegraph.Build(m)
	if err != nil {
		return nil, err
	}
	p.typeGraphCache = g
	return g, nil
}

// UnwrapModule returns the patcher's current module in flat form, for a
// caller that wants to keep working with spirv.Module directly (e.g. to
// run it through a different Patcher, or hand it to the validator).
func (p *Patcher) UnwrapModule() (*spirv.Module, error) {
	return p.AsFlat()
}

// Assemble returns the patcher's current module assembled to words.
func (p *Patcher) Assemble() ([]uint32, error) {
	m, err := p.AsFlat()
	if err != nil {
		return nil, err
	}
	return m.Assemble(), nil
}

// AssembleBytes returns the patcher's current module assembled to bytes.
func (p *Patcher) AssembleBytes() ([]byte, error) {
	m, err := p.AsFlat()
	if err != nil {
		return nil, err
	}
	return m.AssembleBytes(), nil
}

// Print writes a human-readable dump of the patcher's current module to w.
func (p *Patcher) Print(w io.Writer) error {
	m, err := p.AsFlat()
	if err != nil {
		return err
	}
	return m.Print(w)
}
