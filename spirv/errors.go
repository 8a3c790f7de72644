package spirv

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind categorizes patch-engine errors. It is a flat taxonomy shared by
// every package in this module (spirv, typegraph, structured, funcfind,
// patch, validator) — the lowest common package houses it so no package
// needs to import "up" through patch just to report an error.
type ErrorKind uint8

const (
	// KindParse: malformed binary or truncated word stream.
	KindParse ErrorKind = iota
	// KindInvalidModule: zero or more than one entry point, no memory
	// model, or a cyclic type graph.
	KindInvalidModule
	// KindPatchPrecondition: a patch's required precondition was unmet
	// (e.g. target already carries a LinkageAttributes decoration).
	KindPatchPrecondition
	// KindSignatureMismatch: no candidate function matches a required
	// signature, or a replacement's signature disagrees with its export.
	KindSignatureMismatch
	// KindLowerLift: a round trip through structured IR failed
	// (structurizer or merge reported a conflict).
	KindLowerLift
	// KindExternal: validator/disassembler process not found, or it
	// reported a failure.
	KindExternal
	// KindInternal: invariant violation; a bug in the engine, not in the
	// input module or patch configuration.
	KindInternal
)

// String returns a human-readable error-kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindParse:
		return "Parse"
	case KindInvalidModule:
		return "InvalidModule"
	case KindPatchPrecondition:
		return "PatchPrecondition"
	case KindSignatureMismatch:
		return "SignatureMismatch"
	case KindLowerLift:
		return "LowerLift"
	case KindExternal:
		return "External"
	case KindInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// PatchError is the error type returned by every fallible operation in this
// module. Stage names which patch or pipeline step produced it (e.g.
// "structured.Lower", "disassembler.Disassemble"); Cause is the wrapped root error,
// if any, reachable through Unwrap so errors.Is/errors.As keep working.
type PatchError struct {
	Kind  ErrorKind
	Stage string
	Cause error
}

// NewError builds a *PatchError with no further wrapped cause.
func NewError(kind ErrorKind, stage, message string) *PatchError {
	return &PatchError{Kind: kind, Stage: stage, Cause: errors.New(message)}
}

// Wrap builds a *PatchError that wraps an existing error, preserving its
// cause chain for errors.Is/errors.As and github.com/pkg/errors stack-trace
// inspection.
func Wrap(kind ErrorKind, stage string, cause error) *PatchError {
	if cause == nil {
		return nil
	}
	return &PatchError{Kind: kind, Stage: stage, Cause: errors.WithStack(cause)}
}

// Wrapf is Wrap with a formatted message prefixed onto the cause.
func Wrapf(kind ErrorKind, stage string, cause error, format string, args ...any) *PatchError {
	if cause == nil {
		return nil
	}
	return &PatchError{Kind: kind, Stage: stage, Cause: errors.Wrapf(cause, format, args...)}
}

func (e *PatchError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s (%s): %v", e.Stage, e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

func (e *PatchError) Unwrap() error {
	return e.Cause
}
