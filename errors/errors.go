package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseAssemble Phase = "assemble" // module builder operations
	PhaseDecode   Phase = "decode"   // WASM to model
	PhaseValidate Phase = "validate" // artifact validation
	PhaseLoad     Phase = "load"     // recipe/config loading
	PhaseParse    Phase = "parse"    // YAML parsing
)

// Kind categorizes the error
type Kind string

const (
	KindSequence      Kind = "sequence"
	KindInvariant     Kind = "invariant"
	KindInvalidModule Kind = "invalid_module"
	KindInvalidData   Kind = "invalid_data"
	KindUnsupported   Kind = "unsupported"
	KindNotFound      Kind = "not_found"
	KindInvalidInput  Kind = "invalid_input"
	KindOutOfBounds   Kind = "out_of_bounds"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	Section string
	Detail  string
	Path    []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Section != "" {
		b.WriteString(" in ")
		b.WriteString(e.Section)
		b.WriteString(" section")
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the entity path, e.g. "import", "env", "log"
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Section sets the binary section the error relates to
func (b *Builder) Section(name string) *Builder {
	b.err.Section = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Sentinels for errors.Is matching on phase and kind.
var (
	ErrSequence      = &Error{Phase: PhaseAssemble, Kind: KindSequence}
	ErrInvariant     = &Error{Phase: PhaseAssemble, Kind: KindInvariant}
	ErrInvalidModule = &Error{Phase: PhaseValidate, Kind: KindInvalidModule}
)

// Sequence reports a builder operation invoked out of its allowed order.
func Sequence(format string, args ...any) *Error {
	return &Error{
		Phase:  PhaseAssemble,
		Kind:   KindSequence,
		Detail: fmt.Sprintf(format, args...),
	}
}

// Invariant reports broken internal builder state.
func Invariant(format string, args ...any) *Error {
	return &Error{
		Phase:  PhaseAssemble,
		Kind:   KindInvariant,
		Detail: fmt.Sprintf(format, args...),
	}
}

// InvalidModule wraps a validator diagnostic for a finished artifact.
func InvalidModule(validator string, cause error) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindInvalidModule,
		Detail: validator + " rejected module",
		Cause:  cause,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a recipe or config loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// ParseFailed creates a parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}
