package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseParse       Phase = "parse"       // wire bytes to Example
	PhaseDecode      Phase = "decode"      // feature dispatch
	PhaseMaterialize Phase = "materialize" // value list to array
	PhaseExport      Phase = "export"      // array to host
	PhaseRead        Phase = "read"        // record framing
)

// Kind categorizes the error
type Kind string

const (
	KindMalformed            Kind = "malformed"
	KindUnsupportedFieldKind Kind = "unsupported_field_kind"
	KindEmptyField           Kind = "empty_field"
	KindReleased             Kind = "released"
	KindOutOfBounds          Kind = "out_of_bounds"
	KindAllocation           Kind = "allocation"
	KindChecksum             Kind = "checksum"
	KindInvalidInput         Kind = "invalid_input"
	KindUnsupported          Kind = "unsupported"
)

// Sentinels for errors.Is. They match any phase.
var (
	ErrParse                = &Error{Kind: KindMalformed}
	ErrUnsupportedFieldKind = &Error{Kind: KindUnsupportedFieldKind}
	ErrEmptyField           = &Error{Kind: KindEmptyField}
	ErrReleased             = &Error{Kind: KindReleased}
	ErrChecksum             = &Error{Kind: KindChecksum}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Field  string
	Detail string
	Offset int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if e.Field != "" {
		b.WriteString(" at feature ")
		b.WriteString(fmt.Sprintf("%q", e.Field))
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

// Is reports whether target matches this error. A target without a phase
// matches on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Offset: -1,
		},
	}
}

// Field sets the feature name
func (b *Builder) Field(name string) *Builder {
	b.err.Field = name
	return b
}

// Offset sets the byte offset in the serialized input
func (b *Builder) Offset(off int) *Builder {
	b.err.Offset = off
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

// Convenience constructors for common error patterns

// Malformed creates a parse error for bad input bytes at offset
func Malformed(offset int, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindMalformed,
		Offset: offset,
		Detail: fmt.Sprintf("malformed example at byte %d", offset),
		Cause:  cause,
	}
}

// UnsupportedFieldKind creates an error for a feature whose encoding is not
// one of the known list kinds
func UnsupportedFieldKind(field string, kind any) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnsupportedFieldKind,
		Field:  field,
		Value:  kind,
		Detail: fmt.Sprintf("unexpected feature kind %v", kind),
		Offset: -1,
	}
}

// EmptyField creates an error for a bytes feature with no values
func EmptyField(phase Phase, field string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindEmptyField,
		Field:  field,
		Detail: "bytes list has no values, element width is undefined",
		Offset: -1,
	}
}

// Released creates an error for use of an array after its last release
func Released(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindReleased,
		Detail: fmt.Sprintf("%s already released", what),
		Offset: -1,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
		Offset: -1,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes", size),
		Offset: -1,
	}
}

// ChecksumMismatch creates a checksum error at offset
func ChecksumMismatch(phase Phase, offset int, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindChecksum,
		Offset: offset,
		Detail: fmt.Sprintf("%s checksum mismatch at byte %d", what, offset),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
		Offset: -1,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
		Offset: -1,
	}
}

// WithField returns err annotated with the feature name. Errors that are not
// *Error are wrapped as KindInvalidInput in the decode phase.
func WithField(err error, field string) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		cp := *e
		cp.Field = field
		return &cp
	}
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidInput,
		Field:  field,
		Cause:  err,
		Offset: -1,
	}
}
