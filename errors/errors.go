package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDefine  Phase = "define"  // schema registration
	PhaseResolve Phase = "resolve" // name and field-path resolution
	PhaseDecode  Phase = "decode"  // ROM bytes to value tree
	PhaseEncode  Phase = "encode"  // value tree to ROM bytes
	PhaseLoad    Phase = "load"    // schema file loading
)

// Kind categorizes the error
type Kind string

const (
	KindDuplicateName    Kind = "duplicate_name"
	KindUnknownType      Kind = "unknown_type"
	KindOutOfBounds      Kind = "out_of_bounds"
	KindBitfieldOverflow Kind = "bitfield_overflow"
	KindUnknownVariant   Kind = "unknown_variant"
	KindVariantMismatch  Kind = "variant_mismatch"
	KindNegativeLength   Kind = "negative_length"
	KindSchemaMismatch   Kind = "schema_mismatch"
	KindPathResolution   Kind = "path_resolution"
	KindOverflow         Kind = "overflow"
	KindInvalidData      Kind = "invalid_data"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Type   string
	Detail string
	Path   []string
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

	if e.Type != "" {
		b.WriteString(": type ")
		b.WriteString(e.Type)
	}

	if e.Detail != "" {
		if e.Type != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
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

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Type sets the schema type name
func (b *Builder) Type(t string) *Builder {
	b.err.Type = t
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

// DuplicateName creates a redefinition error
func DuplicateName(name string) *Error {
	return &Error{
		Phase:  PhaseDefine,
		Kind:   KindDuplicateName,
		Type:   name,
		Detail: "type already defined",
	}
}

// UnknownType creates an unresolved type name error
func UnknownType(phase Phase, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnknownType,
		Type:   name,
		Detail: "type not defined in registry",
	}
}

// OutOfBounds creates an out of bounds read error
func OutOfBounds(phase Phase, path []string, offset, length uint32, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("read of %d bytes at offset 0x%X past end of buffer", length, offset),
		Cause:  cause,
	}
}

// BitfieldOverflow creates an error for subfield widths exceeding the backing width
func BitfieldOverflow(phase Phase, typeName string, declared, backing uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBitfieldOverflow,
		Type:   typeName,
		Detail: fmt.Sprintf("subfields declare %d bits, backing scalar holds %d", declared, backing),
	}
}

// UnknownVariant creates an error for a discriminant choosing an undeclared case
func UnknownVariant(phase Phase, path []string, caseName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnknownVariant,
		Path:   path,
		Detail: fmt.Sprintf("discriminant chose case %q, not declared on union", caseName),
		Value:  caseName,
	}
}

// VariantMismatch creates an error for a union value whose tag disagrees with
// the discriminant function
func VariantMismatch(path []string, tagged, computed string) *Error {
	return &Error{
		Phase:  PhaseEncode,
		Kind:   KindVariantMismatch,
		Path:   path,
		Detail: fmt.Sprintf("value is tagged %q but discriminant selects %q", tagged, computed),
	}
}

// NegativeLength creates an error for a negative resolved array length
func NegativeLength(phase Phase, path []string, length int64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNegativeLength,
		Path:   path,
		Detail: fmt.Sprintf("resolved array length %d is negative", length),
		Value:  length,
	}
}

// SchemaMismatch creates an error for a value tree not shaped like its type
func SchemaMismatch(path []string, detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseEncode,
		Kind:   KindSchemaMismatch,
		Path:   path,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// PathResolution creates an error for a field path missing from the context
func PathResolution(phase Phase, path []string, segment string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindPathResolution,
		Path:   path,
		Detail: fmt.Sprintf("segment %q not found in any context frame", segment),
	}
}

// Overflow creates an error for a scalar value outside its width
func Overflow(path []string, value any, typeName string) *Error {
	return &Error{
		Phase:  PhaseEncode,
		Kind:   KindOverflow,
		Path:   path,
		Type:   typeName,
		Detail: fmt.Sprintf("value %v does not fit %s", value, typeName),
		Value:  value,
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

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
