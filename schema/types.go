package schema

// Kind discriminates the type model.
type Kind uint8

const (
	KindScalar Kind = iota
	KindStruct
	KindBitfield
	KindUnion
	KindArray
	KindPointer
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindStruct:
		return "struct"
	case KindBitfield:
		return "bitfield"
	case KindUnion:
		return "union"
	case KindArray:
		return "array"
	case KindPointer:
		return "pointer"
	default:
		return "unknown"
	}
}

// Type describes one binary shape. Only the fields for its Kind are set.
// Compound types reference other types by registry name, so graphs may be
// cyclic and may name types defined later.
type Type struct {
	Kind Kind

	// Scalar
	Width  uint32 // bytes: 1, 2 or 4
	Signed bool

	// Struct
	Fields []Field

	// Bitfield
	Backing   string // name of the backing scalar
	Subfields []Subfield

	// Union
	Cases        []Case
	Discriminant Discriminant

	// Array
	Elem   string
	Length Length

	// Pointer; empty Target marks an opaque pointer that is never
	// deep-resolved
	Target string
	Label  LabelPolicy
}

// Field is one named struct member.
type Field struct {
	Name string
	Type string
}

// Subfield is one bitfield member. The first declared subfield occupies the
// low-order bits of the backing scalar.
type Subfield struct {
	Name string
	Bits uint32
}

// Case is one union alternative.
type Case struct {
	Name string
	Type string
}

// Case returns the declared case with the given name, or nil.
func (t *Type) Case(name string) *Case {
	for i := range t.Cases {
		if t.Cases[i].Name == name {
			return &t.Cases[i]
		}
	}
	return nil
}

// Field returns the declared field with the given name, or nil.
func (t *Type) Field(name string) *Field {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i]
		}
	}
	return nil
}

// LengthKind selects how an array's element count is obtained.
type LengthKind uint8

const (
	LengthFixed LengthKind = iota
	LengthFieldPath
)

// Length is an array length strategy: a constant, or a field path evaluated
// against already-decoded ancestor data.
type Length struct {
	Kind  LengthKind
	Fixed int
	Path  []string
}

// FixedLength declares a constant element count.
func FixedLength(n int) Length {
	return Length{Kind: LengthFixed, Fixed: n}
}

// FieldPathLength declares an element count read from an ancestor field.
func FieldPathLength(path ...string) Length {
	return Length{Kind: LengthFieldPath, Path: path}
}

// DiscriminantKind selects how a union's active case is chosen.
type DiscriminantKind uint8

const (
	DiscriminantConstant DiscriminantKind = iota
	DiscriminantThreshold
)

// Discriminant is a union case strategy. It is data rather than a closure so
// schemas stay serializable; the codec evaluates it against the context of
// already-decoded ancestor fields, never against bytes not yet read.
type Discriminant struct {
	Kind      DiscriminantKind
	Case      string   // constant case
	Path      []string // threshold field path
	Threshold int64
	Below     string // case when the field value is below the threshold
	AtOrAbove string // case otherwise
}

// ConstantCase always selects the same union case.
func ConstantCase(name string) Discriminant {
	return Discriminant{Kind: DiscriminantConstant, Case: name}
}

// ThresholdCase compares an ancestor field against a threshold: values below
// it select the first case, all others the second.
func ThresholdCase(path []string, threshold int64, below, atOrAbove string) Discriminant {
	return Discriminant{
		Kind:      DiscriminantThreshold,
		Path:      path,
		Threshold: threshold,
		Below:     below,
		AtOrAbove: atOrAbove,
	}
}

// LabelKind selects how pointer relocation labels are assigned.
type LabelKind uint8

const (
	// LabelFixed emits one literal label for every instance of the pointer
	// type. Distinct instances sharing a type collapse to one relocation
	// label; layouts with at most one instance per linked unit rely on this.
	LabelFixed LabelKind = iota
	// LabelIndexed appends an occurrence counter, giving each instance
	// encoded in one call its own label.
	LabelIndexed
)

// LabelPolicy describes the relocation label a pointer emits when encoded.
// Address resolution is deferred to an external linking step.
type LabelPolicy struct {
	Kind   LabelKind
	Name   string
	Align  uint32
	Global bool
}

// FixedLabel emits the same label for every instance.
func FixedLabel(name string, align uint32, global bool) LabelPolicy {
	return LabelPolicy{Kind: LabelFixed, Name: name, Align: align, Global: global}
}

// IndexedLabel emits prefix_0, prefix_1, ... per encoded instance.
func IndexedLabel(prefix string, align uint32, global bool) LabelPolicy {
	return LabelPolicy{Kind: LabelIndexed, Name: prefix, Align: align, Global: global}
}

// Constructors for the compound kinds.

// Scalar declares an integer of the given byte width and signedness.
// Multi-byte scalars are little-endian.
func Scalar(width uint32, signed bool) *Type {
	return &Type{Kind: KindScalar, Width: width, Signed: signed}
}

// Struct declares an ordered aggregate of named fields with no implicit
// padding between them.
func Struct(fields ...Field) *Type {
	return &Type{Kind: KindStruct, Fields: fields}
}

// Bitfield declares sub-integer-width named fields packed into a backing
// scalar, first declared subfield in the low-order bits.
func Bitfield(backing string, subfields ...Subfield) *Type {
	return &Type{Kind: KindBitfield, Backing: backing, Subfields: subfields}
}

// Union declares alternatives of which exactly one is active, chosen by the
// discriminant.
func Union(disc Discriminant, cases ...Case) *Type {
	return &Type{Kind: KindUnion, Discriminant: disc, Cases: cases}
}

// Array declares a sequence of elements with a fixed or field-derived count.
func Array(elem string, length Length) *Type {
	return &Type{Kind: KindArray, Elem: elem, Length: length}
}

// Pointer declares a 32-bit bus address referencing a value of the target
// type. An empty target makes the pointer opaque.
func Pointer(target string, label LabelPolicy) *Type {
	return &Type{Kind: KindPointer, Target: target, Label: label}
}
