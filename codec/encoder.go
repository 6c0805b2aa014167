package codec

import (
	"encoding/binary"
	"strconv"

	"go.uber.org/zap"

	"github.com/agbkit/agbrom/errors"
	"github.com/agbkit/agbrom/schema"
)

// Relocation marks a pointer word in encoded output for an external linking
// step: the label stands in for the final address.
type Relocation struct {
	Label  string
	Offset uint32
	Align  uint32
	Global bool
}

// Encoder serializes value trees according to a schema registry. An Encoder
// is safe for concurrent use; every Encode call owns its own output buffer
// and label state.
type Encoder struct {
	reg *schema.Registry
}

// NewEncoder returns an Encoder over the given registry.
func NewEncoder(reg *schema.Registry) *Encoder {
	return &Encoder{reg: reg}
}

// Encode serializes a value of the named type. It returns the contiguous
// bytes and the relocation entries for every pointer encountered, in output
// order. On error nothing is returned; the first fault aborts the call.
func (e *Encoder) Encode(typeName string, value any) ([]byte, []Relocation, error) {
	return e.EncodeInContext(typeName, value, NewContext())
}

// EncodeInContext encodes with caller-supplied ancestor frames, mirroring
// DecodeInContext: discriminants and lengths resolve against the same
// context convention used at decode time.
func (e *Encoder) EncodeInContext(typeName string, value any, ctx *Context) ([]byte, []Relocation, error) {
	st := &encodeState{
		enc:    e,
		ctx:    ctx,
		counts: make(map[string]int),
	}
	if err := st.encodeNamed(typeName, value, nil); err != nil {
		return nil, nil, err
	}
	Logger().Debug("encoded value",
		zap.String("type", typeName),
		zap.Int("bytes", len(st.buf)),
		zap.Int("relocations", len(st.relocs)))
	return st.buf, st.relocs, nil
}

type encodeState struct {
	enc    *Encoder
	buf    []byte
	relocs []Relocation
	ctx    *Context
	counts map[string]int // occurrences per indexed label prefix
}

func (s *encodeState) encodeNamed(name string, value any, path []string) error {
	t, err := s.enc.reg.Resolve(name)
	if err != nil {
		return errors.New(errors.PhaseEncode, errors.KindUnknownType).
			Path(path...).
			Type(name).
			Cause(err).
			Detail("type not defined in registry").
			Build()
	}
	return s.encodeType(t, name, value, path)
}

func (s *encodeState) encodeType(t *schema.Type, name string, value any, path []string) error {
	switch t.Kind {
	case schema.KindScalar:
		return s.encodeScalar(t, name, value, path)
	case schema.KindStruct:
		return s.encodeStruct(t, value, path)
	case schema.KindBitfield:
		return s.encodeBitfield(t, name, value, path)
	case schema.KindUnion:
		return s.encodeUnion(t, value, path)
	case schema.KindArray:
		return s.encodeArray(t, value, path)
	case schema.KindPointer:
		return s.encodePointer(t, value, path)
	default:
		return errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Path(path...).
			Type(name).
			Detail("unknown type kind %d", t.Kind).
			Build()
	}
}

func (s *encodeState) encodeScalar(t *schema.Type, name string, value any, path []string) error {
	v, ok := coerceToInt64(value)
	if !ok {
		return errors.SchemaMismatch(path, "expected integer for %s, got %T", name, value)
	}
	if !scalarFits(v, t.Width, t.Signed) {
		return errors.Overflow(path, v, name)
	}
	s.appendScalar(uint32(uint64(v)), t.Width)
	return nil
}

func (s *encodeState) appendScalar(raw uint32, width uint32) {
	switch width {
	case 1:
		s.buf = append(s.buf, byte(raw))
	case 2:
		s.buf = binary.LittleEndian.AppendUint16(s.buf, uint16(raw))
	case 4:
		s.buf = binary.LittleEndian.AppendUint32(s.buf, raw)
	}
}

// encodeStruct validates the value's shape against the declared fields
// before emitting anything, then concatenates field encodings in order. The
// context frame is built up one field at a time, exactly as decode builds
// its in-progress struct, so a discriminant or length path resolves to a
// field only if the matching decode would see it too.
func (s *encodeState) encodeStruct(t *schema.Type, value any, path []string) error {
	sv, ok := value.(*Struct)
	if !ok {
		return errors.SchemaMismatch(path, "expected struct value, got %T", value)
	}

	for _, name := range sv.Names() {
		if t.Field(name) == nil {
			return errors.SchemaMismatch(path, "field %q is not declared on the struct type", name)
		}
	}
	for _, field := range t.Fields {
		if _, ok := sv.Get(field.Name); !ok {
			return errors.SchemaMismatch(path, "declared field %q missing from value", field.Name)
		}
	}

	frame := NewStruct()
	s.ctx.Push(frame)
	defer s.ctx.Pop()

	for _, field := range t.Fields {
		fieldPath := append(append([]string{}, path...), field.Name)
		v, _ := sv.Get(field.Name)
		if err := s.encodeNamed(field.Type, v, fieldPath); err != nil {
			return err
		}
		frame.Set(field.Name, v)
	}
	return nil
}

func (s *encodeState) encodeBitfield(t *schema.Type, name string, value any, path []string) error {
	backing, err := s.enc.reg.Resolve(t.Backing)
	if err != nil {
		return errors.New(errors.PhaseEncode, errors.KindUnknownType).
			Path(path...).
			Type(name).
			Cause(err).
			Detail("bitfield backing %q not defined", t.Backing).
			Build()
	}

	var total uint32
	for _, sub := range t.Subfields {
		total += sub.Bits
	}
	if total > backing.Width*8 {
		return errors.BitfieldOverflow(errors.PhaseEncode, name, total, backing.Width*8)
	}

	sv, ok := value.(*Struct)
	if !ok {
		return errors.SchemaMismatch(path, "expected bitfield struct value, got %T", value)
	}

	var raw uint64
	shift := uint32(0)
	for _, sub := range t.Subfields {
		fv, ok := sv.Get(sub.Name)
		if !ok {
			return errors.SchemaMismatch(path, "declared subfield %q missing from value", sub.Name)
		}
		n, ok := coerceToInt64(fv)
		if !ok {
			return errors.SchemaMismatch(path, "subfield %q is not an integer", sub.Name)
		}
		if n < 0 || n >= int64(1)<<sub.Bits {
			subPath := append(append([]string{}, path...), sub.Name)
			return errors.Overflow(subPath, n, name)
		}
		raw |= uint64(n) << shift
		shift += sub.Bits
	}
	for _, fname := range sv.Names() {
		declared := false
		for _, sub := range t.Subfields {
			if sub.Name == fname {
				declared = true
				break
			}
		}
		if !declared {
			return errors.SchemaMismatch(path, "subfield %q is not declared on the bitfield type", fname)
		}
	}

	s.appendScalar(uint32(raw), backing.Width)
	return nil
}

// encodeUnion re-evaluates the discriminant against the current context and
// refuses values whose tag disagrees, since the encoded bytes must decode
// back through the same discriminant logic.
func (s *encodeState) encodeUnion(t *schema.Type, value any, path []string) error {
	uv, ok := value.(*Union)
	if !ok {
		return errors.SchemaMismatch(path, "expected union value, got %T", value)
	}

	c := t.Case(uv.Case)
	if c == nil {
		return errors.UnknownVariant(errors.PhaseEncode, path, uv.Case)
	}

	computed, err := evalDiscriminant(&t.Discriminant, s.ctx, path)
	if err != nil {
		return err
	}
	if computed != uv.Case {
		return errors.VariantMismatch(path, uv.Case, computed)
	}

	casePath := append(append([]string{}, path...), uv.Case)
	return s.encodeNamed(c.Type, uv.Value, casePath)
}

func (s *encodeState) encodeArray(t *schema.Type, value any, path []string) error {
	elems, ok := value.([]any)
	if !ok {
		return errors.SchemaMismatch(path, "expected array value, got %T", value)
	}

	length, err := resolveLength(&t.Length, s.ctx, errors.PhaseEncode, path)
	if err != nil {
		return err
	}
	if length != int64(len(elems)) {
		return errors.SchemaMismatch(path, "resolved length %d does not match %d elements", length, len(elems))
	}

	for i, elem := range elems {
		elemPath := append(append([]string{}, path...), "["+strconv.Itoa(i)+"]")
		if err := s.encodeNamed(t.Elem, elem, elemPath); err != nil {
			return err
		}
	}
	return nil
}

// encodePointer writes the pointer's current address as a placeholder word
// and records a relocation; the external linker patches the word when the
// label is assigned a final address.
func (s *encodeState) encodePointer(t *schema.Type, value any, path []string) error {
	pv, ok := value.(*Pointer)
	if !ok {
		return errors.SchemaMismatch(path, "expected pointer value, got %T", value)
	}

	s.relocs = append(s.relocs, Relocation{
		Label:  s.label(&t.Label),
		Offset: uint32(len(s.buf)),
		Align:  t.Label.Align,
		Global: t.Label.Global,
	})
	s.appendScalar(pv.Address, schema.PointerWidth)
	return nil
}

// label assigns the relocation label per policy. Fixed labels repeat for
// every instance of the type; indexed labels count occurrences within one
// Encode call, so repeated encodes of the same value are stable.
func (s *encodeState) label(policy *schema.LabelPolicy) string {
	switch policy.Kind {
	case schema.LabelIndexed:
		n := s.counts[policy.Name]
		s.counts[policy.Name] = n + 1
		return policy.Name + "_" + strconv.Itoa(n)
	default:
		return policy.Name
	}
}
