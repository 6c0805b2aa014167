package codec

import (
	"encoding/binary"
	"strconv"

	"go.uber.org/zap"

	agbrom "github.com/agbkit/agbrom"
	"github.com/agbkit/agbrom/errors"
	"github.com/agbkit/agbrom/schema"
)

// Decoder reads value trees out of a ROM according to a schema registry.
// A Decoder is safe for concurrent use: every Decode call owns its own
// context stack and pointer-target cache.
type Decoder struct {
	reg       *schema.Registry
	translate agbrom.AddressTranslator
	deep      bool
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithDeepPointers makes the decoder follow non-opaque pointers: addresses
// are translated to buffer offsets and the targets decoded recursively.
// Targets reached from several pointers are decoded once and shared.
func WithDeepPointers(translate agbrom.AddressTranslator) DecoderOption {
	return func(d *Decoder) {
		d.deep = true
		d.translate = translate
	}
}

// NewDecoder returns a Decoder over the given registry.
func NewDecoder(reg *schema.Registry, opts ...DecoderOption) *Decoder {
	d := &Decoder{reg: reg}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode reads a value of the named type at offset. On error no partial
// value escapes; the first fault aborts the whole call.
func (d *Decoder) Decode(typeName string, rom agbrom.ROM, offset uint32) (any, error) {
	return d.DecodeInContext(typeName, rom, offset, NewContext())
}

// DecodeInContext decodes with caller-supplied ancestor frames, for types
// whose lengths or discriminants reference fields that live outside the
// region being decoded.
func (d *Decoder) DecodeInContext(typeName string, rom agbrom.ROM, offset uint32, ctx *Context) (any, error) {
	st := &decodeState{
		dec:     d,
		rom:     rom,
		ctx:     ctx,
		targets: make(map[uint32]any),
	}
	v, _, err := st.decodeNamed(typeName, offset, nil)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// DecodedSize returns the number of bytes a value of the named type occupies
// at offset, walking the same dynamic lengths a decode would.
func (d *Decoder) DecodedSize(typeName string, rom agbrom.ROM, offset uint32, ctx *Context) (uint32, error) {
	if ctx == nil {
		ctx = NewContext()
	}
	st := &decodeState{
		dec:     d,
		rom:     rom,
		ctx:     ctx,
		targets: make(map[uint32]any),
	}
	_, n, err := st.decodeNamed(typeName, offset, nil)
	return n, err
}

// decodeState is the per-invocation decode state. The pointer-target cache
// is scoped here, never shared across unrelated decodes.
type decodeState struct {
	dec     *Decoder
	rom     agbrom.ROM
	ctx     *Context
	targets map[uint32]any
}

func (s *decodeState) decodeNamed(name string, offset uint32, path []string) (any, uint32, error) {
	t, err := s.dec.reg.Resolve(name)
	if err != nil {
		return nil, 0, errors.New(errors.PhaseDecode, errors.KindUnknownType).
			Path(path...).
			Type(name).
			Cause(err).
			Detail("type not defined in registry").
			Build()
	}
	return s.decodeType(t, name, offset, path)
}

func (s *decodeState) decodeType(t *schema.Type, name string, offset uint32, path []string) (any, uint32, error) {
	switch t.Kind {
	case schema.KindScalar:
		v, err := s.readScalar(t, offset, path)
		if err != nil {
			return nil, 0, err
		}
		return v, t.Width, nil

	case schema.KindStruct:
		return s.decodeStruct(t, offset, path)

	case schema.KindBitfield:
		return s.decodeBitfield(t, name, offset, path)

	case schema.KindUnion:
		return s.decodeUnion(t, name, offset, path)

	case schema.KindArray:
		return s.decodeArray(t, offset, path)

	case schema.KindPointer:
		return s.decodePointer(t, offset, path)

	default:
		return nil, 0, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Path(path...).
			Type(name).
			Detail("unknown type kind %d", t.Kind).
			Build()
	}
}

// readScalar reads a little-endian integer of the declared width and
// signedness. A short buffer fails without consuming anything.
func (s *decodeState) readScalar(t *schema.Type, offset uint32, path []string) (int64, error) {
	data, err := s.rom.Read(offset, t.Width)
	if err != nil {
		return 0, errors.OutOfBounds(errors.PhaseDecode, path, offset, t.Width, err)
	}

	var raw uint32
	switch t.Width {
	case 1:
		raw = uint32(data[0])
	case 2:
		raw = uint32(binary.LittleEndian.Uint16(data))
	case 4:
		raw = binary.LittleEndian.Uint32(data)
	default:
		return 0, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Path(path...).
			Detail("scalar width %d is not 1, 2 or 4", t.Width).
			Build()
	}

	if t.Signed {
		shift := 64 - t.Width*8
		return int64(uint64(raw)<<shift) >> shift, nil
	}
	return int64(raw), nil
}

// decodeStruct reads fields strictly in declared order. The in-progress
// value is pushed onto the context first so later fields and nested types
// can resolve earlier siblings.
func (s *decodeState) decodeStruct(t *schema.Type, offset uint32, path []string) (any, uint32, error) {
	result := NewStruct()
	s.ctx.Push(result)
	defer s.ctx.Pop()

	var consumed uint32
	for _, field := range t.Fields {
		fieldPath := append(append([]string{}, path...), field.Name)
		v, n, err := s.decodeNamed(field.Type, offset+consumed, fieldPath)
		if err != nil {
			return nil, 0, err
		}
		result.Set(field.Name, v)
		consumed += n
	}
	return result, consumed, nil
}

func (s *decodeState) decodeBitfield(t *schema.Type, name string, offset uint32, path []string) (any, uint32, error) {
	backing, err := s.dec.reg.Resolve(t.Backing)
	if err != nil {
		return nil, 0, errors.New(errors.PhaseDecode, errors.KindUnknownType).
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
		return nil, 0, errors.BitfieldOverflow(errors.PhaseDecode, name, total, backing.Width*8)
	}

	unsigned := *backing
	unsigned.Signed = false
	raw, err := s.readScalar(&unsigned, offset, path)
	if err != nil {
		return nil, 0, err
	}

	result := NewStruct()
	shift := uint32(0)
	for _, sub := range t.Subfields {
		mask := int64(1)<<sub.Bits - 1
		result.Set(sub.Name, (raw>>shift)&mask)
		shift += sub.Bits
	}
	return result, backing.Width, nil
}

func (s *decodeState) decodeUnion(t *schema.Type, name string, offset uint32, path []string) (any, uint32, error) {
	caseName, err := s.evalDiscriminant(t, path)
	if err != nil {
		return nil, 0, err
	}

	c := t.Case(caseName)
	if c == nil {
		return nil, 0, errors.UnknownVariant(errors.PhaseDecode, path, caseName)
	}

	casePath := append(append([]string{}, path...), caseName)
	v, n, err := s.decodeNamed(c.Type, offset, casePath)
	if err != nil {
		return nil, 0, err
	}
	return &Union{Case: caseName, Value: v}, n, nil
}

// evalDiscriminant picks a union case from already-decoded context data.
func (s *decodeState) evalDiscriminant(t *schema.Type, path []string) (string, error) {
	return evalDiscriminant(&t.Discriminant, s.ctx, path)
}

func evalDiscriminant(d *schema.Discriminant, ctx *Context, path []string) (string, error) {
	switch d.Kind {
	case schema.DiscriminantConstant:
		return d.Case, nil

	case schema.DiscriminantThreshold:
		v, err := ctx.ResolveField(d.Path)
		if err != nil {
			return "", err
		}
		n, ok := coerceToInt64(v)
		if !ok {
			return "", errors.New(errors.PhaseResolve, errors.KindInvalidData).
				Path(path...).
				Value(v).
				Detail("discriminant field is not an integer").
				Build()
		}
		if n < d.Threshold {
			return d.Below, nil
		}
		return d.AtOrAbove, nil

	default:
		return "", errors.New(errors.PhaseResolve, errors.KindInvalidData).
			Path(path...).
			Detail("unknown discriminant kind %d", d.Kind).
			Build()
	}
}

func (s *decodeState) decodeArray(t *schema.Type, offset uint32, path []string) (any, uint32, error) {
	length, err := resolveLength(&t.Length, s.ctx, errors.PhaseDecode, path)
	if err != nil {
		return nil, 0, err
	}

	// The count is untrusted data; cap the allocation at the bytes left so a
	// hostile count cannot force a huge preallocation. Oversized counts still
	// fail when an element read runs past the end.
	capHint := length
	if remaining := int64(s.rom.Size()) - int64(offset); remaining < capHint {
		capHint = remaining
	}
	if capHint < 0 {
		capHint = 0
	}

	result := make([]any, 0, capHint)
	var consumed uint32
	for i := int64(0); i < length; i++ {
		elemPath := append(append([]string{}, path...), "["+strconv.FormatInt(i, 10)+"]")
		v, n, err := s.decodeNamed(t.Elem, offset+consumed, elemPath)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, v)
		consumed += n
	}
	return result, consumed, nil
}

// resolveLength evaluates an array length strategy. Zero is an empty array,
// never a fault; negative lengths fail.
func resolveLength(l *schema.Length, ctx *Context, phase errors.Phase, path []string) (int64, error) {
	var length int64
	switch l.Kind {
	case schema.LengthFixed:
		length = int64(l.Fixed)
	case schema.LengthFieldPath:
		v, err := ctx.ResolveField(l.Path)
		if err != nil {
			return 0, err
		}
		n, ok := coerceToInt64(v)
		if !ok {
			return 0, errors.New(errors.PhaseResolve, errors.KindInvalidData).
				Path(path...).
				Value(v).
				Detail("length field is not an integer").
				Build()
		}
		length = n
	default:
		return 0, errors.New(errors.PhaseResolve, errors.KindInvalidData).
			Path(path...).
			Detail("unknown length kind %d", l.Kind).
			Build()
	}

	if length < 0 {
		return 0, errors.NegativeLength(phase, path, length)
	}
	return length, nil
}

func (s *decodeState) decodePointer(t *schema.Type, offset uint32, path []string) (any, uint32, error) {
	data, err := s.rom.Read(offset, schema.PointerWidth)
	if err != nil {
		return nil, 0, errors.OutOfBounds(errors.PhaseDecode, path, offset, schema.PointerWidth, err)
	}
	address := binary.LittleEndian.Uint32(data)

	result := &Pointer{Address: address}
	if !s.dec.deep || t.Target == "" || address == 0 {
		return result, schema.PointerWidth, nil
	}

	targetOffset, err := s.dec.translate(address)
	if err != nil {
		return nil, 0, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Path(path...).
			Cause(err).
			Detail("pointer address 0x%08X does not translate", address).
			Build()
	}

	// Shared targets decode once per invocation; equal translated offsets
	// yield the identical object.
	if cached, ok := s.targets[targetOffset]; ok {
		result.Target = cached
		return result, schema.PointerWidth, nil
	}

	Logger().Debug("resolving pointer target",
		zap.String("type", t.Target),
		zap.Uint32("address", address),
		zap.Uint32("offset", targetOffset))

	targetPath := append(append([]string{}, path...), "*")
	target, _, err := s.decodeNamed(t.Target, targetOffset, targetPath)
	if err != nil {
		return nil, 0, err
	}
	s.targets[targetOffset] = target
	result.Target = target
	return result, schema.PointerWidth, nil
}
