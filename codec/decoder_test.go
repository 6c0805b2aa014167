package codec

import (
	stderrors "errors"
	"testing"

	agbrom "github.com/agbkit/agbrom"
	"github.com/agbkit/agbrom/errors"
	"github.com/agbkit/agbrom/schema"
)

// identityTranslator maps bus addresses straight to buffer offsets.
func identityTranslator(address uint32) (uint32, error) {
	return address, nil
}

func mustDefine(t *testing.T, reg *schema.Registry, name string, typ *schema.Type) {
	t.Helper()
	if err := reg.Define(name, typ); err != nil {
		t.Fatalf("Define(%s) failed: %v", name, err)
	}
}

func TestDecoder_ScalarEndianAndSign(t *testing.T) {
	reg := schema.NewRegistry()
	dec := NewDecoder(reg)

	tests := []struct {
		name     string
		typeName string
		data     []byte
		want     int64
	}{
		{"u8", "u8", []byte{0xFF}, 255},
		{"s8 negative", "s8", []byte{0x80}, -128},
		{"u16 little-endian", "u16", []byte{0x01, 0x02}, 0x0201},
		{"s16 negative", "s16", []byte{0xFF, 0xFF}, -1},
		{"u32 little-endian", "u32", []byte{0x01, 0x02, 0x03, 0x04}, 0x04030201},
		{"s32 negative", "s32", []byte{0xFE, 0xFF, 0xFF, 0xFF}, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := dec.Decode(tt.typeName, agbrom.NewBuffer(tt.data), 0)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if v != tt.want {
				t.Errorf("Decode = %v, want %v", v, tt.want)
			}
		})
	}
}

func TestDecoder_ScalarOutOfBounds(t *testing.T) {
	reg := schema.NewRegistry()
	dec := NewDecoder(reg)

	_, err := dec.Decode("u32", agbrom.NewBuffer([]byte{0x01, 0x02, 0x03}), 0)
	if err == nil {
		t.Fatal("decoding u32 from 3 bytes succeeded")
	}
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindOutOfBounds}) {
		t.Errorf("error = %v, want decode/out_of_bounds", err)
	}
}

func TestDecoder_UnknownType(t *testing.T) {
	reg := schema.NewRegistry()
	dec := NewDecoder(reg)

	_, err := dec.Decode("event.missing", agbrom.NewBuffer([]byte{0}), 0)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindUnknownType}) {
		t.Errorf("error = %v, want decode/unknown_type", err)
	}
}

func TestDecoder_StructWithCountedArray(t *testing.T) {
	reg := schema.NewRegistry()
	mustDefine(t, reg, "items", schema.Array("u8", schema.FieldPathLength("cnt")))
	mustDefine(t, reg, "header", schema.Struct(
		schema.Field{Name: "x", Type: "s16"},
		schema.Field{Name: "cnt", Type: "u8"},
		schema.Field{Name: "items", Type: "items"},
	))
	dec := NewDecoder(reg)

	v, err := dec.Decode("header", agbrom.NewBuffer([]byte{0x05, 0x00, 0x02, 0xAA, 0xBB}), 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	s := v.(*Struct)
	if x, _ := s.Get("x"); x != int64(5) {
		t.Errorf("x = %v, want 5", x)
	}
	if cnt, _ := s.Get("cnt"); cnt != int64(2) {
		t.Errorf("cnt = %v, want 2", cnt)
	}
	items, _ := s.Get("items")
	arr := items.([]any)
	if len(arr) != 2 || arr[0] != int64(0xAA) || arr[1] != int64(0xBB) {
		t.Errorf("items = %v, want [0xAA 0xBB]", arr)
	}
}

func TestDecoder_CountedArrayEmpty(t *testing.T) {
	reg := schema.NewRegistry()
	mustDefine(t, reg, "items", schema.Array("u8", schema.FieldPathLength("cnt")))
	mustDefine(t, reg, "header", schema.Struct(
		schema.Field{Name: "cnt", Type: "u8"},
		schema.Field{Name: "items", Type: "items"},
	))
	dec := NewDecoder(reg)

	v, err := dec.Decode("header", agbrom.NewBuffer([]byte{0x00}), 0)
	if err != nil {
		t.Fatalf("count of zero must decode, got %v", err)
	}
	items, _ := v.(*Struct).Get("items")
	if len(items.([]any)) != 0 {
		t.Errorf("items = %v, want empty", items)
	}
}

func TestDecoder_NegativeArrayLength(t *testing.T) {
	reg := schema.NewRegistry()
	mustDefine(t, reg, "items", schema.Array("u8", schema.FieldPathLength("cnt")))
	mustDefine(t, reg, "header", schema.Struct(
		schema.Field{Name: "cnt", Type: "s8"},
		schema.Field{Name: "items", Type: "items"},
	))
	dec := NewDecoder(reg)

	_, err := dec.Decode("header", agbrom.NewBuffer([]byte{0xFF}), 0)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindNegativeLength}) {
		t.Errorf("error = %v, want decode/negative_length", err)
	}
}

func TestDecoder_HostileArrayCount(t *testing.T) {
	reg := schema.NewRegistry()
	mustDefine(t, reg, "items", schema.Array("u8", schema.FieldPathLength("cnt")))
	mustDefine(t, reg, "header", schema.Struct(
		schema.Field{Name: "cnt", Type: "u32"},
		schema.Field{Name: "items", Type: "items"},
	))
	dec := NewDecoder(reg)

	// A count of 0xFFFFFFFF over a 5-byte buffer must surface out_of_bounds,
	// not exhaust memory up front.
	_, err := dec.Decode("header", agbrom.NewBuffer([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x00}), 0)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindOutOfBounds}) {
		t.Errorf("error = %v, want decode/out_of_bounds", err)
	}
}

func TestDecoder_Bitfield(t *testing.T) {
	reg := schema.NewRegistry()
	mustDefine(t, reg, "bits", schema.Bitfield("u8",
		schema.Subfield{Name: "a", Bits: 3},
		schema.Subfield{Name: "b", Bits: 5},
	))
	dec := NewDecoder(reg)

	// a in the low 3 bits, b in the next 5: 5 | 20<<3 = 0b10100101
	v, err := dec.Decode("bits", agbrom.NewBuffer([]byte{0xA5}), 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	s := v.(*Struct)
	if a, _ := s.Get("a"); a != int64(5) {
		t.Errorf("a = %v, want 5", a)
	}
	if b, _ := s.Get("b"); b != int64(20) {
		t.Errorf("b = %v, want 20", b)
	}
}

func TestDecoder_BitfieldOverflow(t *testing.T) {
	reg := schema.NewRegistry()
	mustDefine(t, reg, "bits", schema.Bitfield("u8",
		schema.Subfield{Name: "a", Bits: 4},
		schema.Subfield{Name: "b", Bits: 5},
	))
	dec := NewDecoder(reg)

	_, err := dec.Decode("bits", agbrom.NewBuffer([]byte{0x00}), 0)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindBitfieldOverflow}) {
		t.Errorf("error = %v, want decode/bitfield_overflow", err)
	}
}

func TestDecoder_UnionThreshold(t *testing.T) {
	reg := schema.NewRegistry()
	mustDefine(t, reg, "payload", schema.Union(
		schema.ThresholdCase([]string{"type"}, 5, "script", "item"),
		schema.Case{Name: "script", Type: "u16"},
		schema.Case{Name: "item", Type: "u32"},
	))
	mustDefine(t, reg, "signpost", schema.Struct(
		schema.Field{Name: "type", Type: "u8"},
		schema.Field{Name: "value", Type: "payload"},
	))
	dec := NewDecoder(reg)

	tests := []struct {
		name     string
		typ      byte
		wantCase string
	}{
		{"type 0 selects script", 0, "script"},
		{"type 4 selects script", 4, "script"},
		{"type 5 selects item", 5, "item"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := dec.Decode("signpost", agbrom.NewBuffer([]byte{tt.typ, 0x01, 0x02, 0x03, 0x04}), 0)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			value, _ := v.(*Struct).Get("value")
			u := value.(*Union)
			if u.Case != tt.wantCase {
				t.Errorf("case = %q, want %q", u.Case, tt.wantCase)
			}
			switch tt.wantCase {
			case "script":
				if u.Value != int64(0x0201) {
					t.Errorf("script value = %v, want 0x0201", u.Value)
				}
			case "item":
				if u.Value != int64(0x04030201) {
					t.Errorf("item value = %v, want 0x04030201", u.Value)
				}
			}
		})
	}
}

func TestDecoder_UnionUnknownVariant(t *testing.T) {
	reg := schema.NewRegistry()
	mustDefine(t, reg, "payload", schema.Union(
		schema.ConstantCase("missing"),
		schema.Case{Name: "present", Type: "u8"},
	))
	dec := NewDecoder(reg)

	_, err := dec.Decode("payload", agbrom.NewBuffer([]byte{0x00}), 0)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindUnknownVariant}) {
		t.Errorf("error = %v, want decode/unknown_variant", err)
	}
}

func TestDecoder_PointerShallow(t *testing.T) {
	reg := schema.NewRegistry()
	mustDefine(t, reg, "ptr", schema.Pointer("u16", schema.FixedLabel("data", 2, false)))
	dec := NewDecoder(reg)

	v, err := dec.Decode("ptr", agbrom.NewBuffer([]byte{0x10, 0x00, 0x00, 0x08}), 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	p := v.(*Pointer)
	if p.Address != 0x08000010 {
		t.Errorf("address = 0x%08X, want 0x08000010", p.Address)
	}
	if p.Target != nil {
		t.Error("shallow decode resolved a target")
	}
}

func TestDecoder_PointerDeep(t *testing.T) {
	reg := schema.NewRegistry()
	mustDefine(t, reg, "ptr", schema.Pointer("u16", schema.FixedLabel("data", 2, false)))
	dec := NewDecoder(reg, WithDeepPointers(identityTranslator))

	// Pointer at 0 referencing offset 4, where 0xBEEF lives.
	v, err := dec.Decode("ptr", agbrom.NewBuffer([]byte{0x04, 0x00, 0x00, 0x00, 0xEF, 0xBE}), 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	p := v.(*Pointer)
	if p.Target != int64(0xBEEF) {
		t.Errorf("target = %v, want 0xBEEF", p.Target)
	}
}

func TestDecoder_PointerNullStaysShallow(t *testing.T) {
	reg := schema.NewRegistry()
	mustDefine(t, reg, "ptr", schema.Pointer("u16", schema.FixedLabel("data", 2, false)))
	dec := NewDecoder(reg, WithDeepPointers(identityTranslator))

	v, err := dec.Decode("ptr", agbrom.NewBuffer([]byte{0x00, 0x00, 0x00, 0x00}), 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if v.(*Pointer).Target != nil {
		t.Error("null pointer resolved a target")
	}
}

func TestDecoder_OpaquePointerNeverResolves(t *testing.T) {
	reg := schema.NewRegistry()
	mustDefine(t, reg, "script", schema.Pointer("", schema.IndexedLabel("script", 4, false)))
	dec := NewDecoder(reg, WithDeepPointers(identityTranslator))

	v, err := dec.Decode("script", agbrom.NewBuffer([]byte{0x04, 0x00, 0x00, 0x00}), 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if v.(*Pointer).Target != nil {
		t.Error("opaque pointer resolved a target")
	}
}

func TestDecoder_PointerSharing(t *testing.T) {
	reg := schema.NewRegistry()
	mustDefine(t, reg, "target", schema.Struct(
		schema.Field{Name: "v", Type: "u8"},
	))
	mustDefine(t, reg, "ptr", schema.Pointer("target", schema.FixedLabel("data", 2, false)))
	mustDefine(t, reg, "pair", schema.Struct(
		schema.Field{Name: "first", Type: "ptr"},
		schema.Field{Name: "second", Type: "ptr"},
	))
	dec := NewDecoder(reg, WithDeepPointers(identityTranslator))

	// Both pointers reference offset 8.
	data := []byte{0x08, 0x00, 0x00, 0x00, 0x08, 0x00, 0x00, 0x00, 0x2A}
	v, err := dec.Decode("pair", agbrom.NewBuffer(data), 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	s := v.(*Struct)
	first, _ := s.Get("first")
	second, _ := s.Get("second")
	t1 := first.(*Pointer).Target.(*Struct)
	t2 := second.(*Pointer).Target.(*Struct)
	if t1 != t2 {
		t.Error("pointers to the same offset decoded to distinct objects")
	}
}

func TestDecoder_RecursiveSchema(t *testing.T) {
	// A node pointing at another node: schema cycles must decode as long as
	// the instance data terminates (here via a null pointer).
	reg := schema.NewRegistry()
	mustDefine(t, reg, "node_ptr", schema.Pointer("node", schema.IndexedLabel("node", 4, false)))
	mustDefine(t, reg, "node", schema.Struct(
		schema.Field{Name: "v", Type: "u8"},
		schema.Field{Name: "next", Type: "node_ptr"},
	))
	dec := NewDecoder(reg, WithDeepPointers(identityTranslator))

	// node{v:1, next -> 5}, node{v:2, next -> null}
	data := []byte{
		0x01, 0x05, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00, 0x00,
	}
	v, err := dec.Decode("node", agbrom.NewBuffer(data), 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	next, _ := v.(*Struct).Get("next")
	second := next.(*Pointer).Target.(*Struct)
	if sv, _ := second.Get("v"); sv != int64(2) {
		t.Errorf("second node v = %v, want 2", sv)
	}
}

func TestDecoder_DecodeInContext(t *testing.T) {
	reg := schema.NewRegistry()
	mustDefine(t, reg, "items", schema.Array("u8", schema.FieldPathLength("cnt")))
	dec := NewDecoder(reg)

	ctx := NewContext()
	ctx.Push(NewStruct().Set("cnt", int64(3)))

	v, err := dec.DecodeInContext("items", agbrom.NewBuffer([]byte{0x01, 0x02, 0x03}), 0, ctx)
	if err != nil {
		t.Fatalf("DecodeInContext failed: %v", err)
	}
	if len(v.([]any)) != 3 {
		t.Errorf("decoded %d elements, want 3", len(v.([]any)))
	}
}

func TestDecoder_DecodedSize(t *testing.T) {
	reg := schema.NewRegistry()
	mustDefine(t, reg, "items", schema.Array("u8", schema.FieldPathLength("cnt")))
	mustDefine(t, reg, "header", schema.Struct(
		schema.Field{Name: "cnt", Type: "u8"},
		schema.Field{Name: "items", Type: "items"},
	))
	dec := NewDecoder(reg)

	n, err := dec.DecodedSize("header", agbrom.NewBuffer([]byte{0x02, 0xAA, 0xBB}), 0, nil)
	if err != nil {
		t.Fatalf("DecodedSize failed: %v", err)
	}
	if n != 3 {
		t.Errorf("size = %d, want 3", n)
	}
}
