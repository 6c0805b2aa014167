package schema

import (
	stderrors "errors"
	"testing"

	"github.com/agbkit/agbrom/errors"
)

func TestRegistry_Primitives(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name   string
		width  uint32
		signed bool
	}{
		{"u8", 1, false},
		{"s8", 1, true},
		{"u16", 2, false},
		{"s16", 2, true},
		{"u32", 4, false},
		{"s32", 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, err := reg.Resolve(tt.name)
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if typ.Kind != KindScalar || typ.Width != tt.width || typ.Signed != tt.signed {
				t.Errorf("got kind=%s width=%d signed=%v", typ.Kind, typ.Width, typ.Signed)
			}
		})
	}
}

func TestRegistry_DuplicateName(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Define("point", Struct(Field{Name: "x", Type: "u8"})); err != nil {
		t.Fatalf("first Define failed: %v", err)
	}

	err := reg.Define("point", Struct(Field{Name: "y", Type: "u8"}))
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDefine, Kind: errors.KindDuplicateName}) {
		t.Errorf("error = %v, want define/duplicate_name", err)
	}

	// Primitives cannot be shadowed either.
	err = reg.Define("u8", Scalar(1, false))
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDefine, Kind: errors.KindDuplicateName}) {
		t.Errorf("error = %v, want define/duplicate_name", err)
	}
}

func TestRegistry_UnknownType(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Resolve("event.person")
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseResolve, Kind: errors.KindUnknownType}) {
		t.Errorf("error = %v, want resolve/unknown_type", err)
	}
}

func TestRegistry_ForwardReference(t *testing.T) {
	reg := NewRegistry()

	// holder references target before target exists.
	if err := reg.Define("holder", Struct(Field{Name: "t", Type: "target"})); err != nil {
		t.Fatalf("Define holder failed: %v", err)
	}
	if err := reg.Define("target", Struct(Field{Name: "v", Type: "u8"})); err != nil {
		t.Fatalf("Define target failed: %v", err)
	}
	if err := reg.Validate(); err != nil {
		t.Errorf("Validate failed on forward reference: %v", err)
	}
}

func TestRegistry_ValidateDanglingName(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Define("holder", Struct(Field{Name: "t", Type: "missing"})); err != nil {
		t.Fatalf("Define failed: %v", err)
	}

	err := reg.Validate()
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDefine, Kind: errors.KindUnknownType}) {
		t.Errorf("error = %v, want define/unknown_type", err)
	}
}

func TestRegistry_ValidateBitfieldOverflow(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Define("bits", Bitfield("u8",
		Subfield{Name: "a", Bits: 6},
		Subfield{Name: "b", Bits: 6},
	)); err != nil {
		t.Fatalf("Define failed: %v", err)
	}

	err := reg.Validate()
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDefine, Kind: errors.KindBitfieldOverflow}) {
		t.Errorf("error = %v, want define/bitfield_overflow", err)
	}
}

func TestRegistry_ValidateDiscriminantCases(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Define("payload", Union(
		ThresholdCase([]string{"type"}, 5, "script", "missing"),
		Case{Name: "script", Type: "u16"},
	)); err != nil {
		t.Fatalf("Define failed: %v", err)
	}

	err := reg.Validate()
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDefine, Kind: errors.KindUnknownVariant}) {
		t.Errorf("error = %v, want define/unknown_variant", err)
	}
}

func TestRegistry_ValidateCyclesPass(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Define("node_ptr", Pointer("node", IndexedLabel("node", 4, false))); err != nil {
		t.Fatalf("Define node_ptr failed: %v", err)
	}
	if err := reg.Define("node", Struct(
		Field{Name: "v", Type: "u8"},
		Field{Name: "next", Type: "node_ptr"},
	)); err != nil {
		t.Fatalf("Define node failed: %v", err)
	}

	if err := reg.Validate(); err != nil {
		t.Errorf("Validate rejected a legal cycle: %v", err)
	}
}

func TestRegistry_ValidateOpaquePointer(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Define("script_ptr", Pointer("", IndexedLabel("script", 4, false))); err != nil {
		t.Fatalf("Define failed: %v", err)
	}
	if err := reg.Validate(); err != nil {
		t.Errorf("Validate rejected an opaque pointer: %v", err)
	}
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Define("aaa", Struct()); err != nil {
		t.Fatalf("Define failed: %v", err)
	}

	names := reg.Names()
	if len(names) != 7 {
		t.Fatalf("got %d names, want 7", len(names))
	}
	if names[0] != "aaa" {
		t.Errorf("names[0] = %q, want aaa (sorted order)", names[0])
	}
}
