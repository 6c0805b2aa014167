package codec

import (
	"fmt"
	"strings"
)

// Decoded values mirror the type shape:
//
//	scalar            int64
//	struct, bitfield  *Struct
//	union             *Union
//	array             []any
//	pointer           *Pointer
//
// Value trees from independent Decode calls share no state.

// Struct is an ordered name-to-value mapping. Iteration follows declaration
// order, which length and discriminant resolution depend on.
type Struct struct {
	names  []string
	values map[string]any
}

// NewStruct returns an empty struct value.
func NewStruct() *Struct {
	return &Struct{values: make(map[string]any)}
}

// Set assigns a field, appending it to the order on first assignment. It
// returns the struct for chained construction.
func (s *Struct) Set(name string, v any) *Struct {
	if _, ok := s.values[name]; !ok {
		s.names = append(s.names, name)
	}
	s.values[name] = v
	return s
}

// Get returns the named field value.
func (s *Struct) Get(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Names returns the field names in insertion order. The caller must not
// mutate the returned slice.
func (s *Struct) Names() []string {
	return s.names
}

// Len returns the number of fields.
func (s *Struct) Len() int {
	return len(s.names)
}

// Union is a decoded union: the active case name and its value.
type Union struct {
	Case  string
	Value any
}

// Pointer is a decoded pointer field. Address is the raw bus address as read
// from the ROM; Target is the deep-resolved referent, nil when resolution
// was not requested, the pointer type is opaque, or the address is zero.
// Two pointers resolving to the same translated offset within one Decode
// call share the identical Target object.
type Pointer struct {
	Address uint32
	Target  any
}

// Format renders a value tree as indented text for logs and tooling.
func Format(v any) string {
	var b strings.Builder
	formatValue(&b, v, 0)
	return b.String()
}

func formatValue(b *strings.Builder, v any, indent int) {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case int64:
		fmt.Fprintf(b, "%d", val)
	case *Struct:
		b.WriteString("{\n")
		for _, name := range val.Names() {
			writeIndent(b, indent+1)
			b.WriteString(name)
			b.WriteString(": ")
			fv, _ := val.Get(name)
			formatValue(b, fv, indent+1)
			b.WriteByte('\n')
		}
		writeIndent(b, indent)
		b.WriteByte('}')
	case []any:
		if len(val) == 0 {
			b.WriteString("[]")
			return
		}
		b.WriteString("[\n")
		for _, elem := range val {
			writeIndent(b, indent+1)
			formatValue(b, elem, indent+1)
			b.WriteByte('\n')
		}
		writeIndent(b, indent)
		b.WriteByte(']')
	case *Union:
		b.WriteString(val.Case)
		b.WriteString(": ")
		formatValue(b, val.Value, indent)
	case *Pointer:
		fmt.Fprintf(b, "-> 0x%08X", val.Address)
		if val.Target != nil {
			b.WriteByte(' ')
			formatValue(b, val.Target, indent)
		}
	default:
		fmt.Fprintf(b, "%v", val)
	}
}

func writeIndent(b *strings.Builder, n int) {
	for i := 0; i < n; i++ {
		b.WriteString("  ")
	}
}
