// Package codec reads and writes schema-described values against ROM
// buffers.
//
// # Decoding
//
// Decoder.Decode walks a type from the registry over a ROM byte source and
// builds a value tree: int64 for scalars, *Struct for structs and bitfields,
// *Union for unions, []any for arrays, *Pointer for pointers. Struct fields
// decode strictly in declared order; each decoded field becomes visible to
// later length and discriminant lookups through a context stack of ancestor
// frames.
//
// With WithDeepPointers, pointer targets are translated from bus addresses
// to buffer offsets and decoded recursively. Within one Decode call targets
// are cached by translated offset, so two pointers to the same data share
// the identical decoded object.
//
// # Encoding
//
// Encoder.Encode mirrors decoding: the value tree is validated against the
// type, fields are concatenated in order, and every pointer emits a
// Relocation instead of a resolved address. Union values whose tag disagrees
// with what the discriminant would compute are rejected, because the bytes
// written must decode back through the same discriminant logic.
//
// # Error Handling
//
// All faults use the structured errors package and abort the call; no
// partially populated tree is ever returned:
//
//	[decode] out_of_bounds at persons.[2].x: read of 2 bytes at offset 0x1F past end of buffer
//	[encode] variant_mismatch at value: value is tagged "item" but discriminant selects "script"
package codec
