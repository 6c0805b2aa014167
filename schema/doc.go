// Package schema describes binary layouts found in GBA ROM images.
//
// A Registry maps names to type definitions. Six kinds exist: scalars,
// structs, bitfields, unions, variable arrays and pointers. Compound types
// reference each other by name, resolved lazily at first codec use, so
// definition order is free and recursive graphs (a pointer to a struct that
// itself holds pointers to the same struct) work.
//
// Array lengths and union discriminants are declared as data strategies
// rather than functions: a length is a constant or a field path into
// already-decoded ancestors, a discriminant is a constant case or a
// threshold comparison. Pointer labels follow a LabelPolicy consumed during
// encode.
//
// Schemas can be declared in Go or loaded from HCL files:
//
//	struct "event.warp" {
//	  field "x"               { type = "s16" }
//	  field "y"               { type = "s16" }
//	  field "level"           { type = "u8" }
//	  field "target_warp_idx" { type = "u8" }
//	  field "target_map"      { type = "u8" }
//	  field "target_bank"     { type = "u8" }
//	}
package schema
