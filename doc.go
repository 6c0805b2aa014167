// Package agbrom provides a declarative binary schema and codec for Game Boy
// Advance ROM data.
//
// Event tables, map headers and similar in-ROM structures are described by a
// schema (structures, bitfields, tagged unions, length-prefixed arrays and
// pointers) and round-tripped through a byte buffer by a generic codec.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	agbrom/              Root package with the ROM byte source and address translation
//	├── schema/          Named type registry, type model and HCL schema files
//	├── codec/           Decoder, encoder and field-path resolution
//	├── event/           Built-in overworld event model (persons, warps, triggers, signposts)
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Decode the event header of a map:
//
//	reg := schema.NewRegistry()
//	if err := event.Register(reg); err != nil {
//	    log.Fatal(err)
//	}
//
//	rom := agbrom.NewBuffer(data)
//	dec := codec.NewDecoder(reg,
//	    codec.WithDeepPointers(agbrom.CartridgeTranslator(rom)))
//
//	header, err := dec.Decode("event.event_header", rom, headerOffset)
//
// # Type System
//
// Schemas support the scalar widths u8, s8, u16, s16, u32 and s32 (always
// little-endian) and five compound shapes:
//
//   - Struct: fixed-order aggregate of named fields, no implicit padding
//   - Bitfield: integer-backed subfields, first declared in the low bits
//   - Union: one active case, chosen by already-decoded sibling data
//   - Array: element count fixed or read from an ancestor field
//   - Pointer: bus address, optionally deep-resolved through a translator
//
// Schema graphs may be cyclic and may reference names defined later; names
// resolve lazily at first codec use.
//
// # Encoding and Relocation
//
// Encoding produces a contiguous byte sequence plus relocation entries.
// Pointers are not resolved to addresses; each emits a symbolic label for an
// external linking step to patch.
//
// # Thread Safety
//
// A Registry is written during a one-time define phase and safe for
// unsynchronized reads afterwards. Decoder and Encoder are safe for
// concurrent use; every Decode call owns its own context and pointer-target
// cache.
package agbrom
