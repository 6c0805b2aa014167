// Package errors provides structured error types for schema and codec
// operations.
//
// Errors carry a Phase (define, resolve, decode, encode, load), a Kind
// (duplicate_name, out_of_bounds, variant_mismatch, ...), the field path at
// which the fault occurred, and an optional offending value and cause.
//
// All faults are local and non-retriable: the codec surfaces the first error
// and aborts the current call without leaving a partially populated value
// tree. Two errors match under errors.Is when phase and kind agree, so
// callers can classify without string matching:
//
//	if errors.Is(err, &agberr.Error{Phase: agberr.PhaseDecode, Kind: agberr.KindOutOfBounds}) {
//	    ...
//	}
package errors
