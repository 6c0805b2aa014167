package agbrom

import "fmt"

// BoundsError reports a read past the end of a ROM buffer.
type BoundsError struct {
	Offset uint32
	Length uint32
	Size   uint32
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("read of %d bytes at offset 0x%X exceeds ROM size 0x%X", e.Length, e.Offset, e.Size)
}

// TranslateError reports a bus address outside the cartridge window.
type TranslateError struct {
	Address uint32
}

func (e *TranslateError) Error() string {
	return fmt.Sprintf("address 0x%08X is not a cartridge ROM address", e.Address)
}
