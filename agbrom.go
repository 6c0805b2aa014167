package agbrom

import "encoding/binary"

// ROM is a finite, random-access byte source. All multi-byte reads are
// little-endian, matching the GBA's ARM7TDMI bus.
type ROM interface {
	Read(offset uint32, length uint32) ([]byte, error)
	ReadU8(offset uint32) (uint8, error)
	ReadU16(offset uint32) (uint16, error)
	ReadU32(offset uint32) (uint32, error)
	Size() uint32
}

// AddressTranslator maps an absolute bus address (as stored in a pointer
// field) to an offset into the ROM buffer. Deep pointer resolution is the
// only consumer.
type AddressTranslator func(address uint32) (uint32, error)

// CartridgeBase is the bus address the cartridge ROM is mapped at.
const CartridgeBase uint32 = 0x08000000

// Buffer is a ROM backed by an in-memory byte slice.
type Buffer struct {
	data []byte
}

// NewBuffer wraps data in a Buffer. The slice is not copied; the caller must
// not mutate it while decodes are in flight.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

func (b *Buffer) Size() uint32 {
	return uint32(len(b.data))
}

func (b *Buffer) Read(offset uint32, length uint32) ([]byte, error) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(b.data)) {
		return nil, &BoundsError{Offset: offset, Length: length, Size: uint32(len(b.data))}
	}
	return b.data[offset:end], nil
}

func (b *Buffer) ReadU8(offset uint32) (uint8, error) {
	d, err := b.Read(offset, 1)
	if err != nil {
		return 0, err
	}
	return d[0], nil
}

func (b *Buffer) ReadU16(offset uint32) (uint16, error) {
	d, err := b.Read(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(d), nil
}

func (b *Buffer) ReadU32(offset uint32) (uint32, error) {
	d, err := b.Read(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(d), nil
}

// CartridgeTranslator translates bus addresses in the cartridge window back
// to buffer offsets. Addresses below the window or past the buffer fail.
func CartridgeTranslator(rom ROM) AddressTranslator {
	return func(address uint32) (uint32, error) {
		if address < CartridgeBase {
			return 0, &TranslateError{Address: address}
		}
		offset := address - CartridgeBase
		if offset >= rom.Size() {
			return 0, &TranslateError{Address: address}
		}
		return offset, nil
	}
}
