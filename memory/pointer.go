package memory

import (
	"encoding/binary"
	"fmt"
)

// PointerMakerForX86_32 returns a PointerMaker for 32-bit x86 targets.
func PointerMakerForX86_32() PointerMaker {
	return PointerMaker{
		byteOrder: binary.LittleEndian,
		ptrSize:   4,
	}
}

// PointerMaker converts between addresses and their in-memory
// representation on the target platform.
type PointerMaker struct {
	byteOrder binary.ByteOrder
	ptrSize   int
}

// Size returns the size of a pointer in bytes.
func (o PointerMaker) Size() int {
	return o.ptrSize
}

// FromUint encodes address as a Pointer.
func (o PointerMaker) FromUint(address uint32) Pointer {
	out := make([]byte, o.ptrSize)
	o.byteOrder.PutUint32(out, address)

	return Pointer{
		byteOrder: o.byteOrder,
		raw:       out,
	}
}

// FromBytes wraps raw pointer bytes, as read from target memory.
func (o PointerMaker) FromBytes(raw []byte) (Pointer, error) {
	if len(raw) != o.ptrSize {
		return Pointer{}, fmt.Errorf("pointer must be %d bytes - got %d bytes",
			o.ptrSize, len(raw))
	}

	return Pointer{
		byteOrder: o.byteOrder,
		raw:       append([]byte(nil), raw...),
	}, nil
}

// Pointer is an address encoded for a target platform.
type Pointer struct {
	byteOrder binary.ByteOrder
	raw       []byte
}

// Bytes returns the encoded pointer.
func (o Pointer) Bytes() []byte {
	return o.raw
}

// Uint returns the address the pointer refers to.
func (o Pointer) Uint() uint32 {
	if len(o.raw) != 4 {
		return 0
	}

	return o.byteOrder.Uint32(o.raw)
}

// HexString returns the address as a "0x" prefixed hex string
// padded to the width of the pointer.
func (o Pointer) HexString() string {
	return fmt.Sprintf("0x%0*x", len(o.raw)*2, o.Uint())
}
