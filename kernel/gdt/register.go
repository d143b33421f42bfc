package gdt

import (
	"encoding/binary"
	"unsafe"
)

// RegisterSize is the size of the packed GDTR pseudo-descriptor.
const RegisterSize = 6

// Register is the value loaded into the GDTR: the table size minus one and
// the table's linear address.
type Register struct {
	Size   uint16
	Offset uint32
}

// RegisterFor returns the register value describing t.
func RegisterFor(t *Table) Register {
	return Register{
		Size:   uint16(unsafe.Sizeof(*t) - 1),
		Offset: uint32(uintptr(unsafe.Pointer(t))),
	}
}

// Encode packs r without padding: 16-bit size followed by the 32-bit
// offset, both little-endian.
func (r Register) Encode() [RegisterSize]byte {
	var b [RegisterSize]byte
	binary.LittleEndian.PutUint16(b[0:2], r.Size)
	binary.LittleEndian.PutUint32(b[2:6], r.Offset)
	return b
}

// DecodeRegister unpacks a GDTR pseudo-descriptor.
func DecodeRegister(b [RegisterSize]byte) Register {
	return Register{
		Size:   binary.LittleEndian.Uint16(b[0:2]),
		Offset: binary.LittleEndian.Uint32(b[2:6]),
	}
}
