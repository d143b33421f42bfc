// Package gdt builds and installs the global descriptor table used by the
// kernel. The kernel runs with a flat memory model: every segment spans the
// full 4GiB address space and protection is left to paging.
package gdt

import "pmos/kernel"

// Access byte bits (bits 40-47 of a segment descriptor).
const (
	// AccessAccessed is set by the CPU when the segment is loaded.
	AccessAccessed uint8 = 1 << 0

	// AccessReadWrite marks code segments readable and data segments
	// writable.
	AccessReadWrite uint8 = 1 << 1

	// AccessDirectionConforming selects expand-down data segments or
	// conforming code segments.
	AccessDirectionConforming uint8 = 1 << 2

	// AccessExecutable marks a code segment.
	AccessExecutable uint8 = 1 << 3

	// AccessCodeData is set for code/data segments and clear for system
	// segments (TSS, LDT, gates).
	AccessCodeData uint8 = 1 << 4

	// AccessRing0 and AccessRing3 select the descriptor privilege level.
	AccessRing0 uint8 = 0 << 5
	AccessRing3 uint8 = 3 << 5

	// AccessPresent must be set for any usable segment.
	AccessPresent uint8 = 1 << 7
)

// Flag nibble bits (bits 52-55 of a segment descriptor).
const (
	// FlagAvailable is reserved for system software.
	FlagAvailable uint8 = 1 << 0

	// FlagLongMode marks a 64-bit code segment. Must be clear when
	// FlagSize32 is set.
	FlagLongMode uint8 = 1 << 1

	// FlagSize32 selects 32-bit default operand size.
	FlagSize32 uint8 = 1 << 2

	// FlagGranularity4K scales the limit by 4KiB pages.
	FlagGranularity4K uint8 = 1 << 3
)

const (
	// MaxLimit is the largest value that fits the 20-bit limit field.
	MaxLimit = 0xfffff

	// maxFlags is the largest value that fits the 4-bit flags field.
	maxFlags = 0xf

	// EntrySize is the size in bytes of an encoded descriptor.
	EntrySize = 8
)

var (
	errLimitTooLarge = &kernel.Error{Module: "gdt", Message: "descriptor limit exceeds 20 bits"}
	errFlagsTooLarge = &kernel.Error{Module: "gdt", Message: "descriptor flags exceed 4 bits"}
)

// Descriptor is the logical form of a segment descriptor.
type Descriptor struct {
	// Base is the linear address where the segment starts.
	Base uint32

	// Limit is the 20-bit segment size. Depending on FlagGranularity4K it
	// counts bytes or 4KiB pages.
	Limit uint32

	// Access holds the present bit, privilege level and segment type.
	Access uint8

	// Flags holds the granularity, size and long mode bits in its low
	// nibble.
	Flags uint8
}

// Entry is a segment descriptor in the layout expected by the CPU.
type Entry [EntrySize]byte

// Encode packs d into its 8-byte hardware layout:
//
//	byte 0-1  limit 0:15
//	byte 2-4  base 0:23
//	byte 5    access byte
//	byte 6    limit 16:19 (low nibble), flags (high nibble)
//	byte 7    base 24:31
//
// Descriptors whose limit or flags do not fit their fields are rejected
// rather than truncated.
func (d Descriptor) Encode() (Entry, *kernel.Error) {
	var e Entry

	if d.Limit > MaxLimit {
		return e, errLimitTooLarge
	}

	if d.Flags > maxFlags {
		return e, errFlagsTooLarge
	}

	e[0] = uint8(d.Limit)
	e[1] = uint8(d.Limit >> 8)
	e[2] = uint8(d.Base)
	e[3] = uint8(d.Base >> 8)
	e[4] = uint8(d.Base >> 16)
	e[5] = d.Access
	e[6] = uint8(d.Limit>>16)&0x0f | d.Flags<<4
	e[7] = uint8(d.Base >> 24)

	return e, nil
}

// Decode unpacks an encoded descriptor. Decode(d.Encode()) returns d for
// every descriptor that Encode accepts.
func Decode(e Entry) Descriptor {
	return Descriptor{
		Base:   uint32(e[2]) | uint32(e[3])<<8 | uint32(e[4])<<16 | uint32(e[7])<<24,
		Limit:  uint32(e[0]) | uint32(e[1])<<8 | uint32(e[6]&0x0f)<<16,
		Access: e[5],
		Flags:  e[6] >> 4,
	}
}

// Uint64 returns the entry as the little-endian quadword the CPU reads.
func (e Entry) Uint64() uint64 {
	var v uint64
	for i := EntrySize - 1; i >= 0; i-- {
		v = v<<8 | uint64(e[i])
	}
	return v
}

// Present reports whether the present bit is set in the access byte.
func (d Descriptor) Present() bool {
	return d.Access&AccessPresent != 0
}

// PrivilegeLevel returns the descriptor privilege level (0-3).
func (d Descriptor) PrivilegeLevel() uint8 {
	return (d.Access >> 5) & 0x3
}

// Executable reports whether d describes a code segment.
func (d Descriptor) Executable() bool {
	return d.Access&(AccessCodeData|AccessExecutable) == AccessCodeData|AccessExecutable
}

// SizeInBytes returns the segment size implied by the limit and granularity.
func (d Descriptor) SizeInBytes() uint64 {
	if d.Flags&FlagGranularity4K != 0 {
		return (uint64(d.Limit) + 1) << 12
	}
	return uint64(d.Limit) + 1
}
