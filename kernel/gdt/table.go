package gdt

import "pmos/kernel"

// Descriptor table slots of the flat model.
const (
	NullIndex = iota
	KernelCodeIndex
	KernelDataIndex
	UserCodeIndex
	UserDataIndex

	// EntryCount is the number of descriptors in the flat-model table.
	EntryCount
)

// Requested privilege levels encoded in the low bits of a selector.
const (
	rpl0 = 0
	rpl3 = 3
)

// Segment selectors referencing the flat-model table.
const (
	KernelCodeSelector = uint16(KernelCodeIndex<<3 | rpl0)
	KernelDataSelector = uint16(KernelDataIndex<<3 | rpl0)
	UserCodeSelector   = uint16(UserCodeIndex<<3 | rpl3)
	UserDataSelector   = uint16(UserDataIndex<<3 | rpl3)
)

// Access bytes and flags shared by the flat-model segments.
const (
	kernelCodeAccess = AccessPresent | AccessRing0 | AccessCodeData | AccessExecutable | AccessReadWrite // 0x9a
	kernelDataAccess = AccessPresent | AccessRing0 | AccessCodeData | AccessReadWrite                    // 0x92
	userCodeAccess   = AccessPresent | AccessRing3 | AccessCodeData | AccessExecutable | AccessReadWrite // 0xfa
	userDataAccess   = AccessPresent | AccessRing3 | AccessCodeData | AccessReadWrite                    // 0xf2
	flatFlags        = FlagGranularity4K | FlagSize32                                                    // 0xc
)

// Table is an encoded flat-model descriptor table laid out contiguously in
// memory, as the CPU expects it.
type Table [EntryCount]Entry

// Bytes returns a copy of the table contents.
func (t *Table) Bytes() []byte {
	out := make([]byte, 0, EntryCount*EntrySize)
	for _, e := range t {
		out = append(out, e[:]...)
	}
	return out
}

// FlatModel returns the descriptors of the flat memory model: a null
// descriptor followed by ring 0 and ring 3 code and data segments, all with
// base 0 and a 4GiB limit. A TSS descriptor is not part of the table.
func FlatModel() [EntryCount]Descriptor {
	return [EntryCount]Descriptor{
		NullIndex:       {},
		KernelCodeIndex: {Base: 0, Limit: MaxLimit, Access: kernelCodeAccess, Flags: flatFlags},
		KernelDataIndex: {Base: 0, Limit: MaxLimit, Access: kernelDataAccess, Flags: flatFlags},
		UserCodeIndex:   {Base: 0, Limit: MaxLimit, Access: userCodeAccess, Flags: flatFlags},
		UserDataIndex:   {Base: 0, Limit: MaxLimit, Access: userDataAccess, Flags: flatFlags},
	}
}

// BuildFlatModel encodes the flat-model descriptors into a table.
func BuildFlatModel() (Table, *kernel.Error) {
	var table Table

	for i, d := range FlatModel() {
		entry, err := d.Encode()
		if err != nil {
			return Table{}, err
		}
		table[i] = entry
	}

	return table, nil
}
