package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"pmos/kernel/gdt"
)

const (
	formatHex = "hex"
	formatBin = "bin"
	formatAsm = "asm"

	// maxEntries is the number of descriptors addressable by the 16-bit
	// GDTR limit.
	maxEntries = 0x10000 / gdt.EntrySize
)

func parseFormat(raw string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(raw)); f {
	case formatHex, formatBin, formatAsm:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (expected hex, bin or asm)", raw)
	}
}

// encodeTable encodes every segment of cfg, failing on the first descriptor
// the CPU could not represent.
func encodeTable(cfg tableConfig) ([]gdt.Entry, error) {
	entries := make([]gdt.Entry, 0, len(cfg.Segments))
	for i, d := range cfg.Segments {
		e, err := d.Encode()
		if err != nil {
			return nil, fmt.Errorf("segment %d (%s): %w", i, cfg.Names[i], err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// writeTable renders the encoded table in the requested format.
func writeTable(w io.Writer, cfg tableConfig, entries []gdt.Entry, format string) error {
	bw := bufio.NewWriter(w)

	switch format {
	case formatBin:
		for _, e := range entries {
			bw.Write(e[:])
		}
	case formatAsm:
		fmt.Fprintf(bw, "\t.align 8\ngdt_start:\n")
		for i, e := range entries {
			fmt.Fprintf(bw, "\t.quad 0x%016x # 0x%02x %s\n", e.Uint64(), i*gdt.EntrySize, cfg.Names[i])
		}
		fmt.Fprintf(bw, "gdt_end:\n\ngdt_descriptor:\n")
		fmt.Fprintf(bw, "\t.word gdt_end - gdt_start - 1 # %d\n", len(entries)*gdt.EntrySize-1)
		fmt.Fprintf(bw, "\t.long gdt_start\n")
	default:
		for i, e := range entries {
			d := cfg.Segments[i]
			fmt.Fprintf(bw, "0x%02x  %016x  %-12s base=0x%08x limit=0x%05x access=0x%02x flags=0x%x\n",
				i*gdt.EntrySize, e.Uint64(), cfg.Names[i], d.Base, d.Limit, d.Access, d.Flags)
		}
		fmt.Fprintf(bw, "gdtr limit %d\n", len(entries)*gdt.EntrySize-1)
	}

	return bw.Flush()
}

// decodeEntry parses a descriptor given as a 64-bit hex quadword (as found
// in `.quad` directives or memory dumps) and returns its fields.
func decodeEntry(raw string) (gdt.Descriptor, error) {
	raw = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), "0x")
	v, err := strconv.ParseUint(raw, 16, 64)
	if err != nil {
		return gdt.Descriptor{}, fmt.Errorf("decode %q: %w", raw, err)
	}

	var e gdt.Entry
	binary.LittleEndian.PutUint64(e[:], v)
	return gdt.Decode(e), nil
}

// describe writes a human readable breakdown of d.
func describe(w io.Writer, d gdt.Descriptor) {
	kind := "data"
	if d.Executable() {
		kind = "code"
	}
	if d.Access&gdt.AccessCodeData == 0 {
		kind = "system"
	}

	fmt.Fprintf(w, "base        0x%08x\n", d.Base)
	fmt.Fprintf(w, "limit       0x%05x (%d bytes)\n", d.Limit, d.SizeInBytes())
	fmt.Fprintf(w, "access      0x%02x\n", d.Access)
	fmt.Fprintf(w, "flags       0x%x\n", d.Flags)
	fmt.Fprintf(w, "present     %t\n", d.Present())
	fmt.Fprintf(w, "dpl         %d\n", d.PrivilegeLevel())
	fmt.Fprintf(w, "type        %s\n", kind)
	fmt.Fprintf(w, "32-bit      %t\n", d.Flags&gdt.FlagSize32 != 0)
	fmt.Fprintf(w, "4k pages    %t\n", d.Flags&gdt.FlagGranularity4K != 0)
}
