package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"pmos/kernel"
	"pmos/kernel/gdt"
)

func TestEncodeTable(t *testing.T) {
	entries, err := encodeTable(defaultTableConfig())
	if err != nil {
		t.Fatal(err)
	}

	table, _ := gdt.BuildFlatModel()
	for i, e := range entries {
		if e != table[i] {
			t.Errorf("entry %d: expected % x; got % x", i, table[i], e)
		}
	}
}

func TestEncodeTableRejectsLargeLimit(t *testing.T) {
	cfg := tableConfig{
		Names:    []string{"null", "huge"},
		Segments: []gdt.Descriptor{{}, {Limit: gdt.MaxLimit + 1, Access: 0x92}},
	}

	_, err := encodeTable(cfg)
	if err == nil {
		t.Fatal("expected an error")
	}

	if !strings.Contains(err.Error(), "segment 1 (huge)") {
		t.Errorf("expected error to name the failing segment; got %v", err)
	}

	var kerr *kernel.Error
	if !errors.As(err, &kerr) || kerr.Module != "gdt" {
		t.Errorf("expected the gdt error to be wrapped; got %v", err)
	}
}

func TestWriteTable(t *testing.T) {
	cfg := defaultTableConfig()
	entries, err := encodeTable(cfg)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("bin", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeTable(&buf, cfg, entries, formatBin); err != nil {
			t.Fatal(err)
		}

		table, _ := gdt.BuildFlatModel()
		if !bytes.Equal(buf.Bytes(), table.Bytes()) {
			t.Fatalf("expected raw table bytes:\n% x\ngot:\n% x", table.Bytes(), buf.Bytes())
		}
	})

	t.Run("asm", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeTable(&buf, cfg, entries, formatAsm); err != nil {
			t.Fatal(err)
		}

		for _, exp := range []string{
			"\t.quad 0x0000000000000000 # 0x00 null\n",
			"\t.quad 0x00cf9a000000ffff # 0x08 kernel code\n",
			"\t.quad 0x00cf92000000ffff # 0x10 kernel data\n",
			"\t.quad 0x00cffa000000ffff # 0x18 user code\n",
			"\t.quad 0x00cff2000000ffff # 0x20 user data\n",
			"\t.word gdt_end - gdt_start - 1 # 39\n",
		} {
			if !strings.Contains(buf.String(), exp) {
				t.Errorf("expected output to contain %q; got:\n%s", exp, buf.String())
			}
		}
	})

	t.Run("hex", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeTable(&buf, cfg, entries, formatHex); err != nil {
			t.Fatal(err)
		}

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if exp := gdt.EntryCount + 1; len(lines) != exp {
			t.Fatalf("expected %d lines; got %d:\n%s", exp, len(lines), buf.String())
		}

		if exp := "0x08  00cf9a000000ffff  kernel code  base=0x00000000 limit=0xfffff access=0x9a flags=0xc"; lines[1] != exp {
			t.Errorf("expected line:\n%q\ngot:\n%q", exp, lines[1])
		}

		if exp := "gdtr limit 39"; lines[len(lines)-1] != exp {
			t.Errorf("expected last line %q; got %q", exp, lines[len(lines)-1])
		}
	})
}

func TestParseFormat(t *testing.T) {
	specs := []struct {
		input  string
		exp    string
		expErr bool
	}{
		{"hex", formatHex, false},
		{" ASM ", formatAsm, false},
		{"bin", formatBin, false},
		{"elf", "", true},
	}

	for specIndex, spec := range specs {
		got, err := parseFormat(spec.input)
		if (err != nil) != spec.expErr {
			t.Errorf("[spec %d] unexpected error state: %v", specIndex, err)
		}
		if got != spec.exp {
			t.Errorf("[spec %d] expected %q; got %q", specIndex, spec.exp, got)
		}
	}
}

func TestDecodeEntry(t *testing.T) {
	specs := []struct {
		input string
		exp   gdt.Descriptor
	}{
		{"00cf9a000000ffff", gdt.Descriptor{Limit: 0xfffff, Access: 0x9a, Flags: 0xc}},
		{"0x00CFF2000000FFFF", gdt.Descriptor{Limit: 0xfffff, Access: 0xf2, Flags: 0xc}},
		{"0", gdt.Descriptor{}},
	}

	for specIndex, spec := range specs {
		got, err := decodeEntry(spec.input)
		if err != nil {
			t.Errorf("[spec %d] unexpected error: %v", specIndex, err)
			continue
		}
		if got != spec.exp {
			t.Errorf("[spec %d] expected %+v; got %+v", specIndex, spec.exp, got)
		}
	}

	if _, err := decodeEntry("not-hex"); err == nil {
		t.Error("expected an error for malformed input")
	}
}

func TestDescribe(t *testing.T) {
	var buf bytes.Buffer
	describe(&buf, gdt.FlatModel()[gdt.UserCodeIndex])

	for _, exp := range []string{
		"base        0x00000000\n",
		"limit       0xfffff (4294967296 bytes)\n",
		"access      0xfa\n",
		"present     true\n",
		"dpl         3\n",
		"type        code\n",
		"32-bit      true\n",
	} {
		if !strings.Contains(buf.String(), exp) {
			t.Errorf("expected output to contain %q; got:\n%s", exp, buf.String())
		}
	}
}
