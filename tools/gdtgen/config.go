package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"pmos/kernel/gdt"
)

// segmentConfig is one [[segment]] table of a descriptor table file.
type segmentConfig struct {
	Name   string `toml:"name"`
	Base   uint32 `toml:"base"`
	Limit  uint32 `toml:"limit"`
	Access uint8  `toml:"access"`
	Flags  uint8  `toml:"flags"`
}

type fileConfig struct {
	Format   string          `toml:"format"`
	Segments []segmentConfig `toml:"segment"`
}

// tableConfig is a descriptor table ready to be encoded.
type tableConfig struct {
	Format   string
	Names    []string
	Segments []gdt.Descriptor
}

// defaultTableConfig returns the kernel's flat-model table.
func defaultTableConfig() tableConfig {
	flat := gdt.FlatModel()
	return tableConfig{
		Format:   formatHex,
		Names:    []string{"null", "kernel code", "kernel data", "user code", "user data"},
		Segments: flat[:],
	}
}

// loadTableConfig reads a descriptor table description from a TOML file.
// Keys that are not recognized are returned so the caller can warn about
// them.
func loadTableConfig(path string) (tableConfig, []string, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return tableConfig{}, nil, fmt.Errorf("load table config: %w", err)
	}

	cfg, err := tableConfigFrom(raw, meta)
	if err != nil {
		return tableConfig{}, nil, fmt.Errorf("table config %s: %w", path, err)
	}

	var undecoded []string
	for _, key := range meta.Undecoded() {
		undecoded = append(undecoded, key.String())
	}

	return cfg, undecoded, nil
}

// parseTableConfig decodes a descriptor table description from TOML text.
func parseTableConfig(data string) (tableConfig, error) {
	var raw fileConfig
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return tableConfig{}, fmt.Errorf("parse table config: %w", err)
	}

	return tableConfigFrom(raw, meta)
}

func tableConfigFrom(raw fileConfig, meta toml.MetaData) (tableConfig, error) {
	cfg := tableConfig{Format: formatHex}

	if meta.IsDefined("format") {
		format, err := parseFormat(raw.Format)
		if err != nil {
			return tableConfig{}, err
		}
		cfg.Format = format
	}

	if len(raw.Segments) == 0 {
		return tableConfig{}, fmt.Errorf("no [[segment]] entries defined")
	}

	for i, seg := range raw.Segments {
		name := strings.TrimSpace(seg.Name)
		if name == "" {
			name = fmt.Sprintf("segment%d", i)
		}

		cfg.Names = append(cfg.Names, name)
		cfg.Segments = append(cfg.Segments, gdt.Descriptor{
			Base:   seg.Base,
			Limit:  seg.Limit,
			Access: seg.Access,
			Flags:  seg.Flags,
		})
	}

	if cfg.Segments[0] != (gdt.Descriptor{}) {
		return tableConfig{}, fmt.Errorf("segment 0 (%s) must be the null descriptor", cfg.Names[0])
	}

	if len(cfg.Segments) > maxEntries {
		return tableConfig{}, fmt.Errorf("table has %d segments; at most %d fit the GDTR limit", len(cfg.Segments), maxEntries)
	}

	return cfg, nil
}
