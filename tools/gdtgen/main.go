// Command gdtgen encodes segment descriptor tables. Without a config file it
// emits the kernel's flat-model table; with -decode it breaks a descriptor
// quadword down into its fields.
package main

import (
	"flag"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"pmos/tools/internal/toollog"
)

func exit(err error) {
	log.Error().Err(err).Msg("gdtgen failed")
	os.Exit(1)
}

func main() {
	var (
		configPath = flag.String("config", "", "TOML descriptor table description (defaults to the flat model)")
		format     = flag.String("format", "", "output format: hex, bin or asm (overrides the config file)")
		outPath    = flag.String("o", "", "output file (defaults to stdout)")
		decode     = flag.String("decode", "", "decode a descriptor quadword instead of generating a table")
		logLevel   = flag.String("log-level", "info", "log level: trace, debug, info, warn or error")
	)
	flag.Parse()

	logger := toollog.Init("gdtgen", *logLevel)

	if *decode != "" {
		d, err := decodeEntry(*decode)
		if err != nil {
			exit(err)
		}
		describe(os.Stdout, d)
		return
	}

	cfg := defaultTableConfig()
	if *configPath != "" {
		loaded, undecoded, err := loadTableConfig(*configPath)
		if err != nil {
			exit(err)
		}
		for _, key := range undecoded {
			logger.Warn().Str("key", key).Msg("ignoring unknown config key")
		}
		cfg = loaded
	}

	if *format != "" {
		f, err := parseFormat(*format)
		if err != nil {
			exit(err)
		}
		cfg.Format = f
	}

	entries, err := encodeTable(cfg)
	if err != nil {
		exit(err)
	}

	var out io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			exit(err)
		}
		defer f.Close()
		out = f
	}

	if err := writeTable(out, cfg, entries, cfg.Format); err != nil {
		exit(err)
	}

	logger.Debug().
		Int("entries", len(entries)).
		Str("format", cfg.Format).
		Msg("descriptor table written")
}
