// Package toollog configures the zerolog logger shared by the host tools.
package toollog

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init installs a console logger tagged with the tool name as the global
// zerolog logger and returns it. Unknown levels fall back to info.
func Init(tool, level string) zerolog.Logger {
	return New(os.Stderr, tool, level)
}

// New builds a console logger writing to out. Output is colored only when
// out is a terminal.
func New(out io.Writer, tool, level string) zerolog.Logger {
	noColor := true
	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		out = colorable.NewColorable(f)
		noColor = false
	}

	output := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    noColor,
		TimeFormat: time.RFC3339,
	}

	logger := zerolog.New(output).
		Level(ParseLevel(level)).
		With().Timestamp().Str("tool", tool).
		Logger()
	log.Logger = logger
	return logger
}

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(raw string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
