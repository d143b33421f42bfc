package main

import (
	"github.com/rs/zerolog"

	"pmos/device/serial"
)

// tracePort logs every port access made through it.
type tracePort struct {
	serial.Port
	logger zerolog.Logger
}

func (p tracePort) ReadPort(port uint16) uint8 {
	val := p.Port.ReadPort(port)
	p.logger.Trace().
		Str("op", "in").
		Uint16("port", port).
		Uint8("val", val).
		Msg("port access")
	return val
}

func (p tracePort) WritePort(port uint16, val uint8) {
	p.logger.Trace().
		Str("op", "out").
		Uint16("port", port).
		Uint8("val", val).
		Msg("port access")
	p.Port.WritePort(port, val)
}
