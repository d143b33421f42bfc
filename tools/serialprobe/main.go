// Command serialprobe runs the kernel's UART initialization and loopback
// self-test against a real serial port from Linux user space, using
// /dev/port for I/O port access. It needs CAP_SYS_RAWIO.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pmos/device/serial"
	"pmos/tools/internal/toollog"
)

func exit(err error) {
	log.Error().Err(err).Msg("serialprobe failed")
	os.Exit(1)
}

func main() {
	var (
		configPath = flag.String("config", "", "TOML probe configuration")
		device     = flag.String("device", "", "port I/O device (overrides the config file)")
		message    = flag.String("message", "", "message to transmit after the self-test (overrides the config file)")
		logLevel   = flag.String("log-level", "info", "log level: trace, debug, info, warn or error; trace logs every port access")
	)
	flag.Parse()

	logger := toollog.Init("serialprobe", *logLevel)

	cfg := defaultProbeConfig()
	if *configPath != "" {
		loaded, err := loadProbeConfig(*configPath)
		if err != nil {
			exit(err)
		}
		cfg = loaded
	}
	if *device != "" {
		cfg.Device = *device
	}
	if *message != "" {
		cfg.Message = *message
	}

	dev, err := openDevPort(cfg.Device)
	if err != nil {
		exit(err)
	}

	err = probe(dev, cfg, logger)
	dev.Close()
	if err != nil {
		exit(err)
	}
}

// probe initializes the UART described by cfg through port and transmits
// the configured message.
func probe(dev portDevice, cfg probeConfig, logger zerolog.Logger) error {
	var port serial.Port = dev
	if logger.GetLevel() <= zerolog.TraceLevel {
		port = tracePort{Port: dev, logger: logger}
	}

	ctrl, kerr := serial.NewController(port, cfg.UART)
	if kerr != nil {
		return kerr
	}

	div, _ := cfg.UART.Divisor()
	logger.Info().
		Str("base", fmt.Sprintf("%#x", cfg.UART.Base)).
		Uint32("baud", cfg.UART.BaudRate).
		Uint16("divisor", div).
		Msg("initializing uart")

	if kerr := ctrl.Init(); kerr != nil {
		if err := dev.Err(); err != nil {
			return err
		}
		return kerr
	}
	logger.Info().Stringer("state", ctrl.State()).Msg("loopback self-test passed")

	if cfg.Message == "" {
		return nil
	}

	n := ctrl.Transmit([]byte(cfg.Message), len(cfg.Message))
	if n == serial.WriteFailed {
		return serial.ErrSelfTestFailed
	}
	logger.Info().Int("bytes", n).Msg("message transmitted")

	return dev.Err()
}

// portDevice is a serial.Port backed by a device that can report access
// errors.
type portDevice interface {
	serial.Port
	Err() error
}
