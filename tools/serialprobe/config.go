package main

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"pmos/device/serial"
)

const (
	defaultDevice  = "/dev/port"
	defaultMessage = "serialprobe: loopback ok\r\n"
)

type fileConfig struct {
	Device    string `toml:"device"`
	Base      uint16 `toml:"base"`
	ClockRate uint32 `toml:"clock_rate"`
	BaudRate  uint32 `toml:"baud_rate"`
	Message   string `toml:"message"`
}

// probeConfig selects the UART to drive and what to send through it.
type probeConfig struct {
	Device  string
	UART    serial.Config
	Message string
}

func defaultProbeConfig() probeConfig {
	return probeConfig{
		Device:  defaultDevice,
		UART:    serial.DefaultConfig(),
		Message: defaultMessage,
	}
}

// loadProbeConfig overlays the keys defined in the TOML file at path on top
// of the defaults.
func loadProbeConfig(path string) (probeConfig, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return probeConfig{}, fmt.Errorf("load probe config: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return probeConfig{}, fmt.Errorf("probe config %s: unknown key %q", path, undecoded[0].String())
	}

	return probeConfigFrom(raw, meta)
}

func probeConfigFrom(raw fileConfig, meta toml.MetaData) (probeConfig, error) {
	cfg := defaultProbeConfig()

	if meta.IsDefined("device") {
		cfg.Device = raw.Device
	}
	if meta.IsDefined("base") {
		cfg.UART.Base = raw.Base
	}
	if meta.IsDefined("clock_rate") {
		cfg.UART.ClockRate = raw.ClockRate
	}
	if meta.IsDefined("baud_rate") {
		cfg.UART.BaudRate = raw.BaudRate
	}
	if meta.IsDefined("message") {
		cfg.Message = raw.Message
	}

	if cfg.Device == "" {
		return probeConfig{}, fmt.Errorf("device must not be empty")
	}

	if _, err := cfg.UART.Divisor(); err != nil {
		return probeConfig{}, fmt.Errorf("clock_rate %d / baud_rate %d: %w", cfg.UART.ClockRate, cfg.UART.BaudRate, err)
	}

	return cfg, nil
}
