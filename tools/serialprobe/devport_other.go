//go:build !linux

package main

import (
	"errors"
	"runtime"
)

type devPort struct{}

func openDevPort(path string) (*devPort, error) {
	return nil, errors.New("port access through " + path + " is not supported on " + runtime.GOOS)
}

func (*devPort) ReadPort(uint16) uint8   { return 0xff }
func (*devPort) WritePort(uint16, uint8) {}
func (*devPort) Err() error              { return nil }
func (*devPort) Close() error            { return nil }
