package main

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// floatingBus is what an ISA read returns when nothing drives the bus. It
// is also reported for failed reads so that status polls terminate and the
// loopback check fails.
const floatingBus = 0xff

// devPort accesses the I/O port space through /dev/port, where the file
// offset selects the port.
type devPort struct {
	fd  int
	err error
}

func openDevPort(path string) (*devPort, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &devPort{fd: fd}, nil
}

func (p *devPort) ReadPort(port uint16) uint8 {
	var b [1]byte
	if _, err := unix.Pread(p.fd, b[:], int64(port)); err != nil {
		p.setErr(fmt.Errorf("in 0x%x: %w", port, err))
		return floatingBus
	}
	return b[0]
}

func (p *devPort) WritePort(port uint16, val uint8) {
	b := [1]byte{val}
	if _, err := unix.Pwrite(p.fd, b[:], int64(port)); err != nil {
		p.setErr(fmt.Errorf("out 0x%x: %w", port, err))
	}
}

func (p *devPort) setErr(err error) {
	if p.err == nil {
		p.err = err
	}
}

// Err returns the first access error.
func (p *devPort) Err() error {
	return p.err
}

func (p *devPort) Close() error {
	return unix.Close(p.fd)
}
