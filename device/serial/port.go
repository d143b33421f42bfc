package serial

import "pmos/kernel/cpu"

// Port provides byte-wide access to the I/O port space.
type Port interface {
	// ReadPort reads a byte from the given I/O port.
	ReadPort(port uint16) uint8

	// WritePort writes a byte to the given I/O port.
	WritePort(port uint16, val uint8)
}

// CPUPort accesses I/O ports with the IN/OUT instructions.
type CPUPort struct{}

// ReadPort implements Port.
func (CPUPort) ReadPort(port uint16) uint8 {
	return cpu.PortReadByte(port)
}

// WritePort implements Port.
func (CPUPort) WritePort(port uint16, val uint8) {
	cpu.PortWriteByte(port, val)
}
