//go:build 386 || amd64

// Package cpu exposes the privileged x86 instructions and port I/O primitives
// used during early boot. All functions are implemented in assembly.
package cpu

// EnableInterrupts enables maskable interrupt handling.
func EnableInterrupts()

// DisableInterrupts disables maskable interrupt handling.
func DisableInterrupts()

// Halt disables interrupts and stops instruction execution. Calls to Halt
// never return.
func Halt()

// LoadGDT loads the GDT register from the 6-byte pseudo-descriptor
// (16-bit limit followed by the 32-bit linear base address) located at
// gdtrAddr.
func LoadGDT(gdtrAddr uintptr)

// PortWriteByte writes a uint8 value to the requested port.
func PortWriteByte(port uint16, val uint8)

// PortReadByte reads a uint8 value from the requested port.
func PortReadByte(port uint16) uint8
