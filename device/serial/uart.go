// Package serial drives a 16550-compatible UART used as the kernel's
// diagnostic console.
package serial

import "pmos/kernel"

// COM1 is the conventional I/O base address of the first serial port.
const COM1 uint16 = 0x3f8

// Register offsets from the port base. The divisor latch registers overlay
// the data and interrupt enable registers while lcrDivisorLatch is set.
const (
	regData            = 0
	regDivisorLow      = 0
	regInterruptEnable = 1
	regDivisorHigh     = 1
	regFIFOControl     = 2
	regLineControl     = 3
	regModemControl    = 4
	regLineStatus      = 5
)

// Interrupt enable register bits.
const (
	ierNone             = 0x00
	ierTransmitterEmpty = 0x02
)

// Line control register bits.
const (
	lcrWordLength8  = 0x03
	lcrStopBits1    = 0x00
	lcrNoParity     = 0x00
	lcrDivisorLatch = 0x80

	lcr8N1 = lcrWordLength8 | lcrNoParity | lcrStopBits1
)

// FIFO control register bits.
const (
	fcrEnable    = 0x01
	fcrClearRX   = 0x02
	fcrClearTX   = 0x04
	fcrTrigger14 = 0xc0
)

// Modem control register bits.
const (
	mcrDTR      = 0x01
	mcrRTS      = 0x02
	mcrOut2     = 0x08 // gates the UART interrupt line to the PIC
	mcrLoopback = 0x10

	mcrNormal   = mcrDTR | mcrRTS | mcrOut2
	mcrLoopTest = mcrNormal | mcrLoopback
)

// Line status register bits.
const (
	lsrTransmitterEmpty = 0x20
)

const (
	// FIFOSize is the depth of the transmit FIFO.
	FIFOSize = 16

	// selfTestByte is sent through the loopback path by SelfTest.
	selfTestByte = 0xae

	// DefaultClockRate is the UART input clock divided by 16.
	DefaultClockRate = 115200

	// DefaultBaudRate is the line speed used by DefaultConfig.
	DefaultBaudRate = 38400

	// WriteFailed is returned by Transmit when the self-test fails.
	WriteFailed = -1
)

var (
	// ErrSelfTestFailed is returned when the loopback self-test does not
	// read back the byte it sent.
	ErrSelfTestFailed = &kernel.Error{Module: "serial", Message: "loopback self-test failed"}

	errInvalidBaudRate = &kernel.Error{Module: "serial", Message: "baud rate yields a divisor outside 1-65535"}
)

// State describes the controller's initialization progress.
type State uint8

// The list of supported controller states.
const (
	StateUninitialized State = iota
	StateConfiguring
	StateSelfTesting
	StateReady
	StateFailed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConfiguring:
		return "configuring"
	case StateSelfTesting:
		return "self-testing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Config describes the port and line speed of a UART.
type Config struct {
	// Base is the I/O port of the data register.
	Base uint16

	// ClockRate is the UART reference clock divided by 16.
	ClockRate uint32

	// BaudRate is the requested line speed.
	BaudRate uint32
}

// DefaultConfig returns the configuration for COM1 at 38400 baud.
func DefaultConfig() Config {
	return Config{
		Base:      COM1,
		ClockRate: DefaultClockRate,
		BaudRate:  DefaultBaudRate,
	}
}

// Divisor returns the baud rate divisor, ClockRate/BaudRate rounded down.
func (cfg Config) Divisor() (uint16, *kernel.Error) {
	if cfg.BaudRate == 0 {
		return 0, errInvalidBaudRate
	}

	div := cfg.ClockRate / cfg.BaudRate
	if div == 0 || div > 0xffff {
		return 0, errInvalidBaudRate
	}

	return uint16(div), nil
}

// Controller drives a UART through a Port. Apart from the initialization
// state it keeps no copy of the device state; readiness is always read back
// from the line status register.
//
// Every wait performed by the controller is a busy loop on a status bit
// without a timeout. A device that never reports ready blocks the caller
// forever.
type Controller struct {
	port    Port
	cfg     Config
	divisor uint16
	state   State
}

// NewController returns a controller for the UART described by cfg.
func NewController(port Port, cfg Config) (*Controller, *kernel.Error) {
	div, err := cfg.Divisor()
	if err != nil {
		return nil, err
	}

	return &Controller{port: port, cfg: cfg, divisor: div}, nil
}

// Config returns the controller configuration.
func (c *Controller) Config() Config { return c.cfg }

// State returns the controller state.
func (c *Controller) State() State { return c.state }

// Init programs the line speed, 8N1 framing, FIFOs and modem control lines
// and then runs the loopback self-test once. It returns ErrSelfTestFailed
// if the self-test does not pass.
func (c *Controller) Init() *kernel.Error {
	c.state = StateConfiguring

	c.out(regInterruptEnable, ierNone)
	c.out(regLineControl, lcrDivisorLatch)
	c.out(regDivisorHigh, uint8(c.divisor>>8))
	c.out(regDivisorLow, uint8(c.divisor))
	c.out(regLineControl, lcr8N1)
	c.out(regFIFOControl, fcrEnable|fcrClearRX|fcrClearTX|fcrTrigger14)
	c.out(regInterruptEnable, ierTransmitterEmpty)
	c.out(regModemControl, mcrNormal)

	c.state = StateSelfTesting
	if !c.SelfTest() {
		c.state = StateFailed
		return ErrSelfTestFailed
	}

	c.state = StateReady
	return nil
}

// SelfTest switches the UART to loopback mode, sends a test byte and checks
// that it is received. On success the UART is returned to normal operation;
// on failure it is left in loopback mode.
func (c *Controller) SelfTest() bool {
	c.out(regModemControl, mcrLoopTest)
	c.out(regData, selfTestByte)

	if c.in(regData) != selfTestByte {
		return false
	}

	c.out(regModemControl, mcrNormal)
	return true
}

// Transmit sends the first count bytes of buf and returns count. If the
// self-test that precedes every transmission fails, nothing is sent and
// WriteFailed is returned. A count of zero returns immediately without
// accessing the device. count is clipped to len(buf).
func (c *Controller) Transmit(buf []byte, count int) int {
	if count > len(buf) {
		count = len(buf)
	}

	if count <= 0 {
		return 0
	}

	if !c.SelfTest() {
		return WriteFailed
	}

	sent := 0
	for sent < count {
		for !c.transmitterEmpty() {
		}

		for burst := 0; burst < FIFOSize && sent < count; burst++ {
			c.out(regData, buf[sent])
			sent++
		}
	}

	return sent
}

// Write implements io.Writer on top of Transmit. It returns
// ErrSelfTestFailed when the device fails its self-test.
func (c *Controller) Write(p []byte) (int, error) {
	if n := c.Transmit(p, len(p)); n != WriteFailed {
		return n, nil
	}

	return 0, ErrSelfTestFailed
}

// WriteByte implements io.ByteWriter.
func (c *Controller) WriteByte(b byte) error {
	_, err := c.Write([]byte{b})
	return err
}

func (c *Controller) transmitterEmpty() bool {
	return c.in(regLineStatus)&lsrTransmitterEmpty != 0
}

func (c *Controller) in(reg uint16) uint8 {
	return c.port.ReadPort(c.cfg.Base + reg)
}

func (c *Controller) out(reg uint16, val uint8) {
	c.port.WritePort(c.cfg.Base+reg, val)
}
