package serial

import (
	"bytes"
	"testing"
)

type portWrite struct {
	port uint16
	val  uint8
}

// mockUART emulates the registers of a 16550 that are touched by the
// controller and records every port access.
type mockUART struct {
	base uint16

	writes    []portWrite
	lsrReads  int
	dataReads int

	mcr      uint8
	lastData uint8
	sent     []byte

	// echo maps the byte written in loopback mode to the byte read back.
	echo func(uint8) uint8

	// busyPolls is the number of line status reads that report the
	// transmitter as busy before it becomes ready.
	busyPolls int
}

func newMockUART() *mockUART {
	return &mockUART{
		base: COM1,
		echo: func(b uint8) uint8 { return b },
	}
}

func (m *mockUART) ReadPort(port uint16) uint8 {
	switch port - m.base {
	case regData:
		m.dataReads++
		if m.mcr&mcrLoopback != 0 {
			return m.echo(m.lastData)
		}
		return 0
	case regLineStatus:
		m.lsrReads++
		if m.busyPolls > 0 {
			m.busyPolls--
			return 0
		}
		return lsrTransmitterEmpty
	}
	return 0
}

func (m *mockUART) WritePort(port uint16, val uint8) {
	m.writes = append(m.writes, portWrite{port, val})

	switch port - m.base {
	case regData:
		m.lastData = val
		if m.mcr&mcrLoopback == 0 {
			m.sent = append(m.sent, val)
		}
	case regModemControl:
		m.mcr = val
	}
}

func newTestController(t *testing.T, port Port) *Controller {
	ctrl, err := NewController(port, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return ctrl
}

func TestConfigDivisor(t *testing.T) {
	specs := []struct {
		cfg    Config
		exp    uint16
		expErr bool
	}{
		{DefaultConfig(), 3, false},
		{Config{ClockRate: 115200, BaudRate: 115200}, 1, false},
		{Config{ClockRate: 115200, BaudRate: 9600}, 12, false},
		{Config{ClockRate: 115200, BaudRate: 50}, 2304, false},
		{Config{ClockRate: 115200, BaudRate: 56000}, 2, false},
		{Config{ClockRate: 115200, BaudRate: 0}, 0, true},
		{Config{ClockRate: 115200, BaudRate: 230400}, 0, true},
		{Config{ClockRate: 0xffffffff, BaudRate: 1}, 0, true},
	}

	for specIndex, spec := range specs {
		got, err := spec.cfg.Divisor()
		if spec.expErr {
			if err != errInvalidBaudRate {
				t.Errorf("[spec %d] expected error %v; got %v", specIndex, errInvalidBaudRate, err)
			}
			continue
		}

		if err != nil {
			t.Errorf("[spec %d] unexpected error: %v", specIndex, err)
			continue
		}

		if got != spec.exp {
			t.Errorf("[spec %d] expected divisor %d; got %d", specIndex, spec.exp, got)
		}
	}

	if _, err := NewController(newMockUART(), Config{Base: COM1, ClockRate: 115200}); err != errInvalidBaudRate {
		t.Fatalf("expected NewController to reject a zero baud rate; got %v", err)
	}
}

func TestInit(t *testing.T) {
	port := newMockUART()
	ctrl := newTestController(t, port)

	if got := ctrl.State(); got != StateUninitialized {
		t.Fatalf("expected initial state %s; got %s", StateUninitialized, got)
	}

	if err := ctrl.Init(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	exp := []portWrite{
		// configuration
		{COM1 + 1, 0x00},
		{COM1 + 3, 0x80},
		{COM1 + 1, 0x00},
		{COM1 + 0, 0x03},
		{COM1 + 3, 0x03},
		{COM1 + 2, 0xc7},
		{COM1 + 1, 0x02},
		{COM1 + 4, 0x0b},
		// self-test
		{COM1 + 4, 0x1b},
		{COM1 + 0, 0xae},
		{COM1 + 4, 0x0b},
	}

	if len(port.writes) != len(exp) {
		t.Fatalf("expected %d port writes; got %d: %v", len(exp), len(port.writes), port.writes)
	}

	for i, w := range exp {
		if port.writes[i] != w {
			t.Errorf("write %d: expected 0x%02x to port 0x%x; got 0x%02x to port 0x%x", i, w.val, w.port, port.writes[i].val, port.writes[i].port)
		}
	}

	if got := ctrl.State(); got != StateReady {
		t.Fatalf("expected state %s; got %s", StateReady, got)
	}

	if len(port.sent) != 0 {
		t.Fatalf("expected no bytes on the line; got % x", port.sent)
	}
}

func TestInitWritesDivisorHighByteFirst(t *testing.T) {
	port := newMockUART()
	ctrl, err := NewController(port, Config{Base: COM1, ClockRate: 115200, BaudRate: 50})
	if err != nil {
		t.Fatal(err)
	}

	ctrl.Init()

	// divisor 2304 = 0x0900
	if exp := (portWrite{COM1 + 1, 0x09}); port.writes[2] != exp {
		t.Errorf("expected divisor high byte write %v; got %v", exp, port.writes[2])
	}
	if exp := (portWrite{COM1, 0x00}); port.writes[3] != exp {
		t.Errorf("expected divisor low byte write %v; got %v", exp, port.writes[3])
	}
}

func TestSelfTest(t *testing.T) {
	t.Run("loopback echoes", func(t *testing.T) {
		port := newMockUART()
		ctrl := newTestController(t, port)

		if !ctrl.SelfTest() {
			t.Fatal("expected self-test to pass")
		}

		if port.mcr != mcrNormal {
			t.Fatalf("expected modem control to be restored to 0x%02x; got 0x%02x", mcrNormal, port.mcr)
		}
	})

	t.Run("loopback corrupts data", func(t *testing.T) {
		port := newMockUART()
		port.echo = func(b uint8) uint8 { return ^b }
		ctrl := newTestController(t, port)

		if ctrl.SelfTest() {
			t.Fatal("expected self-test to fail")
		}

		if port.mcr != mcrLoopTest {
			t.Fatalf("expected modem control to stay in loopback mode (0x%02x); got 0x%02x", mcrLoopTest, port.mcr)
		}
	})
}

func TestInitSelfTestFailure(t *testing.T) {
	port := newMockUART()
	port.echo = func(uint8) uint8 { return 0xff }
	ctrl := newTestController(t, port)

	if err := ctrl.Init(); err != ErrSelfTestFailed {
		t.Fatalf("expected error %v; got %v", ErrSelfTestFailed, err)
	}

	if got := ctrl.State(); got != StateFailed {
		t.Fatalf("expected state %s; got %s", StateFailed, got)
	}

	if port.dataReads != 1 {
		t.Fatalf("expected the self-test to run exactly once; got %d reads", port.dataReads)
	}
}

func TestTransmit(t *testing.T) {
	payload := []byte("GDT loaded, 5 entries")

	specs := []struct {
		count       int
		busyPolls   int
		exp         int
		expLSRReads int
	}{
		{0, 0, 0, 0},
		{1, 0, 1, 1},
		{16, 0, 16, 1},
		{17, 0, 17, 2},
		{20, 0, 20, 2},
		{20, 3, 20, 5},
		{len(payload), 0, len(payload), 2},
		{100, 0, len(payload), 2},
	}

	for specIndex, spec := range specs {
		port := newMockUART()
		port.busyPolls = spec.busyPolls
		ctrl := newTestController(t, port)

		if got := ctrl.Transmit(payload, spec.count); got != spec.exp {
			t.Errorf("[spec %d] expected Transmit to return %d; got %d", specIndex, spec.exp, got)
		}

		if port.lsrReads != spec.expLSRReads {
			t.Errorf("[spec %d] expected %d readiness checks; got %d", specIndex, spec.expLSRReads, port.lsrReads)
		}

		if !bytes.Equal(port.sent, payload[:spec.exp]) {
			t.Errorf("[spec %d] expected line output %q; got %q", specIndex, payload[:spec.exp], port.sent)
		}
	}
}

func TestTransmitZeroCountTouchesNoPorts(t *testing.T) {
	port := newMockUART()
	ctrl := newTestController(t, port)

	if got := ctrl.Transmit([]byte("unused"), 0); got != 0 {
		t.Fatalf("expected Transmit to return 0; got %d", got)
	}

	if len(port.writes) != 0 || port.lsrReads != 0 || port.dataReads != 0 {
		t.Fatalf("expected no port access; got %d writes, %d status reads, %d data reads", len(port.writes), port.lsrReads, port.dataReads)
	}
}

func TestTransmitChunksOnFIFOSize(t *testing.T) {
	port := newMockUART()
	ctrl := newTestController(t, port)

	// Every readiness check must be followed by at most FIFOSize data
	// writes.
	var (
		burst    int
		maxBurst int
		inner    = port
	)
	wrapped := &burstTracker{mockUART: inner, onStatus: func() { burst = 0 }, onData: func() {
		burst++
		if burst > maxBurst {
			maxBurst = burst
		}
	}}
	ctrl.port = wrapped

	data := bytes.Repeat([]byte{'x'}, 3*FIFOSize+5)
	if got := ctrl.Transmit(data, len(data)); got != len(data) {
		t.Fatalf("expected %d bytes to be sent; got %d", len(data), got)
	}

	if maxBurst != FIFOSize {
		t.Fatalf("expected bursts of at most %d bytes; got %d", FIFOSize, maxBurst)
	}

	if exp := 4; inner.lsrReads != exp {
		t.Fatalf("expected %d readiness checks; got %d", exp, inner.lsrReads)
	}
}

type burstTracker struct {
	*mockUART
	onStatus func()
	onData   func()
}

func (b *burstTracker) ReadPort(port uint16) uint8 {
	if port-b.base == regLineStatus {
		b.onStatus()
	}
	return b.mockUART.ReadPort(port)
}

func (b *burstTracker) WritePort(port uint16, val uint8) {
	if port-b.base == regData && b.mcr&mcrLoopback == 0 {
		b.onData()
	}
	b.mockUART.WritePort(port, val)
}

func TestTransmitSelfTestFailure(t *testing.T) {
	port := newMockUART()
	port.echo = func(b uint8) uint8 { return b + 1 }
	ctrl := newTestController(t, port)

	if got := ctrl.Transmit([]byte("lost"), 4); got != WriteFailed {
		t.Fatalf("expected Transmit to return %d; got %d", WriteFailed, got)
	}

	if len(port.sent) != 0 {
		t.Fatalf("expected nothing to be sent; got %q", port.sent)
	}

	if port.lsrReads != 0 {
		t.Fatalf("expected no readiness checks; got %d", port.lsrReads)
	}
}

func TestWrite(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		port := newMockUART()
		ctrl := newTestController(t, port)

		n, err := ctrl.Write([]byte("hello\n"))
		if err != nil {
			t.Fatal(err)
		}
		if n != 6 {
			t.Fatalf("expected 6 bytes written; got %d", n)
		}

		if err := ctrl.WriteByte('!'); err != nil {
			t.Fatal(err)
		}

		if exp, got := "hello\n!", string(port.sent); got != exp {
			t.Fatalf("expected line output %q; got %q", exp, got)
		}
	})

	t.Run("self-test failure", func(t *testing.T) {
		port := newMockUART()
		port.echo = func(uint8) uint8 { return 0 }
		ctrl := newTestController(t, port)

		n, err := ctrl.Write([]byte("hello"))
		if err != ErrSelfTestFailed {
			t.Fatalf("expected error %v; got %v", ErrSelfTestFailed, err)
		}
		if n != 0 {
			t.Fatalf("expected 0 bytes written; got %d", n)
		}

		if err := ctrl.WriteByte('!'); err != ErrSelfTestFailed {
			t.Fatalf("expected error %v; got %v", ErrSelfTestFailed, err)
		}
	})
}

func TestStateString(t *testing.T) {
	specs := []struct {
		state State
		exp   string
	}{
		{StateUninitialized, "uninitialized"},
		{StateConfiguring, "configuring"},
		{StateSelfTesting, "self-testing"},
		{StateReady, "ready"},
		{StateFailed, "failed"},
		{State(42), "unknown"},
	}

	for specIndex, spec := range specs {
		if got := spec.state.String(); got != spec.exp {
			t.Errorf("[spec %d] expected %q; got %q", specIndex, spec.exp, got)
		}
	}
}
