package serial

import (
	"io"
	"pmos/device"
	"pmos/kernel"
	"pmos/kernel/kfmt"
)

// DriverName returns the name of the driver.
func (c *Controller) DriverName() string {
	return "serial"
}

// DriverVersion returns the driver version.
func (c *Controller) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit configures the UART and runs its self-test.
func (c *Controller) DriverInit(w io.Writer) *kernel.Error {
	kfmt.Fprintf(w, "port 0x%x, %d baud (divisor %d)\n", c.cfg.Base, c.cfg.BaudRate, c.divisor)
	return c.Init()
}

var (
	// newPortFn is replaced by tests.
	newPortFn = func() Port { return CPUPort{} }
)

// probeForCOM1 returns a driver for the first serial port.
func probeForCOM1() device.Driver {
	ctrl, err := NewController(newPortFn(), DefaultConfig())
	if err != nil {
		return nil
	}

	return ctrl
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderEarly,
		Probe: probeForCOM1,
	})
}
