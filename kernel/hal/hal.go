// Package hal probes the registered device drivers and wires the devices it
// finds into the kernel.
package hal

import (
	"bytes"
	"pmos/device"
	"pmos/device/serial"
	"pmos/kernel/kfmt"
	"sort"
)

// managedDevices contains the devices discovered by the HAL.
type managedDevices struct {
	activeConsole *serial.Controller

	// activeDrivers tracks all initialized device drivers.
	activeDrivers []device.Driver
}

var (
	devices managedDevices
	strBuf  bytes.Buffer
)

// ActiveConsole returns the serial port that receives kernel output or nil
// if no serial port passed its self-test.
func ActiveConsole() *serial.Controller {
	return devices.activeConsole
}

// DetectHardware probes for hardware devices and initializes the appropriate
// drivers.
func DetectHardware() {
	drivers := device.DriverList()
	sort.Sort(drivers)

	probe(drivers)
}

// probe executes the probe function for each driver and invokes
// onDriverInit for each successfully initialized driver. A driver that fails
// to initialize is reported and skipped.
func probe(driverInfoList device.DriverInfoList) {
	var w = kfmt.PrefixWriter{Sink: kfmt.Output()}

	for _, info := range driverInfoList {
		drv := info.Probe()
		if drv == nil {
			continue
		}

		strBuf.Reset()
		major, minor, patch := drv.DriverVersion()
		kfmt.Fprintf(&strBuf, "[hal] %s(%d.%d.%d): ", drv.DriverName(), major, minor, patch)
		w.Prefix = strBuf.Bytes()

		if err := drv.DriverInit(&w); err != nil {
			kfmt.Fprintf(&w, "init failed: %s\n", err.Message)
			continue
		}

		onDriverInit(drv)
		kfmt.Fprintf(&w, "initialized\n")
		devices.activeDrivers = append(devices.activeDrivers, drv)
	}
}

// onDriverInit is invoked by probe() whenever a piece of hardware is detected
// and successfully initialized. The first serial port becomes the kernel
// console and receives any output buffered so far.
func onDriverInit(drv device.Driver) {
	switch drvImpl := drv.(type) {
	case *serial.Controller:
		if devices.activeConsole != nil {
			return
		}

		devices.activeConsole = drvImpl
		kfmt.SetOutputSink(drvImpl)
	}
}
