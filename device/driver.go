// Package device defines the interface implemented by device drivers and
// the registry the hal package probes at boot.
package device

import (
	"io"
	"pmos/kernel"
)

// Driver is an interface implemented by all drivers.
type Driver interface {
	// DriverName returns the name of the driver.
	DriverName() string

	// DriverVersion returns the driver version.
	DriverVersion() (major uint16, minor uint16, patch uint16)

	// DriverInit initializes the device driver. Diagnostic output should
	// be written to the supplied io.Writer via kfmt.Fprintf.
	DriverInit(io.Writer) *kernel.Error
}

// ProbeFn is a function that scans for the presence of a particular
// piece of hardware and returns a driver for it or nil if the hardware
// is not present.
type ProbeFn func() Driver

// DetectOrder specifies when a driver is probed relative to the others.
// Drivers with lower values are probed first.
type DetectOrder int8

const (
	// DetectOrderEarly is used by drivers whose output is needed while
	// the remaining drivers initialize, such as the serial console.
	DetectOrderEarly DetectOrder = -128

	// DetectOrderNormal is the default detection order.
	DetectOrderNormal DetectOrder = 0

	// DetectOrderLast is used by drivers that depend on all others.
	DetectOrderLast DetectOrder = 127
)

// DriverInfo describes a registered driver.
type DriverInfo struct {
	// Order controls when the driver is probed.
	Order DetectOrder

	// Probe detects the hardware and returns its driver.
	Probe ProbeFn
}

// DriverInfoList is a list of registered drivers that implements
// sort.Interface.
type DriverInfoList []*DriverInfo

// Len returns the length of the driver info list.
func (l DriverInfoList) Len() int { return len(l) }

// Swap exchanges 2 elements in the driver info list.
func (l DriverInfoList) Swap(i, j int) { l[i], l[j] = l[j], l[i] }

// Less compares 2 elements of the driver info list.
func (l DriverInfoList) Less(i, j int) bool { return l[i].Order < l[j].Order }

var registeredDrivers DriverInfoList

// RegisterDriver adds the supplied driver info to the registry. Drivers
// normally call it from an init block.
func RegisterDriver(info *DriverInfo) {
	registeredDrivers = append(registeredDrivers, info)
}

// DriverList returns the registered drivers.
func DriverList() DriverInfoList {
	return registeredDrivers
}
