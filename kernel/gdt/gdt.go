package gdt

import (
	"pmos/kernel/cpu"
	"pmos/kernel/kfmt"
	"unsafe"
)

var (
	// The following functions are replaced by tests.
	buildTableFn        = BuildFlatModel
	disableInterruptsFn = cpu.DisableInterrupts
	loadGDTFn           = cpu.LoadGDT
	panicFn             = kfmt.Panic

	// activeTable and activeRegister hold the installed table and the
	// GDTR value pointing at it. The CPU keeps reading descriptors from
	// activeTable whenever a segment register is loaded, so neither is
	// modified after InstallFlatModel.
	activeTable    Table
	activeRegister [RegisterSize]byte
)

// InstallFlatModel builds the flat-model descriptor table and loads it into
// the GDTR. Interrupts are disabled before the table is loaded and are left
// disabled. Failing to build the table is fatal and happens before any
// privileged instruction is issued.
//
// InstallFlatModel must be called exactly once during boot.
func InstallFlatModel() {
	table, err := buildTableFn()
	if err != nil {
		panicFn(err)
		return
	}

	disableInterruptsFn()

	activeTable = table
	activeRegister = RegisterFor(&activeTable).Encode()
	loadGDTFn(uintptr(unsafe.Pointer(&activeRegister)))
}

// ActiveRegister returns the GDTR value loaded by InstallFlatModel.
func ActiveRegister() Register {
	return DecodeRegister(activeRegister)
}
