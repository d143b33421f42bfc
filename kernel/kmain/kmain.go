package kmain

import (
	"pmos/kernel"
	"pmos/kernel/gdt"
	"pmos/kernel/hal"
	"pmos/kernel/kfmt"
)

var (
	errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}

	// The following functions are replaced by tests.
	installGDTFn     = gdt.InstallFlatModel
	detectHardwareFn = hal.DetectHardware
	panicFn          = kfmt.Panic
)

// Kmain is the only Go symbol that is visible (exported) from the rt0
// initialization code. It is invoked by the rt0 assembly code once the CPU
// is in protected mode with a minimal stack, and brings up the descriptor
// table and the serial console before anything else runs.
//
// Kmain is not expected to return. If it does, the rt0 code will halt the CPU.
//
//go:noinline
func Kmain() {
	installGDTFn()

	reg := gdt.ActiveRegister()
	kfmt.Printf("[gdt] loaded %d descriptors at 0x%8x (limit %d)\n", gdt.EntryCount, reg.Offset, reg.Size)

	detectHardwareFn()

	if hal.ActiveConsole() == nil {
		kfmt.Printf("[kmain] no serial console available\n")
	}

	kfmt.Printf("pmos: boot complete\n")

	// Use kfmt.Panic instead of panic to prevent the compiler from
	// treating it as dead-code and eliminating it.
	panicFn(errKmainReturned)
}
