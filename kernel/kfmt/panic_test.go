package kfmt

import (
	"bytes"
	"errors"
	"io"
	"pmos/kernel"
	"pmos/kernel/cpu"
	"testing"
)

func TestPanic(t *testing.T) {
	defer func() {
		cpuHaltFn = cpu.Halt
		outputSink = nil
	}()

	io.Copy(io.Discard, &earlyBuf)

	var cpuHaltCalled bool
	cpuHaltFn = func() {
		cpuHaltCalled = true
	}

	specs := []struct {
		name   string
		arg    interface{}
		expMsg string
	}{
		{"with *kernel.Error", &kernel.Error{Module: "gdt", Message: "descriptor limit exceeds 20 bits"}, "[gdt] unrecoverable error: descriptor limit exceeds 20 bits\n"},
		{"with error", errors.New("go error"), "[rt] unrecoverable error: go error\n"},
		{"with string", "string error", "[rt] unrecoverable error: string error\n"},
		{"without error", nil, ""},
	}

	for _, spec := range specs {
		t.Run(spec.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetOutputSink(&buf)
			cpuHaltCalled = false

			Panic(spec.arg)

			exp := "\n-----------------------------------\n" + spec.expMsg + "*** kernel panic: system halted ***\n-----------------------------------\n"
			if got := buf.String(); got != exp {
				t.Fatalf("expected to get:\n%q\ngot:\n%q", exp, got)
			}

			if !cpuHaltCalled {
				t.Fatal("expected cpu.Halt() to be called by Panic")
			}
		})
	}
}
