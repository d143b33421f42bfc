// Package kfmt implements the kernel's formatted output. Until a console sink
// is attached (normally the serial line), everything printed is kept in a
// ring buffer and replayed when SetOutputSink is called.
package kfmt

import "io"

// numBufSize is large enough for a 64-bit value printed in base 8 plus a
// sign.
const numBufSize = 24

var (
	errMissingArg   = []byte("%!(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")
	hexDigits       = "0123456789abcdef"

	numBuf [numBufSize]byte

	// oneByte is a shared buffer for emitting single characters.
	oneByte = []byte{0}

	// earlyBuf collects Printf output produced before an output sink is set.
	earlyBuf ringBuffer

	// outputSink receives Printf output. When nil, output goes to earlyBuf.
	outputSink io.Writer
)

// SetOutputSink redirects Printf output to w and flushes any output that was
// buffered while no sink was available.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		io.Copy(w, &earlyBuf)
	}
}

// GetOutputSink returns the current Printf target or nil if output is still
// being buffered.
func GetOutputSink() io.Writer {
	return outputSink
}

// Output returns an io.Writer that forwards each write to the output sink
// active at the time of the write, or to the early buffer if there is none.
func Output() io.Writer {
	return outputProxy{}
}

type outputProxy struct{}

func (outputProxy) Write(p []byte) (int, error) {
	write(outputSink, p)
	return len(p), nil
}

// Printf writes formatted output to the active output sink. It supports a
// subset of the fmt verbs:
//
//	%s  string or []byte
//	%d  base 10 integer, space padded
//	%x  base 16 integer, zero padded
//	%o  base 8 integer, zero padded
//	%c  single byte
//	%t  bool
//
// A decimal width may precede the verb. Unlike fmt, Printf does not consult
// the Stringer or error interfaces and does not depend on reflection so it
// can run before the Go runtime is fully initialized.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Fprintf behaves like Printf but writes to w. A nil w selects the early
// output buffer.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		argIndex int
		width    int
	)

	for i := 0; i < len(format); i++ {
		ch := format[i]
		if ch != '%' {
			writeByte(w, ch)
			continue
		}

		width = 0
		for i++; i < len(format) && format[i] >= '0' && format[i] <= '9'; i++ {
			width = width*10 + int(format[i]-'0')
		}

		if i == len(format) {
			write(w, errNoVerb)
			break
		}

		verb := format[i]
		if verb == '%' {
			writeByte(w, '%')
			continue
		}

		if argIndex >= len(args) {
			write(w, errMissingArg)
			continue
		}

		arg := args[argIndex]
		argIndex++

		switch verb {
		case 'd':
			fmtInt(w, arg, 10, width)
		case 'x':
			fmtInt(w, arg, 16, width)
		case 'o':
			fmtInt(w, arg, 8, width)
		case 's':
			fmtString(w, arg, width)
		case 'c':
			fmtChar(w, arg)
		case 't':
			fmtBool(w, arg)
		default:
			write(w, errNoVerb)
		}
	}

	for ; argIndex < len(args); argIndex++ {
		write(w, errExtraArg)
	}
}

func fmtBool(w io.Writer, v interface{}) {
	b, ok := v.(bool)
	switch {
	case !ok:
		write(w, errWrongArgType)
	case b:
		write(w, trueValue)
	default:
		write(w, falseValue)
	}
}

func fmtChar(w io.Writer, v interface{}) {
	switch c := v.(type) {
	case byte:
		writeByte(w, c)
	case rune:
		writeByte(w, byte(c))
	default:
		write(w, errWrongArgType)
	}
}

// fmtString writes a string or byte slice left-padded with spaces to width.
func fmtString(w io.Writer, v interface{}, width int) {
	switch s := v.(type) {
	case string:
		pad(w, ' ', width-len(s))
		for i := 0; i < len(s); i++ {
			writeByte(w, s[i])
		}
	case []byte:
		pad(w, ' ', width-len(s))
		write(w, s)
	default:
		write(w, errWrongArgType)
	}
}

// fmtInt writes v in the given base. Base 10 output is padded with spaces,
// other bases with zeroes.
func fmtInt(w io.Writer, v interface{}, base uint64, width int) {
	var (
		val uint64
		neg bool
	)

	switch n := v.(type) {
	case uint8:
		val = uint64(n)
	case uint16:
		val = uint64(n)
	case uint32:
		val = uint64(n)
	case uint64:
		val = n
	case uint:
		val = uint64(n)
	case uintptr:
		val = uint64(n)
	case int8:
		val, neg = abs(int64(n))
	case int16:
		val, neg = abs(int64(n))
	case int32:
		val, neg = abs(int64(n))
	case int64:
		val, neg = abs(n)
	case int:
		val, neg = abs(int64(n))
	default:
		write(w, errWrongArgType)
		return
	}

	// Digits are produced right to left.
	end := len(numBuf)
	start := end
	for {
		start--
		numBuf[start] = hexDigits[val%base]
		val /= base
		if val == 0 {
			break
		}
	}

	digits := end - start
	if neg {
		digits++
	}

	switch {
	case base == 10:
		pad(w, ' ', width-digits)
		if neg {
			writeByte(w, '-')
		}
	default:
		if neg {
			writeByte(w, '-')
		}
		pad(w, '0', width-digits)
	}

	write(w, numBuf[start:end])
}

func abs(v int64) (uint64, bool) {
	if v < 0 {
		return uint64(-v), true
	}
	return uint64(v), false
}

func pad(w io.Writer, ch byte, count int) {
	for ; count > 0; count-- {
		writeByte(w, ch)
	}
}

func writeByte(w io.Writer, b byte) {
	oneByte[0] = b
	write(w, oneByte)
}

func write(w io.Writer, p []byte) {
	if w == nil {
		earlyBuf.Write(p)
		return
	}

	w.Write(p)
}
