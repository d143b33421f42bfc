package kfmt

import "io"

// PrefixWriter wraps an io.Writer and emits Prefix at the start of every
// line written through it.
type PrefixWriter struct {
	// Sink receives the prefixed output.
	Sink io.Writer

	// Prefix is written before the first byte of each line.
	Prefix []byte

	midLine bool
}

// Write sends p to the sink, inserting the prefix at each line start. The
// returned count covers bytes of p only, not the injected prefixes.
func (w *PrefixWriter) Write(p []byte) (int, error) {
	var written int

	for len(p) > 0 {
		if !w.midLine {
			if _, err := w.Sink.Write(w.Prefix); err != nil {
				return written, err
			}
			w.midLine = true
		}

		end := len(p)
		for i, b := range p {
			if b == '\n' {
				end = i + 1
				w.midLine = false
				break
			}
		}

		n, err := w.Sink.Write(p[:end])
		written += n
		if err != nil {
			return written, err
		}
		p = p[end:]
	}

	return written, nil
}
