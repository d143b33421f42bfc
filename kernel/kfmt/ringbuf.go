package kfmt

import "io"

// ringBufferSize is the number of bytes of early output retained while no
// output sink is attached. When full, the oldest bytes are overwritten. It
// must be a power of 2.
const ringBufferSize = 2048

type ringBuffer struct {
	buffer [ringBufferSize]byte

	// head is the index of the oldest unread byte; count is the number of
	// unread bytes.
	head, count int
}

// Write stores p in the buffer, dropping the oldest data on overflow. It
// never fails.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.buffer[(rb.head+rb.count)&(ringBufferSize-1)] = b
		if rb.count == ringBufferSize {
			rb.head = (rb.head + 1) & (ringBufferSize - 1)
			continue
		}
		rb.count++
	}

	return len(p), nil
}

// Read drains up to len(p) bytes from the buffer and returns io.EOF once the
// buffer is empty.
func (rb *ringBuffer) Read(p []byte) (int, error) {
	if rb.count == 0 {
		return 0, io.EOF
	}

	n := 0
	for n < len(p) && rb.count > 0 {
		p[n] = rb.buffer[rb.head]
		rb.head = (rb.head + 1) & (ringBufferSize - 1)
		rb.count--
		n++
	}

	return n, nil
}
