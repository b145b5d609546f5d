// Package stream provides the byte sinks a reply is produced into.
//
// Replies are encoded twice: a dry run against a Counter sizes the
// datagram, then the identical encoding runs against a fixed Buffer of
// exactly that size. Both sinks implement Sink, so the encoding path
// cannot tell the passes apart; any divergence between them is a bug and
// surfaces as a Buffer overflow rather than silent truncation.
//
// Sinks are sticky-error: after the first failed operation all further
// writes are ignored and Err reports the original cause. Callers check
// Err once at the end instead of after every write.
package stream

import (
	"errors"
	"fmt"
)

// ErrOverflow is the sentinel for writes outside a sink's bounds.
var ErrOverflow = errors.New("stream overflow")

// Sink is the write surface reply encoding targets. Append adds bytes at
// the end; PatchAt overwrites bytes that were already appended, which is
// how a provisional header gets its final counts. Neither returns an
// error; failures latch and are reported by Err.
type Sink interface {
	Append(p []byte)
	PatchAt(off int, p []byte)
	Len() int
	Err() error
}

// Counter measures what a real encoding would produce without storing a
// byte of it. Append only accumulates length; PatchAt only validates its
// range, since patching never changes a sink's size.
type Counter struct {
	n   int
	err error
}

func (c *Counter) Append(p []byte) {
	if c.err != nil {
		return
	}
	c.n += len(p)
}

func (c *Counter) PatchAt(off int, p []byte) {
	if c.err != nil {
		return
	}
	if off < 0 || off+len(p) > c.n {
		c.err = fmt.Errorf("%w: patch [%d,%d) outside counted range %d", ErrOverflow, off, off+len(p), c.n)
	}
}

func (c *Counter) Len() int { return c.n }

func (c *Counter) Err() error { return c.err }

// Buffer is a fixed-capacity sink over a caller-supplied slice. It never
// grows: an Append past capacity latches ErrOverflow and the buffer
// contents stay as they were.
type Buffer struct {
	buf []byte
	n   int
	err error
}

// NewBuffer wraps buf as an empty sink; len(buf) is the capacity.
func NewBuffer(buf []byte) *Buffer {
	return &Buffer{buf: buf}
}

func (b *Buffer) Append(p []byte) {
	if b.err != nil {
		return
	}
	if b.n+len(p) > len(b.buf) {
		b.err = fmt.Errorf("%w: append of %d bytes exceeds capacity %d (written %d)",
			ErrOverflow, len(p), len(b.buf), b.n)
		return
	}
	copy(b.buf[b.n:], p)
	b.n += len(p)
}

func (b *Buffer) PatchAt(off int, p []byte) {
	if b.err != nil {
		return
	}
	if off < 0 || off+len(p) > b.n {
		b.err = fmt.Errorf("%w: patch [%d,%d) outside written range %d", ErrOverflow, off, off+len(p), b.n)
		return
	}
	copy(b.buf[off:], p)
}

func (b *Buffer) Len() int { return b.n }

func (b *Buffer) Err() error { return b.err }

// Cap returns the fixed capacity the buffer was created with.
func (b *Buffer) Cap() int { return len(b.buf) }

// Bytes returns the written prefix of the underlying slice. It aliases
// the buffer; callers must not hold it across further writes.
func (b *Buffer) Bytes() []byte { return b.buf[:b.n] }
