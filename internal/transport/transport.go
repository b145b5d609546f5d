// Package transport provides the datagram plumbing the responder runs
// on: a UDP socket that can join the mDNS multicast group, an observer
// surface for inbound datagrams, and fixed-size send buffers granted on
// request.
//
// The concurrency contract is deliberately narrow. An exchange delivers
// observer callbacks one at a time from its serve loop, and send-buffer
// grants are made synchronously on the requester's goroutine, so an
// observer that keeps its state on those goroutines needs no locking.
package transport

import (
	"errors"
	"fmt"
	"net/netip"

	"github.com/jroosing/herald/internal/stream"
)

const (
	// MaxUDPPayload is the largest datagram a UDP/IPv4 packet can carry
	// (65535 minus IP and UDP headers). Send buffers above it are
	// refused outright.
	MaxUDPPayload = 65507

	// RecvBufferSize bounds inbound datagrams. Anything longer is
	// truncated by the read; a query whose questions spill past the
	// truncation point fails to parse and is dropped.
	RecvBufferSize = 4096
)

// ErrBufferSize is returned by RequestSendBuffer for sizes no UDP
// datagram can carry.
var ErrBufferSize = errors.New("transport: unserviceable send buffer size")

// Observer receives datagram events from an exchange.
//
// Callbacks are serialized: the exchange never runs two of them
// concurrently, and a grant triggered from inside DatagramReceived is
// delivered before the next datagram is.
type Observer interface {
	// DatagramReceived hands over one inbound datagram. data is valid
	// only for the duration of the call; the exchange reuses the
	// backing buffer. Observers that keep the payload must copy it.
	DatagramReceived(data []byte, src netip.AddrPort)

	// SendBufferGranted delivers a buffer previously asked for with
	// RequestSendBuffer. The observer must finish it with Send or
	// Discard before returning.
	SendBufferGranted(sb *SendBuffer)
}

// SendBuffer is one outgoing datagram: a fixed-capacity sink plus the
// destination its bytes will be written to. The capacity is exactly what
// was requested; the sink does not grow.
type SendBuffer struct {
	buf  *stream.Buffer
	dest netip.AddrPort
	send func(p []byte, dest netip.AddrPort) error
	done bool
}

// NewSendBuffer builds a grant of the given size whose Send delivers
// through the supplied function. Exchanges construct these; observers
// only receive them.
func NewSendBuffer(size int, dest netip.AddrPort, send func(p []byte, dest netip.AddrPort) error) *SendBuffer {
	return &SendBuffer{
		buf:  stream.NewBuffer(make([]byte, size)),
		dest: dest,
		send: send,
	}
}

// Sink exposes the buffer to write the datagram into.
func (sb *SendBuffer) Sink() *stream.Buffer { return sb.buf }

// Dest returns where Send will deliver the datagram.
func (sb *SendBuffer) Dest() netip.AddrPort { return sb.dest }

// Send transmits the written prefix of the buffer. A buffer whose sink
// latched an error refuses to send, and a buffer can be completed only
// once.
func (sb *SendBuffer) Send() error {
	if sb.done {
		return fmt.Errorf("transport: send buffer already completed")
	}
	sb.done = true
	if err := sb.buf.Err(); err != nil {
		return err
	}
	return sb.send(sb.buf.Bytes(), sb.dest)
}

// Discard completes the buffer without sending anything.
func (sb *SendBuffer) Discard() {
	sb.done = true
}
