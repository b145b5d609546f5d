package dns

import (
	"fmt"
	"strings"
)

// Name size limits from RFC 1035 Section 2.3.4.
const (
	MaxLabelLen       = 63  // per-label maximum, in bytes
	MaxEncodedNameLen = 255 // whole encoded name, length bytes and terminator included
)

// EncodeName encodes a name, given as its ordered labels, to DNS wire
// format (RFC 1035 Section 3.1).
//
// Each label is written as a length byte followed by the label bytes, and
// the sequence is terminated by a zero-length label:
//
//	["camera", "_rtsp", "_tcp", "local"] →
//	[6]camera[5]_rtsp[4]_tcp[5]local[0]
//
// Labels are opaque bytes: mDNS instance labels may carry UTF-8 or even
// literal dots, so the codec never splits, joins, or normalizes them.
// Compression pointers are never emitted; names go out verbatim.
func EncodeName(labels []string) ([]byte, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: name must have at least one label", ErrWire)
	}
	out := make([]byte, 0, EncodedNameLen(labels))
	for _, label := range labels {
		if label == "" {
			return nil, fmt.Errorf("%w: empty label in name %q", ErrWire, JoinLabels(labels))
		}
		if len(label) > MaxLabelLen {
			return nil, fmt.Errorf("%w: label too long (%d > %d): %q", ErrWire, len(label), MaxLabelLen, label)
		}
		out = append(out, byte(len(label)))
		out = append(out, label...)
	}
	out = append(out, 0) // Terminating zero-length label
	if len(out) > MaxEncodedNameLen {
		return nil, fmt.Errorf("%w: encoded name too long (%d > %d)", ErrWire, len(out), MaxEncodedNameLen)
	}
	return out, nil
}

// EncodedNameLen returns the wire size EncodeName would produce for the
// given labels: one length byte per label plus the label bytes, plus the
// terminator. Used for RDLength arithmetic before anything is written.
func EncodedNameLen(labels []string) int {
	n := 1
	for _, label := range labels {
		n += 1 + len(label)
	}
	return n
}

// DecodeName decodes a possibly-compressed DNS name from wire format,
// returning its labels in order.
//
// DNS name compression (RFC 1035 Section 4.1.4) replaces a name suffix
// with a 2-byte pointer whose high two bits are set:
//
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	| 1  1|                OFFSET                   |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//
// At most ONE pointer is followed, and it must point strictly backward in
// the message. A pointer reached after a pointer has already been
// followed, a forward or self-referential pointer, and a pointer landing
// outside the message are all errors. One hop is all a question section
// legitimately needs, and the cap bounds decoding without loop
// bookkeeping.
//
// *off advances past the name in the original stream (pointer bytes
// included), wherever the pointed-to suffix lives.
func DecodeName(msg []byte, off *int) ([]string, error) {
	if *off < 0 || *off >= len(msg) {
		return nil, fmt.Errorf("%w: unexpected EOF while decoding DNS name", ErrWire)
	}

	labels := make([]string, 0, 6)
	pos := *off
	followed := false
	encodedLen := 1 // terminator
	for {
		if pos >= len(msg) {
			return nil, fmt.Errorf("%w: unexpected EOF while decoding DNS name", ErrWire)
		}
		lenByte := msg[pos]

		// Zero-length label marks end of name
		if lenByte == 0 {
			pos++
			if !followed {
				*off = pos
			}
			return labels, nil
		}

		// Compression pointer (high 2 bits = 11)
		if isCompressionPointer(lenByte) {
			if followed {
				return nil, fmt.Errorf("%w: DNS compression pointer chains to another pointer", ErrWire)
			}
			if pos+1 >= len(msg) {
				return nil, fmt.Errorf("%w: unexpected EOF while decoding compression pointer", ErrWire)
			}
			ptr := int(lenByte&0x3F)<<8 | int(msg[pos+1])
			if ptr >= pos {
				return nil, fmt.Errorf("%w: DNS compression pointer must point backward", ErrWire)
			}
			*off = pos + 2 // original stream resumes after the pointer
			followed = true
			pos = ptr
			continue
		}

		// Reserved label type (high 2 bits = 01 or 10)
		if hasReservedBits(lenByte) {
			return nil, fmt.Errorf("%w: invalid DNS label length (reserved high bits set)", ErrWire)
		}

		// Regular label
		labelLen := int(lenByte)
		pos++
		if pos+labelLen > len(msg) {
			return nil, fmt.Errorf("%w: unexpected EOF while reading DNS label", ErrWire)
		}
		encodedLen += 1 + labelLen
		if encodedLen > MaxEncodedNameLen {
			return nil, fmt.Errorf("%w: decoded name too long (> %d)", ErrWire, MaxEncodedNameLen)
		}
		labels = append(labels, string(msg[pos:pos+labelLen]))
		pos += labelLen
	}
}

// isCompressionPointer checks if the label length byte indicates a compression pointer.
// Compression pointers have the two high bits set (11xxxxxx = 0xC0 mask).
func isCompressionPointer(b byte) bool {
	return (b & 0xC0) == 0xC0
}

// hasReservedBits checks if the label uses reserved encoding (01xxxxxx or 10xxxxxx).
// These patterns are reserved for future use per RFC 1035.
func hasReservedBits(b byte) bool {
	return (b & 0xC0) != 0
}

// JoinLabels concatenates DNS labels with dots, for logs and API output.
// Uses strings.Builder with size pre-allocation for efficiency.
func JoinLabels(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	if len(labels) == 1 {
		return labels[0]
	}
	// Pre-calculate size to minimize Builder allocations
	totalSize := len(labels) - 1 // dots
	for _, label := range labels {
		totalSize += len(label)
	}
	var b strings.Builder
	b.Grow(totalSize)
	b.WriteString(labels[0])
	for i := 1; i < len(labels); i++ {
		b.WriteByte('.')
		b.WriteString(labels[i])
	}
	return b.String()
}
