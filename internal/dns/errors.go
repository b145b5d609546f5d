// Package dns implements the DNS wire-format primitives a multicast-DNS
// responder needs: the 12-byte message header, the question footer, the
// resource-record fixed payload, and the label-encoded name codec.
//
// Standards Compliance:
//
//   - RFC 1035: Domain Names - Implementation and Specification (header,
//     question and record layout, label encoding, compression pointers)
//   - RFC 3596: DNS Extensions to Support IPv6 (AAAA records)
//   - RFC 2782: A DNS RR for specifying the location of services (SRV)
//   - RFC 6762: Multicast DNS (the subset of record types served)
//
// Scope:
//
// This is deliberately not a general DNS library. Only the record types an
// mDNS service responder emits (A, PTR, TXT, AAAA, SRV) are modeled, and
// name decompression follows at most one pointer, which is all a single
// question section can legitimately contain.
//
// Error Handling:
//
// All errors wrap the ErrWire sentinel with fmt.Errorf("...: %w", ErrWire)
// so callers can classify any failure in this package with errors.Is.
package dns

import "errors"

// ErrWire is the sentinel for malformed or out-of-bounds wire data.
// Wrap it with fmt.Errorf("context: %w", ErrWire) to add context.
var ErrWire = errors.New("dns wire error")
