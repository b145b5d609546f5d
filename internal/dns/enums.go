package dns

// DNS header flags and masks (RFC 1035 Section 4.1.1)
//
// The DNS header contains a 16-bit flags field with the following layout:
//
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|QR|   Opcode  |AA|TC|RD|RA| Z|AD|CD|   RCODE   |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	 15 14 13 12 11 10  9  8  7  6  5  4  3  2  1  0
//
// A responder only inspects QR and Opcode on the way in, and sets QR on the
// way out; the remaining bits are left untouched (mDNS replies carry no
// recursion or DNSSEC semantics).
const (
	QRFlag     uint16 = 0x8000 // Query/Response: 1 = response, 0 = query
	OpcodeMask uint16 = 0x7800 // Bits 14-11: operation type (0 = standard query)
)

// RecordType represents the DNS resource record types this responder serves.
// The set is closed: every type that passes question validation is
// guaranteed to be one of these five.
type RecordType uint16

const (
	TypeA    RecordType = 1  // IPv4 address
	TypePTR  RecordType = 12 // Domain name pointer (service enumeration)
	TypeTXT  RecordType = 16 // Text strings (service metadata)
	TypeAAAA RecordType = 28 // IPv6 address (RFC 3596)
	TypeSRV  RecordType = 33 // Service locator (RFC 2782)
)

// Supported reports whether t is one of the record types this responder
// can answer. Questions carrying any other type invalidate their query.
func (t RecordType) Supported() bool {
	switch t {
	case TypeA, TypePTR, TypeTXT, TypeAAAA, TypeSRV:
		return true
	}
	return false
}

// RecordClass represents DNS resource record classes (RFC 1035).
type RecordClass uint16

// ClassIN is the Internet class, the only class this responder accepts.
// mDNS reuses the class field's top bit for unicast-response and
// cache-flush hints; questions carrying those bits do not equal ClassIN
// and are rejected.
const ClassIN RecordClass = 1
