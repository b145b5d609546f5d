package dns

import "encoding/binary"

// RecordPayload is the fixed 10-byte block between a resource record's
// owner name and its rdata (RFC 1035 Section 4.1.3): type, class, TTL,
// and the length of the rdata that follows.
type RecordPayload struct {
	Type     RecordType
	Class    RecordClass
	TTL      uint32
	RDLength uint16
}

// RecordPayloadSize is the wire size of the fixed record payload in bytes.
const RecordPayloadSize = 10

// Marshal serializes the payload to wire format (big-endian).
func (p RecordPayload) Marshal() []byte {
	b := make([]byte, RecordPayloadSize)
	binary.BigEndian.PutUint16(b[0:2], uint16(p.Type))
	binary.BigEndian.PutUint16(b[2:4], uint16(p.Class))
	binary.BigEndian.PutUint32(b[4:8], p.TTL)
	binary.BigEndian.PutUint16(b[8:10], p.RDLength)
	return b
}
