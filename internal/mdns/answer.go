package mdns

import (
	"encoding/binary"

	"github.com/jroosing/herald/internal/dns"
	"github.com/jroosing/herald/internal/stream"
)

// srvFixedLen is the fixed part of SRV rdata: priority, weight, port.
const srvFixedLen = 6

// answerBuilder accumulates one reply into a sink.
//
// Construction appends a provisional header with zero counts at the
// sink's current position; finish patches the true counts over it once
// the record sections are complete. That is the only retroactive write a
// reply needs, and it is what lets the identical building code run first
// against a Counter and then against the real buffer.
//
// Owner names are appended verbatim from the profile's pre-encoded
// forms; compression pointers are never written.
type answerBuilder struct {
	sink stream.Sink
	prof *profile

	queryID     uint16
	mark        int // sink offset of the provisional header
	answers     uint16
	additionals uint16
}

func newAnswerBuilder(sink stream.Sink, prof *profile, queryID uint16) *answerBuilder {
	b := &answerBuilder{sink: sink, prof: prof, queryID: queryID, mark: sink.Len()}
	b.sink.Append(dns.Header{ID: queryID, Flags: dns.QRFlag}.Marshal())
	return b
}

// finish overwrites the provisional header with the final section
// counts. Replies echo the query ID, set only the response flag, and
// carry no questions or authority records.
func (b *answerBuilder) finish() {
	h := dns.Header{
		ID:      b.queryID,
		Flags:   dns.QRFlag,
		QDCount: 0,
		ANCount: b.answers,
		NSCount: 0,
		ARCount: b.additionals,
	}
	b.sink.PatchAt(b.mark, h.Marshal())
}

// Answer variants bump the answer count; additional variants bump the
// additional count. A record that already went out as an answer is
// written and counted again when the additional rules call for it.

func (b *answerBuilder) addAAnswer() {
	if b.writeA() {
		b.answers++
	}
}

func (b *answerBuilder) addAaaaAnswer() {
	if b.writeAAAA() {
		b.answers++
	}
}

func (b *answerBuilder) addPtrAnswer() {
	b.writePTR()
	b.answers++
}

func (b *answerBuilder) addSrvAnswer() {
	b.writeSRV()
	b.answers++
}

func (b *answerBuilder) addTxtAnswer() {
	b.writeTXT()
	b.answers++
}

func (b *answerBuilder) addAAdditional() {
	if b.writeA() {
		b.additionals++
	}
}

func (b *answerBuilder) addAaaaAdditional() {
	if b.writeAAAA() {
		b.additionals++
	}
}

func (b *answerBuilder) addSrvAdditional() {
	b.writeSRV()
	b.additionals++
}

func (b *answerBuilder) addTxtAdditional() {
	b.writeTXT()
	b.additionals++
}

// writeA emits an A record for the host name, or nothing when no IPv4
// address is advertised. The bool reports whether a record went out.
func (b *answerBuilder) writeA() bool {
	if !b.prof.id.IPv4.IsValid() {
		return false
	}
	b.writeMeta(b.prof.hostWire, dns.TypeA, 4)
	b.sink.Append(b.prof.ipv4[:])
	return true
}

func (b *answerBuilder) writeAAAA() bool {
	if !b.prof.id.IPv6.IsValid() {
		return false
	}
	b.writeMeta(b.prof.hostWire, dns.TypeAAAA, 16)
	b.sink.Append(b.prof.ipv6[:])
	return true
}

// writePTR emits service.protocol.local PTR instance.service.protocol.local.
func (b *answerBuilder) writePTR() {
	b.writeMeta(b.prof.serviceWire, dns.TypePTR, len(b.prof.instanceWire))
	b.sink.Append(b.prof.instanceWire)
}

// writeSRV emits the locator record: priority 0, weight 0, the service
// port, and the host name as the target.
func (b *answerBuilder) writeSRV() {
	b.writeMeta(b.prof.instanceWire, dns.TypeSRV, srvFixedLen+len(b.prof.hostWire))
	var fixed [srvFixedLen]byte
	binary.BigEndian.PutUint16(fixed[4:6], b.prof.id.Port)
	b.sink.Append(fixed[:])
	b.sink.Append(b.prof.hostWire)
}

// writeTXT emits the metadata record; with no entries configured the
// rdata is empty, which is a legal TXT record.
func (b *answerBuilder) writeTXT() {
	b.writeMeta(b.prof.instanceWire, dns.TypeTXT, len(b.prof.txtWire))
	b.sink.Append(b.prof.txtWire)
}

// writeMeta appends the parts every record shares: the owner name and
// the fixed payload with class IN and the responder's constant TTL.
func (b *answerBuilder) writeMeta(ownerWire []byte, typ dns.RecordType, rdlen int) {
	b.sink.Append(ownerWire)
	b.sink.Append(dns.RecordPayload{
		Type:     typ,
		Class:    dns.ClassIN,
		TTL:      TTL,
		RDLength: uint16(rdlen),
	}.Marshal())
}
