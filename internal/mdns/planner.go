package mdns

import (
	"errors"
	"fmt"

	"github.com/jroosing/herald/internal/dns"
	"github.com/jroosing/herald/internal/stream"
)

// errRejected marks datagrams this responder must stay silent about even
// though they parsed: responses, exotic opcodes, queries carrying answer
// sections, or questions with a type or class outside the served set.
// Structural parse failures surface as dns.ErrWire instead.
var errRejected = errors.New("query rejected")

// replyPlan is what scanning one query produced.
type replyPlan struct {
	answers     uint16
	additionals uint16
}

// planReply scans the query in msg and encodes the complete reply into
// sink. The one routine serves both encodings of a datagram: sized
// against a stream.Counter first, then written for real into a buffer of
// exactly that size — so it must append identical bytes in both runs.
// finish additionally patches the final counts into the header and is
// set only on the real pass.
//
// A nil error with a zero answer count means the query was well-formed
// but not about this responder; any error means the datagram is ignored.
// Either way the caller sends nothing unless answers > 0.
func planReply(sink stream.Sink, prof *profile, msg []byte, finish bool) (replyPlan, error) {
	off := 0
	h, err := dns.ParseHeader(msg, &off)
	if err != nil {
		return replyPlan{}, err
	}
	if h.IsResponse() {
		return replyPlan{}, fmt.Errorf("%w: response bit set", errRejected)
	}
	if h.Opcode() != 0 {
		return replyPlan{}, fmt.Errorf("%w: opcode %d", errRejected, h.Opcode())
	}
	if h.ANCount != 0 || h.NSCount != 0 || h.ARCount != 0 {
		return replyPlan{}, fmt.Errorf("%w: query carries records (an=%d ns=%d ar=%d)",
			errRejected, h.ANCount, h.NSCount, h.ARCount)
	}

	b := newAnswerBuilder(sink, prof, h.ID)

	// First sub-pass: one answer per question that names us. A question
	// with an unsupported type or class poisons the whole query; there
	// is no answering the rest of a datagram we only half-understand.
	questionsStart := off
	for range h.QDCount {
		labels, err := dns.DecodeName(msg, &off)
		if err != nil {
			return replyPlan{}, err
		}
		q, err := dns.ParseQuestion(msg, &off)
		if err != nil {
			return replyPlan{}, err
		}
		if !q.Valid() {
			return replyPlan{}, fmt.Errorf("%w: question type %d class %d", errRejected, q.Type, q.Class)
		}
		if !prof.matches(labels, q.Type) {
			continue
		}
		switch q.Type {
		case dns.TypeA:
			b.addAAnswer()
		case dns.TypeAAAA:
			b.addAaaaAnswer()
		case dns.TypePTR:
			b.addPtrAnswer()
		case dns.TypeSRV:
			b.addSrvAnswer()
		case dns.TypeTXT:
			b.addTxtAnswer()
		default:
			panic(fmt.Sprintf("mdns: answer dispatch reached unsupported record type %d", q.Type))
		}
	}

	// Second sub-pass: rewind and attach the records a matched PTR or
	// SRV question implies. Records that already went out as answers are
	// deliberately written and counted a second time here.
	off = questionsStart
	for range h.QDCount {
		labels, err := dns.DecodeName(msg, &off)
		if err != nil {
			return replyPlan{}, err
		}
		q, err := dns.ParseQuestion(msg, &off)
		if err != nil {
			return replyPlan{}, err
		}
		switch {
		case q.Type == dns.TypePTR && prof.matches(labels, dns.TypePTR):
			b.addTxtAdditional()
			b.addSrvAdditional()
			b.addAAdditional()
			b.addAaaaAdditional()
		case q.Type == dns.TypeSRV && prof.matches(labels, dns.TypeSRV):
			b.addAAdditional()
			b.addAaaaAdditional()
		}
	}

	if finish {
		b.finish()
	}
	if err := sink.Err(); err != nil {
		return replyPlan{}, err
	}
	return replyPlan{answers: b.answers, additionals: b.additionals}, nil
}
