// Package stats tracks what the responder did with the traffic it saw:
// datagrams in, replies out, and every reason something was dropped.
// Counters live in a Recorder; a Store can persist totals across
// restarts.
package stats

import (
	"sync/atomic"
)

// Recorder collects responder counters.
// All methods are safe for concurrent use.
type Recorder struct {
	received          atomic.Uint64
	badSourcePort     atomic.Uint64
	busy              atomic.Uint64
	malformed         atomic.Uint64
	notAQuery         atomic.Uint64
	notForUs          atomic.Uint64
	oversize          atomic.Uint64
	sendFailures      atomic.Uint64
	replies           atomic.Uint64
	answerRecords     atomic.Uint64
	additionalRecords atomic.Uint64
}

// NewRecorder creates a new statistics recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// DatagramReceived counts one inbound datagram, before any filtering.
func (r *Recorder) DatagramReceived() {
	r.received.Add(1)
}

// DropBadSourcePort counts a datagram ignored for its source port.
func (r *Recorder) DropBadSourcePort() {
	r.badSourcePort.Add(1)
}

// DropBusy counts a datagram dropped while a reply was still pending.
func (r *Recorder) DropBusy() {
	r.busy.Add(1)
}

// DropMalformed counts a datagram whose wire format failed to parse.
func (r *Recorder) DropMalformed() {
	r.malformed.Add(1)
}

// DropNotAQuery counts a well-formed datagram that was not a plain
// query: responses, exotic opcodes, queries carrying records, or
// questions outside the served type and class set.
func (r *Recorder) DropNotAQuery() {
	r.notAQuery.Add(1)
}

// DropNotForUs counts a valid query that named nothing we advertise.
func (r *Recorder) DropNotForUs() {
	r.notForUs.Add(1)
}

// DropOversize counts a reply abandoned because no datagram could carry it.
func (r *Recorder) DropOversize() {
	r.oversize.Add(1)
}

// SendFailed counts a finished reply the socket refused to deliver.
func (r *Recorder) SendFailed() {
	r.sendFailures.Add(1)
}

// ReplySent counts one delivered reply and the records it carried.
func (r *Recorder) ReplySent(answers, additionals uint16) {
	r.replies.Add(1)
	r.answerRecords.Add(uint64(answers))
	r.additionalRecords.Add(uint64(additionals))
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Received          uint64 `json:"datagrams_received"`
	BadSourcePort     uint64 `json:"dropped_bad_source_port"`
	Busy              uint64 `json:"dropped_busy"`
	Malformed         uint64 `json:"dropped_malformed"`
	NotAQuery         uint64 `json:"dropped_not_a_query"`
	NotForUs          uint64 `json:"dropped_not_for_us"`
	Oversize          uint64 `json:"dropped_oversize"`
	SendFailures      uint64 `json:"send_failures"`
	Replies           uint64 `json:"replies_sent"`
	AnswerRecords     uint64 `json:"answer_records"`
	AdditionalRecords uint64 `json:"additional_records"`
}

// Snapshot returns the current counter values.
func (r *Recorder) Snapshot() Snapshot {
	return Snapshot{
		Received:          r.received.Load(),
		BadSourcePort:     r.badSourcePort.Load(),
		Busy:              r.busy.Load(),
		Malformed:         r.malformed.Load(),
		NotAQuery:         r.notAQuery.Load(),
		NotForUs:          r.notForUs.Load(),
		Oversize:          r.oversize.Load(),
		SendFailures:      r.sendFailures.Load(),
		Replies:           r.replies.Load(),
		AnswerRecords:     r.answerRecords.Load(),
		AdditionalRecords: r.additionalRecords.Load(),
	}
}

// Restore seeds the counters from a persisted snapshot. Meant for
// startup, before any traffic is recorded.
func (r *Recorder) Restore(s Snapshot) {
	r.received.Store(s.Received)
	r.badSourcePort.Store(s.BadSourcePort)
	r.busy.Store(s.Busy)
	r.malformed.Store(s.Malformed)
	r.notAQuery.Store(s.NotAQuery)
	r.notForUs.Store(s.NotForUs)
	r.oversize.Store(s.Oversize)
	r.sendFailures.Store(s.SendFailures)
	r.replies.Store(s.Replies)
	r.answerRecords.Store(s.AnswerRecords)
	r.additionalRecords.Store(s.AdditionalRecords)
}
