package mdns

import (
	"bytes"
	"io"
	"log/slog"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jroosing/herald/internal/dns"
	"github.com/jroosing/herald/internal/stats"
	"github.com/jroosing/herald/internal/transport"
)

type sentDatagram struct {
	payload []byte
	dest    netip.AddrPort
}

// fakeExchange records every call the responder makes and, unless told
// to hold or refuse, grants send buffers synchronously like the real
// transport does.
type fakeExchange struct {
	obs      transport.Observer
	joined   []netip.Addr
	left     []netip.Addr
	requests []int
	sent     []sentDatagram

	refuse error
	hold   bool
	held   []*transport.SendBuffer
}

func (f *fakeExchange) JoinGroup(group netip.Addr) error {
	f.joined = append(f.joined, group)
	return nil
}

func (f *fakeExchange) LeaveGroup(group netip.Addr) error {
	f.left = append(f.left, group)
	return nil
}

func (f *fakeExchange) RequestSendBuffer(size int, dest netip.AddrPort) error {
	if f.refuse != nil {
		return f.refuse
	}
	f.requests = append(f.requests, size)
	sb := transport.NewSendBuffer(size, dest, func(p []byte, dest netip.AddrPort) error {
		f.sent = append(f.sent, sentDatagram{payload: bytes.Clone(p), dest: dest})
		return nil
	})
	if f.hold {
		f.held = append(f.held, sb)
		return nil
	}
	f.obs.SendBufferGranted(sb)
	return nil
}

// releaseHeld delivers the queued grants in order, as the transport
// would once its send path drains.
func (f *fakeExchange) releaseHeld() {
	held := f.held
	f.held = nil
	for _, sb := range held {
		f.obs.SendBufferGranted(sb)
	}
}

func newTestResponder(t *testing.T, id Identity, f *fakeExchange) (*Responder, *stats.Recorder) {
	t.Helper()
	rec := stats.NewRecorder()
	r, err := NewResponder(id, f, slog.New(slog.NewTextHandler(io.Discard, nil)), rec)
	require.NoError(t, err)
	f.obs = r
	return r, rec
}

var querySource = netip.MustParseAddrPort("192.168.1.9:5353")

func TestResponderAnswersQuery(t *testing.T) {
	f := &fakeExchange{}
	r, rec := newTestResponder(t, testIdentity(), f)

	msg := buildQuery(t, 0x1234, q([]string{"hue", "local"}, dns.TypeA))
	r.DatagramReceived(msg, querySource)

	require.Len(t, f.sent, 1)
	out := f.sent[0]
	assert.Equal(t, netip.AddrPortFrom(GroupIPv4, Port), out.dest)
	require.Len(t, f.requests, 1)
	assert.Equal(t, f.requests[0], len(out.payload), "granted size must match the reply exactly")

	h, recs := parseReply(t, out.payload)
	assert.Equal(t, uint16(0x1234), h.ID)
	require.Len(t, recs, 1)
	assert.Equal(t, dns.TypeA, recs[0].typ)

	snap := rec.Snapshot()
	assert.Equal(t, uint64(1), snap.Received)
	assert.Equal(t, uint64(1), snap.Replies)
	assert.Equal(t, uint64(1), snap.AnswerRecords)
	assert.Equal(t, uint64(0), snap.AdditionalRecords)
}

func TestResponderIgnoresWrongSourcePort(t *testing.T) {
	f := &fakeExchange{}
	r, rec := newTestResponder(t, testIdentity(), f)

	msg := buildQuery(t, 1, q([]string{"hue", "local"}, dns.TypeA))
	r.DatagramReceived(msg, netip.MustParseAddrPort("192.168.1.9:5000"))

	assert.Empty(t, f.requests)
	assert.Empty(t, f.sent)
	snap := rec.Snapshot()
	assert.Equal(t, uint64(1), snap.Received)
	assert.Equal(t, uint64(1), snap.BadSourcePort)
}

func TestResponderDropsQueriesWhileReplyPending(t *testing.T) {
	f := &fakeExchange{hold: true}
	r, rec := newTestResponder(t, testIdentity(), f)

	first := buildQuery(t, 1, q([]string{"hue", "local"}, dns.TypeA))
	second := buildQuery(t, 2, q([]string{"hue", "local"}, dns.TypeAAAA))

	r.DatagramReceived(first, querySource)
	require.Len(t, f.requests, 1)
	require.Empty(t, f.sent, "grant is held, nothing sent yet")

	// A second query while the first reply is in flight is dropped.
	r.DatagramReceived(second, querySource)
	assert.Len(t, f.requests, 1)
	assert.Equal(t, uint64(1), rec.Snapshot().Busy)

	f.releaseHeld()
	require.Len(t, f.sent, 1)
	h, _ := parseReply(t, f.sent[0].payload)
	assert.Equal(t, uint16(1), h.ID, "the reply answers the first query")

	// The slot is free again.
	r.DatagramReceived(second, querySource)
	f.releaseHeld()
	require.Len(t, f.sent, 2)
	h, _ = parseReply(t, f.sent[1].payload)
	assert.Equal(t, uint16(2), h.ID)
}

func TestResponderSilentOnUninterestingTraffic(t *testing.T) {
	response := buildQuery(t, 1, q([]string{"hue", "local"}, dns.TypeA))
	response[2] |= 0x80

	cases := map[string]struct {
		msg   []byte
		check func(t *testing.T, snap stats.Snapshot)
	}{
		"malformed datagram": {
			msg: []byte{0x00, 0x01, 0x02},
			check: func(t *testing.T, snap stats.Snapshot) {
				assert.Equal(t, uint64(1), snap.Malformed)
			},
		},
		"someone else's response": {
			msg: response,
			check: func(t *testing.T, snap stats.Snapshot) {
				assert.Equal(t, uint64(1), snap.NotAQuery)
			},
		},
		"unrelated name": {
			msg: buildQuery(t, 2, q([]string{"printer", "local"}, dns.TypeA)),
			check: func(t *testing.T, snap stats.Snapshot) {
				assert.Equal(t, uint64(1), snap.NotForUs)
			},
		},
		"unsupported question type": {
			msg: buildQuery(t, 3, question{labels: []string{"hue", "local"}, typ: dns.RecordType(255), class: dns.ClassIN}),
			check: func(t *testing.T, snap stats.Snapshot) {
				assert.Equal(t, uint64(1), snap.NotAQuery)
			},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := &fakeExchange{}
			r, rec := newTestResponder(t, testIdentity(), f)

			r.DatagramReceived(tc.msg, querySource)

			assert.Empty(t, f.requests)
			assert.Empty(t, f.sent)
			tc.check(t, rec.Snapshot())
		})
	}
}

func TestResponderBufferRefusalFreesSlot(t *testing.T) {
	f := &fakeExchange{refuse: transport.ErrBufferSize}
	r, rec := newTestResponder(t, testIdentity(), f)

	msg := buildQuery(t, 1, q([]string{"hue", "local"}, dns.TypeA))
	r.DatagramReceived(msg, querySource)
	assert.Empty(t, f.sent)
	assert.Equal(t, uint64(1), rec.Snapshot().Oversize)

	// Refusal must not wedge the responder.
	f.refuse = nil
	r.DatagramReceived(msg, querySource)
	require.Len(t, f.sent, 1)
	assert.Equal(t, uint64(1), rec.Snapshot().Replies)
}

func TestResponderStrayGrantIsDiscarded(t *testing.T) {
	f := &fakeExchange{}
	r, _ := newTestResponder(t, testIdentity(), f)

	sb := transport.NewSendBuffer(64, netip.AddrPortFrom(GroupIPv4, Port), func(p []byte, dest netip.AddrPort) error {
		t.Fatal("stray grant must not send")
		return nil
	})
	r.SendBufferGranted(sb)
	assert.Empty(t, f.sent)
}

func TestResponderAnnounce(t *testing.T) {
	f := &fakeExchange{}
	r, rec := newTestResponder(t, testIdentity(), f)

	require.NoError(t, r.Announce())

	require.Len(t, f.sent, 1)
	out := f.sent[0]
	assert.Equal(t, netip.AddrPortFrom(GroupIPv4, Port), out.dest)

	h, recs := parseReply(t, out.payload)
	assert.Equal(t, uint16(0), h.ID)
	assert.Equal(t, uint16(1), h.ANCount)
	assert.Equal(t, uint16(4), h.ARCount)
	require.Len(t, recs, 5)
	assert.Equal(t, dns.TypePTR, recs[0].typ)
	assert.Equal(t, "_hue._tcp.local", recs[0].name)

	assert.Equal(t, uint64(1), rec.Snapshot().Replies)
}

func TestResponderAnnounceWhileBusy(t *testing.T) {
	f := &fakeExchange{hold: true}
	r, _ := newTestResponder(t, testIdentity(), f)

	msg := buildQuery(t, 1, q([]string{"hue", "local"}, dns.TypeA))
	r.DatagramReceived(msg, querySource)
	require.Len(t, f.held, 1)

	assert.Error(t, r.Announce())
}

func TestResponderJoinsAndLeavesGroup(t *testing.T) {
	f := &fakeExchange{}
	r, _ := newTestResponder(t, testIdentity(), f)

	require.Equal(t, []netip.Addr{GroupIPv4}, f.joined)
	require.NoError(t, r.Close())
	assert.Equal(t, []netip.Addr{GroupIPv4}, f.left)
}
