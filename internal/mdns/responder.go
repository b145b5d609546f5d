// Package mdns implements a multicast-DNS service responder for a single
// advertised service instance. It joins the mDNS group, claims the
// questions that name its identity, and answers with A, AAAA, PTR, SRV
// and TXT records.
//
// Replies are encoded twice: a sizing pass against a counting sink
// decides exactly how many bytes the reply needs, the transport grants a
// fixed buffer of that size, and the identical encoding then runs again
// into it. Buffers never grow and replies are never truncated; the two
// passes either agree or the reply is dropped.
//
// Concurrency model: there are no locks. The exchange serializes
// observer callbacks, and the responder's only cross-datagram state is
// the single pending query slot. One reply is outstanding at a time;
// queries arriving while the slot is occupied are dropped, which is the
// backpressure mDNS can afford because queriers retransmit.
package mdns

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"

	"github.com/jroosing/herald/internal/dns"
	"github.com/jroosing/herald/internal/stats"
	"github.com/jroosing/herald/internal/stream"
	"github.com/jroosing/herald/internal/transport"
)

// Exchange is the transport surface the responder drives. Implemented
// by *transport.UDPv4; declared here so tests can substitute a fake.
type Exchange interface {
	RequestSendBuffer(size int, dest netip.AddrPort) error
	JoinGroup(group netip.Addr) error
	LeaveGroup(group netip.Addr) error
}

// Responder owns the query-to-reply pipeline. It implements
// transport.Observer; wire it to an exchange with SetObserver before the
// exchange starts serving.
type Responder struct {
	prof     *profile
	exchange Exchange
	logger   *slog.Logger
	rec      *stats.Recorder

	// pending is the one retained query awaiting its send buffer; nil
	// means idle. Touched only from exchange callbacks and Announce,
	// all of which run serialized.
	pending []byte
}

// NewResponder validates the identity, joins the mDNS multicast group on
// the exchange, and returns a responder ready to observe it. A nil
// logger falls back to slog.Default; a nil recorder gets a fresh one.
func NewResponder(id Identity, exchange Exchange, logger *slog.Logger, rec *stats.Recorder) (*Responder, error) {
	prof, err := newProfile(id)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = stats.NewRecorder()
	}
	if err := exchange.JoinGroup(GroupIPv4); err != nil {
		return nil, fmt.Errorf("mdns: join group %s: %w", GroupIPv4, err)
	}
	logger.Info("mdns responder ready",
		"instance", id.InstanceName(),
		"host", id.HostName(),
		"service", id.ServiceName(),
		"port", id.Port)
	return &Responder{prof: prof, exchange: exchange, logger: logger, rec: rec}, nil
}

// Close leaves the multicast group. The exchange itself stays open; its
// owner closes it.
func (r *Responder) Close() error {
	return r.exchange.LeaveGroup(GroupIPv4)
}

// DatagramReceived implements transport.Observer. Everything that is not
// a legitimate mDNS query from the mDNS port, or that arrives while a
// reply is already pending, is dropped without a reply.
func (r *Responder) DatagramReceived(data []byte, src netip.AddrPort) {
	r.rec.DatagramReceived()
	if src.Port() != Port {
		r.rec.DropBadSourcePort()
		r.logger.Debug("ignoring datagram from non-mDNS source port", "src", src)
		return
	}
	if r.pending != nil {
		r.rec.DropBusy()
		r.logger.Debug("dropping query while a reply is pending", "src", src)
		return
	}
	r.respond(data)
}

// respond sizes the reply for query and, when there is something to say,
// retains the query in the pending slot and asks the exchange for a
// buffer of exactly that size. The reply itself is written in
// SendBufferGranted.
func (r *Responder) respond(query []byte) {
	var c stream.Counter
	plan, err := planReply(&c, r.prof, query, false)
	switch {
	case errors.Is(err, dns.ErrWire):
		r.rec.DropMalformed()
		r.logger.Debug("dropping malformed datagram", "error", err)
		return
	case err != nil:
		r.rec.DropNotAQuery()
		r.logger.Debug("ignoring datagram", "error", err)
		return
	case plan.answers == 0:
		r.rec.DropNotForUs()
		return
	}

	// The observer contract says query dies with this call; keep a copy
	// until the grant arrives.
	r.pending = bytes.Clone(query)
	if err := r.exchange.RequestSendBuffer(c.Len(), netip.AddrPortFrom(GroupIPv4, Port)); err != nil {
		r.pending = nil
		r.rec.DropOversize()
		r.logger.Warn("send buffer request refused", "size", c.Len(), "error", err)
	}
}

// SendBufferGranted implements transport.Observer: the continuation of
// respond. The pending slot is released on every path out of here.
func (r *Responder) SendBufferGranted(sb *transport.SendBuffer) {
	query := r.pending
	r.pending = nil
	if query == nil {
		sb.Discard()
		r.logger.Error("send buffer granted with no pending query")
		return
	}

	plan, err := planReply(sb.Sink(), r.prof, query, true)
	if err != nil || plan.answers == 0 {
		sb.Discard()
		// Both passes run the same code over the same bytes; landing
		// here means they disagreed.
		r.logger.Error("write pass diverged from sizing pass", "error", err)
		return
	}

	if err := sb.Send(); err != nil {
		r.rec.SendFailed()
		r.logger.Warn("reply send failed", "error", err)
		return
	}
	r.rec.ReplySent(plan.answers, plan.additionals)
	r.logger.Debug("reply sent",
		"answers", plan.answers,
		"additionals", plan.additionals,
		"bytes", sb.Sink().Len())
}

// Announce multicasts one unsolicited advertisement of the full record
// set by feeding a synthetic enumeration query for our own service name
// through the regular reply path: listeners receive exactly what a PTR
// question would have earned them.
//
// Call it before the exchange starts serving; the responder is
// single-goroutine by design and Announce uses the same pending slot as
// the serve loop. Delivery is best-effort like every reply; errors are
// returned only for local failures.
func (r *Responder) Announce() error {
	if r.pending != nil {
		return errors.New("mdns: announce while a reply is pending")
	}
	query := announceQuery(r.prof)

	var c stream.Counter
	plan, err := planReply(&c, r.prof, query, false)
	if err != nil {
		return fmt.Errorf("mdns: size announcement: %w", err)
	}
	if plan.answers == 0 {
		return errors.New("mdns: announcement produced no records")
	}

	r.pending = query
	if err := r.exchange.RequestSendBuffer(c.Len(), netip.AddrPortFrom(GroupIPv4, Port)); err != nil {
		r.pending = nil
		return fmt.Errorf("mdns: request announcement buffer: %w", err)
	}
	return nil
}

// announceQuery builds the self-query Announce answers: one PTR question
// for the advertised service name, transaction ID zero.
func announceQuery(prof *profile) []byte {
	msg := dns.Header{QDCount: 1}.Marshal()
	msg = append(msg, prof.serviceWire...)
	msg = append(msg, dns.Question{Type: dns.TypePTR, Class: dns.ClassIN}.Marshal()...)
	return msg
}
