package mdns

import (
	"fmt"
	"net/netip"

	"github.com/jroosing/herald/internal/dns"
)

// Multicast DNS protocol constants (RFC 6762).
const (
	// Port is the UDP port mDNS queries and replies travel on, for both
	// the listening socket and the source-port filter.
	Port = 5353

	// TTL is the time-to-live, in seconds, carried by every record this
	// responder emits.
	TTL = 60
)

// GroupIPv4 is the IPv4 multicast group address for mDNS.
var GroupIPv4 = netip.AddrFrom4([4]byte{224, 0, 0, 251})

// domainLabel terminates every mDNS name this responder owns.
const domainLabel = "local"

// Identity describes the single service instance this responder
// advertises: who we are (instance), what we offer (service and
// protocol), and where to reach it (addresses and port).
//
// The three name components are single DNS labels, kept separate rather
// than pre-joined because an instance label may itself contain dots.
type Identity struct {
	Instance string // instance label, e.g. "hue"
	Service  string // service label, e.g. "_hue"
	Protocol string // protocol label, conventionally "_tcp" or "_udp"

	Port uint16     // port the advertised service listens on
	IPv4 netip.Addr // zero value when not advertised over IPv4
	IPv6 netip.Addr // zero value when not advertised over IPv6

	Text []string // TXT entries, each at most 255 bytes
}

// HostName returns the address-record owner name, instance.local.
func (id Identity) HostName() string {
	return dns.JoinLabels(id.hostLabels())
}

// InstanceName returns the full service instance name,
// instance.service.protocol.local.
func (id Identity) InstanceName() string {
	return dns.JoinLabels(id.instanceLabels())
}

// ServiceName returns the enumeration name, service.protocol.local.
func (id Identity) ServiceName() string {
	return dns.JoinLabels(id.serviceLabels())
}

func (id Identity) hostLabels() []string {
	return []string{id.Instance, domainLabel}
}

func (id Identity) instanceLabels() []string {
	return []string{id.Instance, id.Service, id.Protocol, domainLabel}
}

func (id Identity) serviceLabels() []string {
	return []string{id.Service, id.Protocol, domainLabel}
}

// Validate checks that the identity can be advertised at all: the name
// components must be legal DNS labels, the full instance name must fit
// the encoded-name limit, addresses must match their family, and TXT
// entries must fit their length prefix.
func (id Identity) Validate() error {
	for _, part := range []struct {
		what  string
		label string
	}{
		{"instance", id.Instance},
		{"service", id.Service},
		{"protocol", id.Protocol},
	} {
		if part.label == "" {
			return fmt.Errorf("identity: %s label must be non-empty", part.what)
		}
		if len(part.label) > dns.MaxLabelLen {
			return fmt.Errorf("identity: %s label too long (%d > %d): %q",
				part.what, len(part.label), dns.MaxLabelLen, part.label)
		}
	}
	if _, err := dns.EncodeName(id.instanceLabels()); err != nil {
		return fmt.Errorf("identity: instance name: %w", err)
	}
	if id.Port == 0 {
		return fmt.Errorf("identity: port must be non-zero")
	}
	if id.IPv4.IsValid() && !id.IPv4.Is4() {
		return fmt.Errorf("identity: IPv4 address %s is not an IPv4 address", id.IPv4)
	}
	if id.IPv6.IsValid() && (!id.IPv6.Is6() || id.IPv6.Is4In6()) {
		return fmt.Errorf("identity: IPv6 address %s is not an IPv6 address", id.IPv6)
	}
	for i, entry := range id.Text {
		if len(entry) > 255 {
			return fmt.Errorf("identity: TXT entry %d too long (%d > 255)", i, len(entry))
		}
	}
	return nil
}

// profile is an Identity compiled for the query path: the owner-name
// label sets used for matching, their wire encodings, and the TXT rdata,
// so handling a datagram never re-encodes anything that cannot change.
type profile struct {
	id Identity

	host     []string // instance.local — A/AAAA owner
	instance []string // instance.service.protocol.local — SRV/TXT owner
	service  []string // service.protocol.local — PTR owner

	hostWire     []byte
	instanceWire []byte
	serviceWire  []byte
	txtWire      []byte // length-prefixed TXT entries, no terminator

	ipv4 [4]byte
	ipv6 [16]byte
}

func newProfile(id Identity) (*profile, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	p := &profile{
		id:       id,
		host:     id.hostLabels(),
		instance: id.instanceLabels(),
		service:  id.serviceLabels(),
	}

	var err error
	if p.hostWire, err = dns.EncodeName(p.host); err != nil {
		return nil, fmt.Errorf("identity: host name: %w", err)
	}
	if p.instanceWire, err = dns.EncodeName(p.instance); err != nil {
		return nil, fmt.Errorf("identity: instance name: %w", err)
	}
	if p.serviceWire, err = dns.EncodeName(p.service); err != nil {
		return nil, fmt.Errorf("identity: service name: %w", err)
	}

	for _, entry := range id.Text {
		p.txtWire = append(p.txtWire, byte(len(entry)))
		p.txtWire = append(p.txtWire, entry...)
	}

	if id.IPv4.IsValid() {
		p.ipv4 = id.IPv4.As4()
	}
	if id.IPv6.IsValid() {
		p.ipv6 = id.IPv6.As16()
	}
	return p, nil
}
