package mdns

import (
	"fmt"

	"github.com/jroosing/herald/internal/dns"
)

// patternFor returns the owner-name labels a question of type t must
// carry for this responder to claim it: address questions name the host,
// locator and metadata questions name the full instance, enumeration
// questions name the service.
//
// The type set is closed by Question.Valid; reaching the default arm is
// a programming error, not an input error.
func (p *profile) patternFor(t dns.RecordType) []string {
	switch t {
	case dns.TypeA, dns.TypeAAAA:
		return p.host
	case dns.TypeSRV, dns.TypeTXT:
		return p.instance
	case dns.TypePTR:
		return p.service
	default:
		panic(fmt.Sprintf("mdns: no owner-name pattern for record type %d", t))
	}
}

// matches reports whether the decoded question labels name this
// responder for questions of type t.
//
// Matching is label-by-label and byte-exact, both sides fully consumed.
// A name with no labels never matches, and mDNS's case-insensitive
// comparison rules are deliberately not applied: the responder answers
// for the exact spelling it advertises.
func (p *profile) matches(labels []string, t dns.RecordType) bool {
	want := p.patternFor(t)
	if len(labels) != len(want) {
		return false
	}
	for i := range labels {
		if labels[i] != want[i] {
			return false
		}
	}
	return true
}
