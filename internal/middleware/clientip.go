package middleware

import (
	"net"
	"net/netip"
	"strings"

	"github.com/vyrodovalexey/webfunc/internal/handler"
)

// ClientIPExtractor resolves the client address of a request, the key the
// rate limiter buckets on. The X-Forwarded-For chain is only consulted when
// the peer is a trusted proxy.
type ClientIPExtractor struct {
	trusted []netip.Prefix
}

// NewClientIPExtractor creates an extractor trusting the given CIDRs or
// single addresses. Entries that parse as neither are ignored.
func NewClientIPExtractor(trustedProxies []string) *ClientIPExtractor {
	e := &ClientIPExtractor{}
	for _, entry := range trustedProxies {
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			e.trusted = append(e.trusted, prefix.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			addr = addr.Unmap()
			e.trusted = append(e.trusted, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return e
}

// Extract returns the client address of req. Behind trusted proxies it is
// the right-most untrusted X-Forwarded-For hop.
func (e *ClientIPExtractor) Extract(req *handler.Request) string {
	peer := hostOnly(req.RemoteAddr)
	if !e.trusts(peer) {
		return peer
	}

	hops := strings.Split(req.Header.Get(HeaderXForwardedFor), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop != "" && !e.trusts(hop) {
			return hop
		}
	}
	return peer
}

func (e *ClientIPExtractor) trusts(ip string) bool {
	if len(e.trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range e.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// hostOnly drops the port of a host:port address. Lambda source IPs carry
// no port and are returned unchanged.
func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
