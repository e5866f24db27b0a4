package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// proxyHeaders are consulted in order when the proxy is trusted.
var proxyHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// ParseHostNoPort returns the host of "ip:port", "[v6]:port" or a bare host.
func ParseHostNoPort(s string) string {
	if s == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(s); err == nil {
		return h
	}
	return s
}

// ClientIP resolves the address used for rate limiting, CIDR guards and
// access logs. Proxy headers are only honoured when trustProxy is set;
// for X-Forwarded-For the left-most entry wins. The result is normalised
// (IPv4-mapped IPv6 unmapped) when it parses as an address.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		for _, h := range proxyHeaders {
			v := r.Header.Get(h)
			if h == "X-Forwarded-For" {
				v, _, _ = strings.Cut(v, ",")
			}
			if ip := normalizeIP(ParseHostNoPort(strings.TrimSpace(v))); ip != "" {
				return ip
			}
		}
	}
	return normalizeIP(ParseHostNoPort(r.RemoteAddr))
}

func normalizeIP(s string) string {
	if s == "" {
		return ""
	}
	if a, err := netip.ParseAddr(s); err == nil {
		return a.Unmap().String()
	}
	return s
}

// IPMatcher matches exact addresses and prefixes. Unparseable entries are
// skipped; config validation reports them.
type IPMatcher struct {
	addrs    []netip.Addr
	prefixes []netip.Prefix
}

func NewIPMatcher(list []string) *IPMatcher {
	m := &IPMatcher{}
	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			m.prefixes = append(m.prefixes, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(s); err == nil {
			m.addrs = append(m.addrs, a.Unmap())
		}
	}
	return m
}

func (m *IPMatcher) IsEmpty() bool {
	return len(m.addrs) == 0 && len(m.prefixes) == 0
}

func (m *IPMatcher) Allow(ipStr string) bool {
	a, err := netip.ParseAddr(ipStr)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, v := range m.addrs {
		if v == a {
			return true
		}
	}
	for _, p := range m.prefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}
