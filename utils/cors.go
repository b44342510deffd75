package utils

import (
	"net"
	"net/url"
	"strings"
)

// OriginPolicy decides which browser origins may call the API: the
// configured origins (where the dashboard is hosted) plus anything on the
// local network.
type OriginPolicy struct {
	exact map[string]struct{}
}

// NewOriginPolicy trusts the given origins in addition to local ones.
// An entry of "*" trusts every origin.
func NewOriginPolicy(origins []string) *OriginPolicy {
	p := &OriginPolicy{exact: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = strings.TrimRight(strings.ToLower(strings.TrimSpace(o)), "/")
		if o != "" {
			p.exact[o] = struct{}{}
		}
	}
	return p
}

// Allowed reports whether origin may receive CORS headers.
func (p *OriginPolicy) Allowed(origin string) bool {
	if p != nil && origin != "" {
		if _, all := p.exact["*"]; all {
			return true
		}
		if _, ok := p.exact[strings.ToLower(origin)]; ok {
			return true
		}
	}
	return IsAllowedOrigin(origin)
}

// IsAllowedOrigin checks whether an Origin is local: localhost, private or
// link-local IPs, .local hostnames and single-label hostnames.
func IsAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}

	hostname := parsed.Hostname()

	// Allow localhost
	if hostname == "localhost" {
		return true
	}

	// Allow .local mDNS hostnames (e.g., mybox.local)
	if strings.HasSuffix(hostname, ".local") {
		return true
	}

	// Allow single-label hostnames (no dots = LAN names)
	if !strings.Contains(hostname, ".") {
		return true
	}

	// Check if it's an IP address
	ip := net.ParseIP(hostname)
	if ip != nil {
		return isPrivateIP(ip)
	}

	return false
}

// isPrivateIP returns true for RFC1918, loopback, and link-local addresses.
func isPrivateIP(ip net.IP) bool {
	privateRanges := []struct {
		network *net.IPNet
	}{
		{mustParseCIDR("10.0.0.0/8")},
		{mustParseCIDR("172.16.0.0/12")},
		{mustParseCIDR("192.168.0.0/16")},
		{mustParseCIDR("127.0.0.0/8")},
		{mustParseCIDR("169.254.0.0/16")},   // link-local IPv4
		{mustParseCIDR("::1/128")},            // loopback IPv6
		{mustParseCIDR("fe80::/10")},          // link-local IPv6
		{mustParseCIDR("fc00::/7")},           // unique local IPv6
	}

	for _, r := range privateRanges {
		if r.network.Contains(ip) {
			return true
		}
	}
	return false
}

func mustParseCIDR(s string) *net.IPNet {
	_, network, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return network
}
