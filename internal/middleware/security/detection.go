package security

import (
	"net"
	"net/http"
	"strings"
)

// Path and query fragments that almost never appear in legitimate wallet
// traffic.
var probePatterns = []string{
	"../", "..\\", ".env", ".git", ".ssh",
	"wp-admin", "phpmyadmin", "admin.php", "config.php",
	"<script", "javascript:", "union select", "etc/passwd",
}

var scannerAgents = []string{
	"sqlmap", "nikto", "nmap", "gobuster", "dirb", "scanner",
}

// Detector classifies incoming requests and resolves the real client IP
// behind trusted proxies.
type Detector struct {
	trustedProxies []*net.IPNet
}

// NewDetector trusts loopback and RFC 1918 ranges as proxy sources.
func NewDetector() *Detector {
	var nets []*net.IPNet
	for _, cidr := range []string{"127.0.0.0/8", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"} {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic("security: bad builtin CIDR " + cidr)
		}
		nets = append(nets, network)
	}
	return &Detector{trustedProxies: nets}
}

// DetectSuspiciousRequest reports whether the request looks like a probe.
// Callers log and continue; detection never blocks by itself.
func (d *Detector) DetectSuspiciousRequest(r *http.Request) bool {
	target := strings.ToLower(r.URL.Path + "?" + r.URL.RawQuery)
	for _, p := range probePatterns {
		if strings.Contains(target, p) {
			return true
		}
	}

	agent := strings.ToLower(r.Header.Get("User-Agent"))
	for _, a := range scannerAgents {
		if strings.Contains(agent, a) {
			return true
		}
	}

	switch r.Method {
	case "TRACE", "TRACK", "CONNECT":
		return true
	}

	if len(r.URL.String()) > 2048 {
		return true
	}

	return false
}

// ExtractClientIP resolves the originating client address. Forwarded headers
// are only honored when the direct peer is a trusted proxy.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	peer := net.ParseIP(host)
	if peer == nil || !d.isTrustedProxy(peer) {
		return host
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}

	return host
}

func (d *Detector) isTrustedProxy(ip net.IP) bool {
	for _, network := range d.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
