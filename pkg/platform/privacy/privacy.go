// Package privacy reduces client identifiers to log-safe forms.
package privacy

import (
	"net"
	"strings"
)

// AnonymizeIP keeps the network part of an address for logs: /24 for IPv4 and
// /48 for IPv6. Unparseable input is returned as "invalid".
func AnonymizeIP(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	ip := net.ParseIP(raw)
	if ip == nil {
		return "invalid"
	}
	if v4 := ip.To4(); v4 != nil {
		return v4.Mask(net.CIDRMask(24, 32)).String() + "/24"
	}
	return ip.Mask(net.CIDRMask(48, 128)).String() + "/48"
}
