// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package netaddr classifies hop addresses before they are handed to
// external geolocation services.
package netaddr

import (
	"net/netip"
	"strings"
)

// reserved holds the loopback, link-local and RFC 1918 ranges.
// Addresses inside these ranges are never sent to a geolocation provider.
var reserved = []netip.Prefix{
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("fe80::/10"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
}

// IsPrivate reports whether addr is private or non-routable.
// An empty address counts as private, anything that is not inside one of
// the reserved ranges (including text that does not parse as an IP) as public.
func IsPrivate(addr string) bool {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return true
	}

	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return false
	}
	ip = ip.Unmap().WithZone("")

	for _, p := range reserved {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}
