// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

var errNoPTR = errors.New("no PTR record")

// nameResolver looks up the host name of a hop address.
type nameResolver interface {
	lookupName(ctx context.Context, addr string) (string, error)
}

// dnsResolver queries PTR records from a single nameserver.
type dnsResolver struct {
	client *dns.Client
	server string
}

func newDNSResolver(cfg ReverseDNSConfig) nameResolver {
	return &dnsResolver{
		client: &dns.Client{Net: "udp", Timeout: cfg.Timeout},
		server: cfg.Server,
	}
}

func (r *dnsResolver) lookupName(ctx context.Context, addr string) (string, error) {
	arpa, err := dns.ReverseAddr(addr)
	if err != nil {
		return "", err
	}

	msg := new(dns.Msg)
	msg.SetQuestion(arpa, dns.TypePTR)

	in, _, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		return "", fmt.Errorf("failed to query %s: %w", arpa, err)
	}
	if in.Rcode != dns.RcodeSuccess {
		return "", fmt.Errorf("failed to query %s: %s", arpa, dns.RcodeToString[in.Rcode])
	}

	for _, rr := range in.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			return strings.TrimSuffix(ptr.Ptr, "."), nil
		}
	}
	return "", errNoPTR
}
