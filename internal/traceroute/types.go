// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

// Default values of the [Options].
const (
	DefaultBinary  = "mtr"
	DefaultCycles  = 3
	DefaultMaxHops = 30
	DefaultTimeout = 60 * time.Second
)

// maxTargetLength is the maximum length of a DNS name.
const maxTargetLength = 253

// targetPattern restricts the characters a target may contain.
// The target is passed to the tracing utility as an argument.
var targetPattern = regexp.MustCompile(`^[A-Za-z0-9.\-:_]+$`)

// Options contains the configuration of a trace run.
type Options struct {
	// Binary is the path or name of the mtr compatible tracing utility.
	Binary string `json:"binary" yaml:"binary" mapstructure:"binary"`
	// Cycles is the number of measurement rounds per hop.
	Cycles int `json:"cycles" yaml:"cycles" mapstructure:"cycles"`
	// MaxHops is the maximum number of hops (TTL) to probe.
	MaxHops int `json:"maxHops" yaml:"maxHops" mapstructure:"maxHops"`
	// Timeout bounds the whole run of the utility.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	// ReverseDNS configures the optional PTR lookups for unnamed hops.
	ReverseDNS ReverseDNSConfig `json:"reverseDns" yaml:"reverseDns" mapstructure:"reverseDns"`
}

// ReverseDNSConfig configures reverse lookups of hops the utility did not name.
type ReverseDNSConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	// Server is the nameserver to query, as host:port.
	Server  string        `json:"server" yaml:"server" mapstructure:"server"`
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Binary:  DefaultBinary,
		Cycles:  DefaultCycles,
		MaxHops: DefaultMaxHops,
		Timeout: DefaultTimeout,
		ReverseDNS: ReverseDNSConfig{
			Server:  "1.1.1.1:53",
			Timeout: 2 * time.Second,
		},
	}
}

// Validate checks the options for values the runner cannot work with.
func (o *Options) Validate() error {
	if o.Binary == "" {
		return ErrInvalidOptions{Field: "binary", Reason: "must not be empty"}
	}
	if o.Cycles <= 0 {
		return ErrInvalidOptions{Field: "cycles", Reason: "must be greater than 0"}
	}
	if o.MaxHops <= 0 || o.MaxHops > 255 {
		return ErrInvalidOptions{Field: "maxHops", Reason: "must be between 1 and 255"}
	}
	if o.Timeout <= 0 {
		return ErrInvalidOptions{Field: "timeout", Reason: "must be greater than 0"}
	}
	if o.ReverseDNS.Enabled {
		if o.ReverseDNS.Server == "" {
			return ErrInvalidOptions{Field: "reverseDns.server", Reason: "must not be empty"}
		}
		if o.ReverseDNS.Timeout <= 0 {
			return ErrInvalidOptions{Field: "reverseDns.timeout", Reason: "must be greater than 0"}
		}
	}
	return nil
}

// args builds the argument list of the utility. The target is always last.
// Name resolution of the utility is disabled so that every hop carries its
// address; names are looked up separately if reverse DNS is enabled.
func (o *Options) args(target string) []string {
	return []string{
		"--json",
		"--no-dns",
		"--report-cycles", strconv.Itoa(o.Cycles),
		"--max-ttl", strconv.Itoa(o.MaxHops),
		target,
	}
}

// NormalizeTarget converts internationalized host names to their ASCII form
// and validates the result with [ValidateTarget].
func NormalizeTarget(target string) (string, error) {
	if !isASCII(target) {
		ascii, err := idna.Lookup.ToASCII(target)
		if err != nil {
			return "", &ErrInvalidTarget{Target: target, Reason: fmt.Sprintf("not a valid host name: %v", err)}
		}
		target = ascii
	}
	if err := ValidateTarget(target); err != nil {
		return "", err
	}
	return target, nil
}

// ValidateTarget checks that the target is safe to be passed to the tracing utility.
func ValidateTarget(target string) error {
	switch {
	case target == "":
		return &ErrInvalidTarget{Target: target, Reason: "must not be empty"}
	case len(target) > maxTargetLength:
		return &ErrInvalidTarget{Target: target, Reason: fmt.Sprintf("must not be longer than %d characters", maxTargetLength)}
	case target[0] == '-':
		return &ErrInvalidTarget{Target: target, Reason: "must not start with a hyphen"}
	case !targetPattern.MatchString(target):
		return &ErrInvalidTarget{Target: target, Reason: "may only contain letters, digits, '.', '-', ':' and '_'"}
	}
	return nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// Hop is one step of a traced network path.
type Hop struct {
	// Index is the 1-based position of the hop along the path.
	Index int `json:"index" yaml:"index"`
	// Address is the address of the responding router; empty if the hop did not respond.
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
	// DisplayName is the host name of the hop, or its address if no name is known.
	DisplayName string `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	// RoundTripMs is the measured latency in milliseconds, nil if unmeasured.
	RoundTripMs *float64 `json:"roundTripMs,omitempty" yaml:"roundTripMs,omitempty"`
}

// Responded reports whether the hop has an address.
func (h Hop) Responded() bool {
	return h.Address != ""
}

func (h Hop) String() string {
	const maxNameLength = 45
	name := h.DisplayName
	if name == "" || len(name) > maxNameLength {
		name = h.Address
	}
	if name == "" {
		name = "*"
	}

	rtt := "-"
	if h.RoundTripMs != nil {
		rtt = strconv.FormatFloat(*h.RoundTripMs, 'f', 2, 64) + "ms"
	}

	return fmt.Sprintf("%-2d  %-45.45s  %s", h.Index, name, rtt)
}
