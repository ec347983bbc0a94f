// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"bufio"
	"bytes"
	"math"
	"net/netip"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Format identifies which decoder produced a hop list.
type Format string

const (
	// FormatStructured is the JSON report of the utility.
	FormatStructured Format = "json"
	// FormatText is the line based report of the utility.
	FormatText Format = "text"
)

// noResponse is the host label the utility prints for hops without an answer.
const noResponse = "???"

var (
	// hopLinePattern matches report lines like "  3.|-- host (1.2.3.4) ...".
	hopLinePattern    = regexp.MustCompile(`^\s*(\d+)\.\|--(.*)$`)
	dottedQuadPattern = regexp.MustCompile(`\b\d{1,3}(?:\.\d{1,3}){3}\b`)
	rttPattern        = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*ms\b`)
)

// latencyFields lists the latency fields of a structured hop entry in
// order of preference. Each group holds the accepted spellings of one field.
var latencyFields = [][]string{
	{"Avg", "avg"},
	{"Last", "last"},
	{"Best", "best"},
	{"Wrst", "Worst", "worst", "wrst"},
}

// Parse decodes the raw output of the tracing utility into an ordered hop list.
// The structured decoder is tried first, the text decoder is the fallback.
// Parse never fails: output neither decoder understands yields an empty list.
func Parse(raw []byte) []Hop {
	hops, _ := parse(raw)
	return hops
}

func parse(raw []byte) ([]Hop, Format) {
	hops, err := decodeStructured(raw)
	if err == nil {
		return normalizeHops(hops), FormatStructured
	}
	return normalizeHops(decodeText(raw)), FormatText
}

// decodeStructured decodes a JSON report holding the hop entries in report.hubs.
func decodeStructured(raw []byte) ([]Hop, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errNotStructured
	}
	hubs := gjson.GetBytes(raw, "report.hubs")
	if !hubs.IsArray() {
		return nil, errNotStructured
	}

	hops := []Hop{}
	position := 0
	hubs.ForEach(func(_, hub gjson.Result) bool {
		position++
		if hub.IsObject() {
			hops = append(hops, decodeHub(hub, position))
		}
		return true
	})
	return hops, nil
}

// decodeHub converts one structured hop entry.
// A dotted quad host label is taken as the hop address even if an explicit
// address field is present. This is a heuristic: a host name that looks like
// an address is misclassified. A host label that is no address and comes
// without an address field leaves the hop without address.
func decodeHub(hub gjson.Result, position int) Hop {
	hop := Hop{Index: position}
	if count := hub.Get("count"); count.Exists() && count.Int() > 0 {
		hop.Index = int(count.Int())
	}

	ident := firstString(hub, "host", "hostname", "ip", "address")
	explicit := firstString(hub, "ip", "address")

	hop.DisplayName = ident
	switch {
	case isDottedQuad(ident):
		hop.Address = ident
	case explicit != "":
		hop.Address = explicit
	case isAddress(ident):
		hop.Address = ident
	}

	for _, group := range latencyFields {
		if v, ok := firstLatency(hub, group...); ok {
			hop.RoundTripMs = &v
			break
		}
	}
	return hop
}

// decodeText scans the line based report. Only lines starting with a hop
// number followed by the "|--" marker are taken into account.
func decodeText(raw []byte) []Hop {
	hops := []Hop{}
	counter := 0

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		m := hopLinePattern.FindStringSubmatch(strings.TrimRight(scanner.Text(), "\r"))
		if m == nil {
			continue
		}
		counter++

		index, err := strconv.Atoi(m[1])
		if err != nil || index <= 0 {
			index = counter
		}
		hops = append(hops, decodeHopLine(index, m[2]))
	}
	return hops
}

// decodeHopLine extracts the hop fields from the part of a report line after the marker.
func decodeHopLine(index int, rest string) Hop {
	hop := Hop{Index: index}

	for _, candidate := range dottedQuadPattern.FindAllString(rest, -1) {
		if isDottedQuad(candidate) {
			hop.Address = candidate
			break
		}
	}

	if fields := strings.Fields(rest); len(fields) > 0 {
		token := fields[0]
		if token != noResponse && !strings.HasPrefix(token, "(") {
			hop.DisplayName = token
		}
	}
	if hop.DisplayName == "" {
		hop.DisplayName = hop.Address
	}

	if m := rttPattern.FindStringSubmatch(rest); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			hop.RoundTripMs = &v
		}
	}
	return hop
}

// normalizeHops sorts the hops by their reported index, drops duplicate
// indices keeping the first occurrence and renumbers them from 1.
func normalizeHops(hops []Hop) []Hop {
	if len(hops) == 0 {
		return []Hop{}
	}

	slices.SortStableFunc(hops, func(a, b Hop) int {
		return a.Index - b.Index
	})

	normalized := make([]Hop, 0, len(hops))
	seen := make(map[int]bool, len(hops))
	for _, hop := range hops {
		if seen[hop.Index] {
			continue
		}
		seen[hop.Index] = true
		hop.Index = len(normalized) + 1
		normalized = append(normalized, hop)
	}
	return normalized
}

// firstString returns the first non-empty string field of the given keys.
func firstString(r gjson.Result, keys ...string) string {
	for _, key := range keys {
		v := r.Get(key)
		if v.Type != gjson.String {
			continue
		}
		s := strings.TrimSpace(v.Str)
		if s != "" && s != noResponse {
			return s
		}
	}
	return ""
}

// firstLatency returns the first usable latency of the given keys.
// Numbers and numeric strings are accepted as long as they are finite and not negative.
func firstLatency(r gjson.Result, keys ...string) (float64, bool) {
	for _, key := range keys {
		v := r.Get(key)

		var f float64
		switch v.Type {
		case gjson.Number:
			f = v.Num
		case gjson.String:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
			if err != nil {
				continue
			}
			f = parsed
		default:
			continue
		}

		if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			continue
		}
		return f, true
	}
	return 0, false
}

// isDottedQuad reports whether s is an IPv4 address in dotted quad notation.
func isDottedQuad(s string) bool {
	if strings.Count(s, ".") != 3 {
		return false
	}
	ip, err := netip.ParseAddr(s)
	return err == nil && ip.Is4()
}

// isAddress reports whether s is an IPv4 or IPv6 address.
func isAddress(s string) bool {
	_, err := netip.ParseAddr(s)
	return err == nil
}
