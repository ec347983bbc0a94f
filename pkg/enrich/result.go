// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package enrich

import (
	"encoding/json"
	"time"

	"github.com/telekom/geotrace/internal/geo"
	"github.com/telekom/geotrace/internal/traceroute"
)

// Hop is a traced hop with its classification and location.
// Private hops never carry a location.
type Hop struct {
	traceroute.Hop `yaml:",inline"`
	// IsPrivate is true for loopback, link-local and private addresses
	// and for hops that did not respond.
	IsPrivate   bool     `json:"isPrivate" yaml:"isPrivate"`
	Latitude    *float64 `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty" yaml:"longitude,omitempty"`
	City        string   `json:"city,omitempty" yaml:"city,omitempty"`
	Region      string   `json:"region,omitempty" yaml:"region,omitempty"`
	Country     string   `json:"country,omitempty" yaml:"country,omitempty"`
	CountryCode string   `json:"countryCode,omitempty" yaml:"countryCode,omitempty"`
}

// Located reports whether the hop carries coordinates.
func (h *Hop) Located() bool {
	return h.Latitude != nil && h.Longitude != nil
}

// locate merges the record into the hop.
func (h *Hop) locate(rec *geo.Record) {
	lat, lon := rec.Latitude, rec.Longitude
	h.Latitude = &lat
	h.Longitude = &lon
	h.City = rec.City
	h.Region = rec.Region
	h.Country = rec.Country
	h.CountryCode = rec.CountryCode
}

// Stats summarizes an enrichment run.
type Stats struct {
	TotalHops      int `json:"totalHops" yaml:"totalHops"`
	PublicHops     int `json:"publicHops" yaml:"publicHops"`
	GeolocatedHops int `json:"geolocatedHops" yaml:"geolocatedHops"`
	// Elapsed is the wall clock duration of the whole run.
	// It is serialized in milliseconds as elapsedMs.
	Elapsed time.Duration `json:"-" yaml:"-"`
}

// statsDocument is the serialized form of [Stats].
type statsDocument struct {
	TotalHops      int     `json:"totalHops" yaml:"totalHops"`
	PublicHops     int     `json:"publicHops" yaml:"publicHops"`
	GeolocatedHops int     `json:"geolocatedHops" yaml:"geolocatedHops"`
	ElapsedMs      float64 `json:"elapsedMs" yaml:"elapsedMs"`
}

func (s Stats) document() statsDocument {
	return statsDocument{
		TotalHops:      s.TotalHops,
		PublicHops:     s.PublicHops,
		GeolocatedHops: s.GeolocatedHops,
		ElapsedMs:      float64(s.Elapsed.Microseconds()) / 1000,
	}
}

// MarshalJSON encodes the stats with the elapsed time in milliseconds.
func (s Stats) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.document())
}

// MarshalYAML encodes the stats with the elapsed time in milliseconds.
func (s Stats) MarshalYAML() (any, error) {
	return s.document(), nil
}

// Result is the enriched path to a target.
type Result struct {
	// Target is the validated target as passed to the tracing utility.
	Target string `json:"target" yaml:"target"`
	Hops   []Hop  `json:"hops" yaml:"hops"`
	Stats  Stats  `json:"stats" yaml:"stats"`
}
