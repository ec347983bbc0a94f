// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"fmt"
	"math"

	"github.com/tidwall/gjson"
)

// Record is the normalized geolocation of an address.
type Record struct {
	Latitude    float64 `json:"latitude" yaml:"latitude"`
	Longitude   float64 `json:"longitude" yaml:"longitude"`
	City        string  `json:"city,omitempty" yaml:"city,omitempty"`
	Region      string  `json:"region,omitempty" yaml:"region,omitempty"`
	Country     string  `json:"country,omitempty" yaml:"country,omitempty"`
	CountryCode string  `json:"countryCode,omitempty" yaml:"countryCode,omitempty"`
	// Provider is the name of the provider that answered.
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
}

// Outcome tells whether a provider answered a lookup.
type Outcome int

const (
	// Declined means the provider had no usable location for the address.
	Declined Outcome = iota
	// Accepted means the provider returned valid coordinates.
	Accepted
)

func (o Outcome) String() string {
	if o == Accepted {
		return "accepted"
	}
	return "declined"
}

// Answer is the result of a single provider lookup.
type Answer struct {
	Outcome Outcome
	// Record is set if the answer was accepted.
	Record *Record
	// Reason explains why the provider declined.
	Reason string
}

// Accept returns an accepted answer carrying the record.
func Accept(rec *Record) Answer {
	return Answer{Outcome: Accepted, Record: rec}
}

// Decline returns a declined answer with the formatted reason.
func Decline(format string, args ...any) Answer {
	return Answer{Outcome: Declined, Reason: fmt.Sprintf(format, args...)}
}

// Ok reports whether the answer was accepted.
func (a Answer) Ok() bool {
	return a.Outcome == Accepted && a.Record != nil
}

// coordinates reads the latitude and longitude fields of a provider document.
// Both must be JSON numbers within the valid range.
func coordinates(doc gjson.Result, latKey, lonKey string) (lat, lon float64, err error) {
	latField, lonField := doc.Get(latKey), doc.Get(lonKey)
	if latField.Type != gjson.Number || lonField.Type != gjson.Number {
		return 0, 0, fmt.Errorf("coordinates %q and %q must be numbers", latKey, lonKey)
	}

	lat, lon = latField.Num, lonField.Num
	switch {
	case math.IsNaN(lat) || lat < -90 || lat > 90:
		return 0, 0, fmt.Errorf("latitude %v is out of range", lat)
	case math.IsNaN(lon) || lon < -180 || lon > 180:
		return 0, 0, fmt.Errorf("longitude %v is out of range", lon)
	}
	return lat, lon, nil
}
