// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes of a provider lookup as recorded in the metrics.
const (
	outcomeAccepted = "accepted"
	outcomeDeclined = "declined"
	outcomeError    = "error"
)

// metrics defines the metric collectors of the resolver
type metrics struct {
	lookups  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	cache    *prometheus.CounterVec
}

// newMetrics initializes metric collectors of the resolver
func newMetrics() metrics {
	return metrics{
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geotrace_geo_lookups_total",
				Help: "Total number of provider lookups by provider and outcome.",
			},
			[]string{"provider", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "geotrace_geo_lookup_duration_seconds",
				Help:    "Histogram of provider lookup durations in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		cache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geotrace_geo_cache_requests_total",
				Help: "Total number of cache reads and if they were hits or misses.",
			},
			[]string{"result"},
		),
	}
}

// GetCollectors returns all metric collectors
func (m *metrics) GetCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.lookups,
		m.duration,
		m.cache,
	}
}

// observeLookup records the outcome and duration of one provider lookup
func (m *metrics) observeLookup(provider, outcome string, d time.Duration) {
	m.lookups.WithLabelValues(provider, outcome).Inc()
	m.duration.WithLabelValues(provider).Observe(d.Seconds())
}

// observeCache records a cache read
func (m *metrics) observeCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(result).Inc()
}
