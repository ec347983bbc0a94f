// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package enrich

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics defines the metric collectors of the pipeline
type metrics struct {
	runs     *prometheus.CounterVec
	duration prometheus.Histogram
	hops     *prometheus.HistogramVec
}

// newMetrics initializes metric collectors of the pipeline
func newMetrics() metrics {
	return metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geotrace_enrich_runs_total",
				Help: "Total number of pipeline runs and if the trace succeeded.",
			},
			[]string{"status"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "geotrace_enrich_duration_seconds",
				Help:    "Histogram of pipeline run durations in seconds.",
				Buckets: []float64{1, 2.5, 5, 10, 20, 30, 45, 60, 90, 120},
			},
		),
		hops: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "geotrace_enrich_hops",
				Help:    "Histogram of the number of hops per result by kind.",
				Buckets: prometheus.LinearBuckets(0, 5, 7),
			},
			[]string{"kind"},
		),
	}
}

// GetCollectors returns all metric collectors
func (m *metrics) GetCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.runs,
		m.duration,
		m.hops,
	}
}

// observeFailure records a run whose trace failed
func (m *metrics) observeFailure(d time.Duration) {
	m.runs.WithLabelValues("failure").Inc()
	m.duration.Observe(d.Seconds())
}

// observeResult records a successful run
func (m *metrics) observeResult(res *Result) {
	m.runs.WithLabelValues("success").Inc()
	m.duration.Observe(res.Stats.Elapsed.Seconds())
	m.hops.WithLabelValues("total").Observe(float64(res.Stats.TotalHops))
	m.hops.WithLabelValues("public").Observe(float64(res.Stats.PublicHops))
	m.hops.WithLabelValues("geolocated").Observe(float64(res.Stats.GeolocatedHops))
}
