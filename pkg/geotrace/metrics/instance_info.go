// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	instanceInfoMetricName = "geotrace_instance_info"
	instanceInfoHelp       = "Build and runtime metadata of this geotrace instance."
)

// instanceInfoLabels are the metadata labels of the instance info metric
var instanceInfoLabels = []string{"version", "trace_binary", "providers"}

// RegisterInstanceInfo registers the geotrace_instance_info info-style metric on the given registry.
// It sets the gauge to 1 with the instance name and the known metadata labels.
// Missing metadata is exported as empty label.
func RegisterInstanceInfo(registry *prometheus.Registry, instanceName string, metadata map[string]string) error {
	info := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: instanceInfoMetricName,
			Help: instanceInfoHelp,
		},
		append([]string{"instance_name"}, instanceInfoLabels...),
	)

	values := []string{instanceName}
	for _, l := range instanceInfoLabels {
		values = append(values, metadata[l])
	}
	info.WithLabelValues(values...).Set(1)
	return registry.Register(info)
}
