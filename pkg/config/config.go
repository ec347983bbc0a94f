// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"github.com/telekom/geotrace/internal/geo"
	"github.com/telekom/geotrace/internal/traceroute"
	"github.com/telekom/geotrace/pkg/api"
	"github.com/telekom/geotrace/pkg/geotrace/metrics"
)

// DefaultAddress is the address the API listens on if nothing is configured
const DefaultAddress = ":8080"

type Config struct {
	// Name is the DNS name of the geotrace instance.
	// It is exposed via the geotrace_instance_info metric if set.
	Name string `json:"name" yaml:"name" mapstructure:"name"`
	// Api is the configuration for the api server
	Api api.Config `json:"api" yaml:"api" mapstructure:"api"`
	// Trace is the configuration of the tracing utility
	Trace traceroute.Options `json:"trace" yaml:"trace" mapstructure:"trace"`
	// Geo is the configuration of the geolocation resolver
	Geo geo.Config `json:"geo" yaml:"geo" mapstructure:"geo"`
	// Telemetry is the configuration for the telemetry
	Telemetry metrics.Config `json:"telemetry" yaml:"telemetry" mapstructure:"telemetry"`
}

// Default returns the configuration used for every value not set by the user
func Default() Config {
	return Config{
		Api:   api.Config{ListeningAddress: DefaultAddress},
		Trace: traceroute.DefaultOptions(),
		Geo:   geo.DefaultConfig(),
	}
}

// HasTelemetry returns true if the config has telemetry enabled
func (c *Config) HasTelemetry() bool {
	return c.Telemetry.Enabled
}

// ProviderNames returns the configured provider kinds in query order
func (c *Config) ProviderNames() []string {
	names := make([]string, 0, len(c.Geo.Providers))
	for _, p := range c.Geo.Providers {
		names = append(names, string(p.Kind))
	}
	return names
}
