// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/telekom/geotrace/pkg/config"
)

// flag maps a command line flag to its configuration key
type flag struct {
	key  string
	name string
}

// flags are the configuration flags of a command
type flags []flag

// bind binds the flags of the command to their configuration keys.
// It must run when the command is executed since the same key
// is bound by several commands.
func (f flags) bind(cmd *cobra.Command) error {
	for _, fl := range f {
		if err := viper.BindPFlag(fl.key, cmd.Flags().Lookup(fl.name)); err != nil {
			return fmt.Errorf("failed to bind flag %q: %w", fl.name, err)
		}
	}
	return nil
}

// pipelineFlags registers the flags configuring the trace and geolocation
func pipelineFlags(cmd *cobra.Command) flags {
	d := config.Default()
	f := cmd.Flags()

	f.String("traceBinary", d.Trace.Binary, "trace: path or name of the mtr compatible tracing utility")
	f.Int("traceCycles", d.Trace.Cycles, "trace: number of measurement rounds per hop")
	f.Int("traceMaxHops", d.Trace.MaxHops, "trace: maximum number of hops to probe")
	f.Duration("traceTimeout", d.Trace.Timeout, "trace: timeout of a whole trace run")
	f.Bool("traceReverseDns", d.Trace.ReverseDNS.Enabled, "trace: look up the names of hops the utility did not name")
	f.String("traceReverseDnsServer", d.Trace.ReverseDNS.Server, "trace: nameserver used for the reverse lookups")
	f.Duration("geoCacheTtl", d.Geo.CacheTTL, "geo: how long geolocation results are cached")
	f.Duration("geoTimeout", d.Geo.Timeout, "geo: timeout of a single provider request")
	f.Int("geoRetryCount", d.Geo.Retry.Count, "geo: retries of provider requests that failed in transport")

	return flags{
		{key: "trace.binary", name: "traceBinary"},
		{key: "trace.cycles", name: "traceCycles"},
		{key: "trace.maxHops", name: "traceMaxHops"},
		{key: "trace.timeout", name: "traceTimeout"},
		{key: "trace.reverseDns.enabled", name: "traceReverseDns"},
		{key: "trace.reverseDns.server", name: "traceReverseDnsServer"},
		{key: "geo.cacheTtl", name: "geoCacheTtl"},
		{key: "geo.timeout", name: "geoTimeout"},
		{key: "geo.retry.count", name: "geoRetryCount"},
	}
}

// loadConfig reads the configuration on top of the defaults
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
