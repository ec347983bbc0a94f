// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package geotrace

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/telekom/geotrace/internal/geo"
	"github.com/telekom/geotrace/internal/logger"
	"github.com/telekom/geotrace/internal/traceroute"
	"github.com/telekom/geotrace/pkg"
	"github.com/telekom/geotrace/pkg/api"
	"github.com/telekom/geotrace/pkg/config"
	"github.com/telekom/geotrace/pkg/enrich"
	"github.com/telekom/geotrace/pkg/geotrace/metrics"
)

const shutdownTimeout = time.Second * 90

// Geotrace is the main struct of the geotrace service
type Geotrace struct {
	// config is the startup configuration
	config *config.Config
	// api serves the trace endpoint
	api api.API
	// metrics is used to collect metrics
	metrics metrics.Provider
	// pipeline traces and geolocates the requested targets
	pipeline *enrich.Pipeline
	// cErr is used to handle non-recoverable errors of the components
	cErr chan error
	// cDone is used to signal that geotrace was shut down
	cDone chan struct{}
	// shutOnce is used to ensure that the shutdown function is only called once
	shutOnce sync.Once
}

// New creates the geotrace service from a validated configuration
func New(cfg *config.Config) (*Geotrace, error) {
	m := metrics.New(cfg.Telemetry)

	pipeline, collectors, err := NewPipeline(cfg)
	if err != nil {
		return nil, err
	}
	if err = m.Register(collectors...); err != nil {
		return nil, err
	}

	err = metrics.RegisterInstanceInfo(m.GetRegistry(), cfg.Name, map[string]string{
		"version":      pkg.VersionOrDev(),
		"trace_binary": cfg.Trace.Binary,
		"providers":    strings.Join(cfg.ProviderNames(), ","),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register instance info: %w", err)
	}

	return &Geotrace{
		config:   cfg,
		api:      api.New(cfg.Api),
		metrics:  m,
		pipeline: pipeline,
		cErr:     make(chan error, 1),
		cDone:    make(chan struct{}, 1),
		shutOnce: sync.Once{},
	}, nil
}

// NewPipeline wires the enrichment pipeline of the configuration.
// The returned collectors expose the metrics of the pipeline and its resolver.
func NewPipeline(cfg *config.Config) (*enrich.Pipeline, []prometheus.Collector, error) {
	providers, err := geo.NewProviders(cfg.Geo)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create geo providers: %w", err)
	}

	resolver := geo.NewResolver(geo.NewCache(cfg.Geo.CacheTTL), providers, cfg.Geo.Retry)
	pipeline := enrich.New(traceroute.NewClient(), resolver, cfg.Trace)

	var collectors []prometheus.Collector
	collectors = append(collectors, resolver.GetMetricCollectors()...)
	collectors = append(collectors, pipeline.GetMetricCollectors()...)
	return pipeline, collectors, nil
}

// Run starts geotrace and blocks until it is shut down
func (g *Geotrace) Run(ctx context.Context) error {
	ctx, cancel := logger.NewContextWithLogger(ctx)
	log := logger.FromContext(ctx)
	defer cancel()

	err := g.metrics.InitTracing(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	go func() {
		g.cErr <- g.startupAPI(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			g.shutdown(ctx)
		case err := <-g.cErr:
			if err != nil {
				log.ErrorContext(ctx, "Non-recoverable error in geotrace component", "error", err)
			}
			g.shutdown(ctx)
		case <-g.cDone:
			log.InfoContext(ctx, "Geotrace was shut down")
			return ErrFinalShutdown
		}
	}
}

// startupAPI registers the routes and serves the API
func (g *Geotrace) startupAPI(ctx context.Context) error {
	if err := g.api.RegisterRoutes(ctx, g.routes(ctx)...); err != nil {
		return fmt.Errorf("failed to register routes: %w", err)
	}
	return g.api.Run(ctx)
}

// shutdown shuts down geotrace and all managed components gracefully.
// Errors of the components are logged.
func (g *Geotrace) shutdown(ctx context.Context) {
	errC := ctx.Err()
	log := logger.FromContext(ctx)
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	g.shutOnce.Do(func() {
		log.InfoContext(ctx, "Shutting down geotrace")
		var sErrs ErrShutdown
		sErrs.errAPI = g.api.Shutdown(ctx)
		sErrs.errMetrics = g.metrics.Shutdown(ctx)

		if sErrs.HasError() {
			log.ErrorContext(ctx, "Failed to shutdown gracefully", "contextError", errC,
				"apiError", sErrs.errAPI, "metricsError", sErrs.errMetrics)
		}

		// Signal that shutdown is complete
		g.cDone <- struct{}{}
	})
}
