// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package enrich

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/telekom/geotrace/internal/geo"
	"github.com/telekom/geotrace/internal/logger"
	"github.com/telekom/geotrace/internal/netaddr"
	"github.com/telekom/geotrace/internal/traceroute"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Resolver resolves an address to its location.
//
//go:generate go tool moq -out resolver_moq.go . Resolver
type Resolver interface {
	// Resolve returns the location of the address or nil if it is unknown.
	Resolve(ctx context.Context, addr string) *geo.Record
}

// Pipeline traces the path to a target and geolocates its public hops.
type Pipeline struct {
	client   traceroute.Client
	resolver Resolver
	opts     traceroute.Options
	metrics  metrics
	tracer   trace.Tracer
}

// New creates a pipeline that traces with the client and options and
// locates hops with the resolver.
func New(client traceroute.Client, resolver Resolver, opts traceroute.Options) *Pipeline {
	return &Pipeline{
		client:   client,
		resolver: resolver,
		opts:     opts,
		metrics:  newMetrics(),
		tracer:   otel.Tracer("enrich"),
	}
}

// Enrich traces the path to the target and returns the hops together with
// their location. It fails with an *ErrPipeline only if the trace itself failed.
// Hops are located one after another in path order.
func (p *Pipeline) Enrich(ctx context.Context, target string) (*Result, error) {
	ctx, span := p.tracer.Start(ctx, "enrich.run", trace.WithAttributes(
		attribute.String("enrich.target", target),
	))
	defer span.End()
	log := logger.FromContext(ctx).With("target", target)
	start := time.Now()

	opts := p.opts
	hops, err := p.client.Run(ctx, target, &opts)
	if err != nil {
		p.metrics.observeFailure(time.Since(start))
		span.SetStatus(codes.Error, "trace failed")
		span.RecordError(err)
		log.ErrorContext(ctx, "Failed to trace target", "error", err)
		return nil, &ErrPipeline{Target: target, Err: err}
	}

	res := &Result{
		Target: target,
		Hops:   make([]Hop, 0, len(hops)),
	}
	for _, h := range hops {
		hop := Hop{Hop: h, IsPrivate: netaddr.IsPrivate(h.Address)}
		res.Stats.TotalHops++

		if !hop.IsPrivate {
			res.Stats.PublicHops++
			if rec := p.resolver.Resolve(ctx, h.Address); rec != nil {
				hop.locate(rec)
				res.Stats.GeolocatedHops++
			}
		}
		res.Hops = append(res.Hops, hop)
	}
	res.Stats.Elapsed = time.Since(start)

	p.metrics.observeResult(res)
	span.SetAttributes(
		attribute.Int("enrich.hops.total", res.Stats.TotalHops),
		attribute.Int("enrich.hops.public", res.Stats.PublicHops),
		attribute.Int("enrich.hops.geolocated", res.Stats.GeolocatedHops),
	)
	span.SetStatus(codes.Ok, "")
	log.InfoContext(ctx, "Enriched trace",
		"hops", res.Stats.TotalHops,
		"public", res.Stats.PublicHops,
		"geolocated", res.Stats.GeolocatedHops,
		"duration", res.Stats.Elapsed,
	)
	return res, nil
}

// GetMetricCollectors returns all metric collectors of the pipeline
func (p *Pipeline) GetMetricCollectors() []prometheus.Collector {
	return p.metrics.GetCollectors()
}
