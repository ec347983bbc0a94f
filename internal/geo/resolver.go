// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/telekom/geotrace/internal/helper"
	"github.com/telekom/geotrace/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// Resolver resolves addresses to locations using a cache and an ordered
// list of providers.
type Resolver struct {
	cache     *Cache
	providers []Provider
	retry     helper.RetryConfig
	group     singleflight.Group
	metrics   metrics
	tracer    trace.Tracer

	mu      sync.Mutex
	flights map[string]*flight
}

// flight is the context of the provider run shared by all callers waiting
// for the same address. It is canceled once every caller has left.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// NewResolver creates a resolver that queries the providers in the given order.
func NewResolver(cache *Cache, providers []Provider, retry helper.RetryConfig) *Resolver {
	return &Resolver{
		cache:     cache,
		providers: providers,
		retry:     retry,
		metrics:   newMetrics(),
		tracer:    otel.Tracer("geo"),
		flights:   map[string]*flight{},
	}
}

// Resolve returns the location of the address or nil if no provider knows it.
// Cached results, including negative ones, are returned without querying
// a provider. Concurrent calls for the same address share one provider run,
// which is only canceled when all of them are canceled. A canceled call
// returns nil.
func (r *Resolver) Resolve(ctx context.Context, addr string) *Record {
	ctx, span := r.tracer.Start(ctx, "geo.resolve", trace.WithAttributes(
		attribute.String("geo.address", addr),
	))
	defer span.End()

	if entry, ok := r.cache.Get(addr); ok {
		r.metrics.observeCache(true)
		span.SetAttributes(attribute.Bool("geo.cached", true), attribute.Bool("geo.found", entry.Record != nil))
		return entry.Record
	}
	r.metrics.observeCache(false)

	f := r.join(ctx, addr)
	defer r.leave(addr, f)

	for {
		ch := r.group.DoChan(addr, func() (any, error) {
			if entry, ok := r.cache.Get(addr); ok {
				return entry.Record, nil
			}

			rec := r.lookup(f.ctx, addr)
			// A canceled lookup says nothing about the address.
			if err := f.ctx.Err(); err != nil {
				return nil, err
			}
			r.cache.Put(addr, rec)
			return rec, nil
		})

		select {
		case res := <-ch:
			// The flight was started by callers that all left before this one joined.
			if res.Err != nil && ctx.Err() == nil {
				continue
			}
			rec, _ := res.Val.(*Record)
			span.SetAttributes(
				attribute.Bool("geo.cached", false),
				attribute.Bool("geo.shared", res.Shared),
				attribute.Bool("geo.found", rec != nil),
			)
			return rec
		case <-ctx.Done():
			logger.FromContext(ctx).DebugContext(ctx, "Resolution canceled", "address", addr, "error", ctx.Err())
			span.SetAttributes(attribute.Bool("geo.canceled", true))
			return nil
		}
	}
}

// join registers the caller as waiting for the address and returns the
// flight it shares with the other callers.
func (r *Resolver) join(ctx context.Context, addr string) *flight {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flights[addr]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		r.flights[addr] = f
	}
	f.waiters++
	return f
}

// leave unregisters the caller and cancels the flight if it was the last one.
func (r *Resolver) leave(addr string, f *flight) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	if r.flights[addr] == f {
		delete(r.flights, addr)
	}
	f.cancel()
}

// lookup asks the providers in order and returns the first accepted record.
func (r *Resolver) lookup(ctx context.Context, addr string) *Record {
	log := logger.FromContext(ctx).With("address", addr)

	for _, p := range r.providers {
		if ctx.Err() != nil {
			log.DebugContext(ctx, "Resolution canceled", "error", ctx.Err())
			return nil
		}

		var answer Answer
		start := time.Now()
		err := helper.Retry(func(ctx context.Context) error {
			a, err := p.Lookup(ctx, addr)
			if err != nil {
				return err
			}
			answer = a
			return nil
		}, r.retry)(ctx)
		elapsed := time.Since(start)

		switch {
		case err != nil:
			r.metrics.observeLookup(p.Name(), outcomeError, elapsed)
			log.WarnContext(ctx, "Geolocation provider failed", "provider", p.Name(), "error", err)
		case !answer.Ok():
			r.metrics.observeLookup(p.Name(), outcomeDeclined, elapsed)
			log.DebugContext(ctx, "Geolocation provider declined", "provider", p.Name(), "reason", answer.Reason)
		default:
			r.metrics.observeLookup(p.Name(), outcomeAccepted, elapsed)
			rec := *answer.Record
			rec.Provider = p.Name()
			log.DebugContext(ctx, "Address located", "provider", p.Name(), "city", rec.City, "country", rec.CountryCode)
			return &rec
		}
	}

	log.InfoContext(ctx, "No geolocation provider could locate address", "providers", len(r.providers))
	return nil
}

// GetMetricCollectors returns all metric collectors of the resolver
func (r *Resolver) GetMetricCollectors() []prometheus.Collector {
	return r.metrics.GetCollectors()
}
