// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/telekom/geotrace/internal/logger"
	"github.com/telekom/geotrace/pkg"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

var _ Provider = (*telemetry)(nil)

// serviceName is the name of the service in the exported traces
const serviceName = "geotrace"

// Limits of the batch span processor.
const (
	batchTimeout = 5 * time.Second
	maxQueueSize = 1000
	maxBatchSize = 100
)

// Provider owns the prometheus registry and the tracer provider of geotrace.
//
//go:generate go tool moq -out metrics_moq.go . Provider
type Provider interface {
	// GetRegistry returns the registry served on the metrics endpoint
	GetRegistry() *prometheus.Registry
	// Register adds the collectors of the trace pipeline to the registry
	Register(cs ...prometheus.Collector) error
	// InitTracing installs the global tracer provider
	InitTracing(ctx context.Context) error
	// Shutdown flushes and stops the tracer provider
	Shutdown(ctx context.Context) error
}

type telemetry struct {
	config   Config
	registry *prometheus.Registry
	tp       *sdktrace.TracerProvider
}

// New creates a registry with the go runtime and process collectors.
// Tracing is only set up by [Provider.InitTracing].
//
//nolint:gocritic
func New(config Config) Provider {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &telemetry{config: config, registry: registry}
}

func (t *telemetry) GetRegistry() *prometheus.Registry {
	return t.registry
}

// Register registers all collectors and reports every one that failed.
func (t *telemetry) Register(cs ...prometheus.Collector) error {
	var errs []error
	for _, c := range cs {
		if err := t.registry.Register(c); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to register collectors: %w", err)
	}
	return nil
}

// InitTracing installs a tracer provider that sends the spans of the trace
// pipeline to the configured exporter. Spans are dropped if telemetry is disabled.
func (t *telemetry) InitTracing(ctx context.Context) error {
	log := logger.FromContext(ctx)

	res, err := newResource(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create resource", "error", err)
		return fmt.Errorf("failed to create resource: %w", err)
	}

	exp := t.exporter()
	exporter, err := exp.Create(ctx, &t.config)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create exporter", "error", err)
		return fmt.Errorf("failed to create exporter: %w", err)
	}

	t.tp = newTracerProvider(exporter, res)
	otel.SetTracerProvider(t.tp)
	log.DebugContext(ctx, "Tracing initialized", "exporter", exp)
	return nil
}

// exporter returns the exporter that is used for the configuration.
func (t *telemetry) exporter() Exporter {
	if !t.config.Enabled {
		return NOOP
	}
	return t.config.Exporter
}

func (t *telemetry) Shutdown(ctx context.Context) error {
	if t.tp == nil {
		return nil
	}
	if err := t.tp.Shutdown(ctx); err != nil {
		logger.FromContext(ctx).ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
		return fmt.Errorf("failed to shutdown tracer provider: %w", err)
	}
	logger.FromContext(ctx).DebugContext(ctx, "Tracing shut down")
	return nil
}

// newResource describes the running geotrace instance.
func newResource(ctx context.Context) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithHost(),
		resource.WithContainer(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(pkg.VersionOrDev()),
		),
	)
}

func newTracerProvider(exporter sdktrace.SpanExporter, res *resource.Resource) *sdktrace.TracerProvider {
	bsp := sdktrace.NewBatchSpanProcessor(exporter,
		sdktrace.WithBatchTimeout(batchTimeout),
		sdktrace.WithMaxQueueSize(maxQueueSize),
		sdktrace.WithMaxExportBatchSize(maxBatchSize),
	)
	return sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSpanProcessor(bsp),
		sdktrace.WithResource(res),
	)
}
