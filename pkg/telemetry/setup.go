// Package telemetry sets up OpenTelemetry metrics export over OTLP/gRPC.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Options configures the exporter.
type Options struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string        // host:port of the collector
	Insecure       bool          // plaintext gRPC
	Interval       time.Duration // export period
}

func (o Options) withDefaults() Options {
	if o.ServiceName == "" {
		o.ServiceName = "qrscan"
	}
	if o.Endpoint == "" {
		o.Endpoint = "localhost:4317"
	}
	if o.Interval <= 0 {
		o.Interval = 10 * time.Second
	}
	return o
}

// ShutdownFunc flushes and stops the exporter.
type ShutdownFunc func(context.Context) error

// Setup installs a global meter provider exporting to the collector.
// The returned provider is also the global one.
func Setup(ctx context.Context, opts Options) (*metric.MeterProvider, ShutdownFunc, error) {
	opts = opts.withDefaults()

	attrs := []resource.Option{
		resource.WithAttributes(semconv.ServiceName(opts.ServiceName)),
	}
	if opts.ServiceVersion != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.ServiceVersion(opts.ServiceVersion)))
	}
	res, err := resource.New(ctx, attrs...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporterOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(opts.Endpoint)}
	if opts.Insecure {
		exporterOpts = append(exporterOpts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	mp := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(opts.Interval))),
	)
	otel.SetMeterProvider(mp)

	return mp, func(ctx context.Context) error {
		if err := mp.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown meter provider: %w", err)
		}
		return nil
	}, nil
}
