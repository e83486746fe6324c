// Package tracing sets up the OpenTelemetry tracer used around image processing.
package tracing

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config controls span export.
type Config struct {
	// Enabled turns on OTLP export. When false a no-op tracer is used.
	Enabled bool `mapstructure:"enabled"`

	// Endpoint is the OTLP gRPC collector address (host:port). Empty uses the
	// exporter default or OTEL_EXPORTER_OTLP_ENDPOINT.
	Endpoint string `mapstructure:"endpoint"`

	// Insecure disables TLS to the collector.
	Insecure bool `mapstructure:"insecure"`

	// ServiceName is reported as service.name.
	ServiceName string `mapstructure:"service_name"`
}

// DefaultConfig returns a disabled tracing configuration.
func DefaultConfig() Config {
	return Config{
		ServiceName: "image-intensity",
		Insecure:    true,
	}
}

// ShutdownFunc flushes pending spans and stops the exporter.
type ShutdownFunc func(context.Context) error

// NoopTracer returns a tracer that records nothing.
func NoopTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer("no-op")
}

// New creates a tracer for cfg. The returned ShutdownFunc is never nil.
func New(ctx context.Context, cfg Config, version string) (trace.Tracer, ShutdownFunc, error) {
	if !cfg.Enabled {
		return NoopTracer(), func(context.Context) error { return nil }, nil
	}

	var opts []otlptracegrpc.Option
	if cfg.Endpoint != "" {
		opts = append(opts, otlptracegrpc.WithEndpoint(cfg.Endpoint))
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient(opts...))
	if err != nil {
		return nil, nil, errors.Wrap(err, "create trace exporter failed")
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(newResource(cfg.ServiceName, version)),
	)

	return tp.Tracer(cfg.ServiceName), tp.Shutdown, nil
}

func newResource(serviceName, serviceVersion string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	)
}
