package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "modcheck"

// Tracer is the package-wide tracer. Until InitTracing installs a provider it
// is backed by the global no-op provider.
var Tracer trace.Tracer = otel.Tracer(tracerName)

// InitTracing exports spans to an OTLP gRPC collector at endpoint. The
// returned function flushes and stops the exporter.
func InitTracing(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)
	Tracer = provider.Tracer(tracerName)

	return provider.Shutdown, nil
}
