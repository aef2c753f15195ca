// Package otel wires OpenTelemetry tracing for the service.
package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"bookstore/pkg/logger"
)

// Config describes where traces go.
type Config struct {
	ServiceName string
	Host        string
	Probability float64
}

type tracerKey struct{}

// InitTracing installs a global tracer provider. With no Host configured the
// provider samples spans but exports nothing.
func InitTracing(log *logger.Logger, cfg Config) (*sdktrace.TracerProvider, func(context.Context) error, error) {
	ctx := context.Background()

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Probability))),
		sdktrace.WithResource(res),
	}
	if cfg.Host != "" {
		exp, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.Host),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("create exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
		log.Info(ctx, "tracing enabled", "host", cfg.Host, "probability", cfg.Probability)
	} else {
		log.Warn(ctx, "OTEL_HOST not set, spans are not exported")
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp, tp.Shutdown, nil
}

// InjectTracing stores tracer in ctx so AddSpan uses it.
func InjectTracing(ctx context.Context, tracer trace.Tracer) context.Context {
	return context.WithValue(ctx, tracerKey{}, tracer)
}

// AddSpan starts a span named name with the tracer carried by ctx, falling
// back to the global provider.
func AddSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	tracer, ok := ctx.Value(tracerKey{}).(trace.Tracer)
	if !ok {
		tracer = otel.Tracer("bookstore")
	}
	return tracer.Start(ctx, name)
}

// GetTraceID returns the trace id of the span in ctx, or "" when there is none.
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
