package telemetry

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type Settings struct {
	Endpoint string
	Insecure bool
	Timeout  time.Duration
}

// Init configures the global tracer provider. Without an endpoint spans are
// created but not exported. An exporter that cannot be built is logged and
// skipped; tracing never blocks startup.
func Init(ctx context.Context, serviceName string, settings Settings, logger *slog.Logger) (func(context.Context) error, error) {
	serviceName = strings.TrimSpace(serviceName)
	if serviceName == "" {
		serviceName = "nlu-webhook-relay"
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	))
	if err != nil {
		return nil, err
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	if endpoint := strings.TrimSpace(settings.Endpoint); endpoint != "" {
		exporterOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		if settings.Insecure {
			exporterOpts = append(exporterOpts, otlptracehttp.WithInsecure())
		}
		if settings.Timeout > 0 {
			exporterOpts = append(exporterOpts, otlptracehttp.WithTimeout(settings.Timeout))
		}

		exporter, err := otlptracehttp.New(ctx, exporterOpts...)
		if err != nil {
			logger.Warn("otel exporter disabled", "endpoint", endpoint, "error", err)
		} else {
			opts = append(opts, sdktrace.WithBatcher(exporter))
		}
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}
