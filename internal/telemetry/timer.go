package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Timer measures a scoped operation. Start returns the context to run the
// operation with and a func that must be called exactly once when it ends.
type Timer interface {
	Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(err error))
}

type NopTimer struct{}

func (NopTimer) Start(ctx context.Context, _ string, _ ...attribute.KeyValue) (context.Context, func(error)) {
	return ctx, func(error) {}
}

type spanTimer struct {
	logger *slog.Logger
	tracer trace.Tracer
}

// NewTimer returns a Timer that opens a span per operation and logs the
// elapsed time at debug level.
func NewTimer(logger *slog.Logger, tracer trace.Tracer) Timer {
	return &spanTimer{logger: logger, tracer: tracer}
}

func (t *spanTimer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	start := time.Now()

	return ctx, func(err error) {
		elapsed := time.Since(start)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		args := make([]any, 0, 2*len(attrs)+2)
		for _, kv := range attrs {
			args = append(args, string(kv.Key), kv.Value.Emit())
		}
		if err != nil {
			args = append(args, "error", err)
		}
		t.logger.DebugContext(ctx, fmt.Sprintf("%s. Elapsed time: %.5f", name, elapsed.Seconds()), args...)
	}
}
