package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTimer(t *testing.T) (Timer, *tracetest.SpanRecorder, *bytes.Buffer) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewTimer(logger, tp.Tracer("test")), recorder, &buf
}

func TestTimerRecordsSpanAndLog(t *testing.T) {
	timer, recorder, buf := newRecordingTimer(t)

	_, done := timer.Start(context.Background(), "call_case", attribute.String("call_case", "slot_filling"))
	done(nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "call_case" {
		t.Fatalf("unexpected span name %q", spans[0].Name())
	}
	if spans[0].Status().Code == codes.Error {
		t.Fatal("successful operation marked as error")
	}

	out := buf.String()
	if !strings.Contains(out, "call_case. Elapsed time:") || !strings.Contains(out, "call_case=slot_filling") {
		t.Fatalf("unexpected log output: %s", out)
	}
}

func TestTimerRecordsError(t *testing.T) {
	timer, recorder, buf := newRecordingTimer(t)

	_, done := timer.Start(context.Background(), "call_case")
	done(errors.New("custom code failed"))

	spans := recorder.Ended()
	if len(spans) != 1 || spans[0].Status().Code != codes.Error {
		t.Fatalf("expected one errored span, got %+v", spans)
	}
	if !strings.Contains(buf.String(), "custom code failed") {
		t.Fatalf("error missing from log: %s", buf.String())
	}
}

type ctxKey struct{}

func TestNopTimer(t *testing.T) {
	ctx := context.WithValue(context.Background(), ctxKey{}, "v")
	got, done := NopTimer{}.Start(ctx, "anything")
	done(nil)
	if got != ctx {
		t.Fatal("NopTimer must return the given context")
	}
}

func TestInitWithoutEndpoint(t *testing.T) {
	shutdown, err := Init(context.Background(), "", Settings{}, slog.Default())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
