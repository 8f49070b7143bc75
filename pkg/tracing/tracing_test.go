package tracing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pama-lee/ordo/pkg/tracing"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder
}

func TestDefaultConfig(t *testing.T) {
	cfg := tracing.DefaultConfig()
	if cfg.ServiceName != "ordo" {
		t.Fatalf("ServiceName = %q, want ordo", cfg.ServiceName)
	}
	if cfg.ExporterType != "stdout" {
		t.Fatalf("ExporterType = %q, want stdout", cfg.ExporterType)
	}
	if cfg.SamplingRate != 1.0 {
		t.Fatalf("SamplingRate = %v, want 1.0", cfg.SamplingRate)
	}
}

func TestInitTracingDisabled(t *testing.T) {
	cfg := tracing.DefaultConfig()
	cfg.Enabled = false
	tp, err := tracing.InitTracing(cfg)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestInitTracingStdout(t *testing.T) {
	cfg := tracing.DefaultConfig()
	tp, err := tracing.InitTracing(cfg)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	defer tp.Shutdown(context.Background())

	tracer := tp.GetTracer("test")
	if tracer == nil {
		t.Fatalf("GetTracer returned nil")
	}
}

func TestStartSpanAndTraceID(t *testing.T) {
	withRecorder(t)

	ctx, span := tracing.StartSpan(context.Background(), "unit.test")
	if tracing.GetTraceID(ctx) == "" {
		t.Fatalf("expected non-empty trace ID")
	}
	if tracing.GetSpanID(ctx) == "" {
		t.Fatalf("expected non-empty span ID")
	}
	span.End()
}

func TestAddEventAndSetAttributes(t *testing.T) {
	recorder := withRecorder(t)

	ctx, span := tracing.StartSpan(context.Background(), "unit.event")
	tracing.AddEvent(ctx, "did_thing")
	tracing.SetAttributes(ctx)
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	if len(spans[0].Events()) != 1 || spans[0].Events()[0].Name != "did_thing" {
		t.Fatalf("expected one did_thing event, got %+v", spans[0].Events())
	}
}

func TestSetErrorMarksSpan(t *testing.T) {
	recorder := withRecorder(t)

	ctx, span := tracing.StartSpan(context.Background(), "unit.error")
	tracing.SetError(ctx, errors.New("boom"))
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	if spans[0].Status().Description != "boom" {
		t.Fatalf("status description = %q, want boom", spans[0].Status().Description)
	}
}

func TestWithSpanPropagatesError(t *testing.T) {
	withRecorder(t)

	want := errors.New("failed")
	got := tracing.WithSpan(context.Background(), "unit.withspan", func(ctx context.Context) error {
		return want
	})
	if !errors.Is(got, want) {
		t.Fatalf("WithSpan err = %v, want %v", got, want)
	}
}

func TestIsTracingEnabled(t *testing.T) {
	t.Setenv("OTEL_SDK_DISABLED", "")
	if !tracing.IsTracingEnabled() {
		t.Fatalf("expected tracing enabled by default")
	}
	t.Setenv("OTEL_SDK_DISABLED", "true")
	if tracing.IsTracingEnabled() {
		t.Fatalf("expected tracing disabled when OTEL_SDK_DISABLED=true")
	}
}

func TestSpanKindOptionsDistinct(t *testing.T) {
	recorder := withRecorder(t)

	_, span := tracing.StartSpan(context.Background(), "unit.kind", tracing.SpanKind.Server)
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
}
