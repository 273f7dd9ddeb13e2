package tracing

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestInit_DisabledIsNoop(t *testing.T) {
	shutdown, err := Init(false, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, span := Start(context.Background(), "noop", attribute.Int64("note_id", 1))
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown of disabled tracer should not fail: %v", err)
	}
}

func TestInit_Enabled(t *testing.T) {
	shutdown, err := Init(true, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, span := Start(context.Background(), "quiz.submit")
	if !span.SpanContext().IsValid() {
		t.Fatalf("expected a recording span when tracing is enabled")
	}
	span.End()

	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
}
