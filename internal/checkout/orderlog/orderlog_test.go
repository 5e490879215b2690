package orderlog

import (
	"context"
	"errors"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewEntryWithoutSpan(t *testing.T) {
	e := NewEntry(context.Background(), "o-1", StatusValidating, "validate_form", "", nil)
	if e.TraceID != "" || e.SpanID != "" {
		t.Fatalf("expected empty trace info, got %q/%q", e.TraceID, e.SpanID)
	}
	if e.ErrorMessages != "[]" {
		t.Fatalf("expected empty error list, got %s", e.ErrorMessages)
	}
}

func TestNewEntryCarriesTrace(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "checkout")
	defer span.End()

	e := NewEntry(ctx, "o-1", StatusFailed, "handoff", "", []string{"no browser"})
	if e.TraceID != span.SpanContext().TraceID().String() {
		t.Fatalf("expected trace id %s, got %s", span.SpanContext().TraceID(), e.TraceID)
	}
	if len(e.SpanID) != 16 {
		t.Fatalf("expected 16 hex span id, got %q", e.SpanID)
	}
	if e.ErrorMessages != `["no browser"]` {
		t.Fatalf("unexpected errors %s", e.ErrorMessages)
	}
}

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	if _, err := r.GetLatest(ctx, "o-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_ = r.Save(ctx, &Entry{OrderID: "o-1", Status: StatusValidating})
	_ = r.Save(ctx, &Entry{OrderID: "o-2", Status: StatusRejected})
	_ = r.Save(ctx, &Entry{OrderID: "o-1", Status: StatusCompleted})

	latest, err := r.GetLatest(ctx, "o-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest.Status != StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", latest.Status)
	}
	if len(r.History("o-1")) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(r.History("o-1")))
	}
}
