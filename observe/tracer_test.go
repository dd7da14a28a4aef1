package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestOpMeta_SpanName verifies the deterministic span name format.
func TestOpMeta_SpanName(t *testing.T) {
	meta := OpMeta{Platform: "google", Operation: "mail.list"}

	expected := "gateway.exec.google.mail.list"
	if got := meta.SpanName(); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

// TestOpMeta_ID verifies the qualified operation identifier.
func TestOpMeta_ID(t *testing.T) {
	meta := OpMeta{Platform: "microsoft", Operation: "calendar.create"}

	expected := "microsoft.calendar.create"
	if got := meta.ID(); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

// TestTracer_SpanAttributes verifies all attributes are present on span.
func TestTracer_SpanAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	tr := &tracerImpl{tracer: tp.Tracer("test")}
	meta := OpMeta{
		Platform:  "google",
		Operation: "mail.list",
		Class:     "read",
	}

	ctx, span := tr.StartSpan(context.Background(), meta)
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
	tr.EndSpan(span, nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	ended := spans[0]
	if ended.Name() != "gateway.exec.google.mail.list" {
		t.Errorf("span name = %q", ended.Name())
	}

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range ended.Attributes() {
		attrs[kv.Key] = kv.Value
	}

	if got := attrs["gateway.op"].AsString(); got != "google.mail.list" {
		t.Errorf("gateway.op = %q", got)
	}
	if got := attrs["gateway.platform"].AsString(); got != "google" {
		t.Errorf("gateway.platform = %q", got)
	}
	if got := attrs["gateway.class"].AsString(); got != "read" {
		t.Errorf("gateway.class = %q", got)
	}
	if ended.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", ended.Status().Code)
	}
}

// TestTracer_EndSpanWithError verifies error status and attribute are recorded.
func TestTracer_EndSpanWithError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	tr := &tracerImpl{tracer: tp.Tracer("test")}
	_, span := tr.StartSpan(context.Background(), OpMeta{Platform: "google", Operation: "mail.list"})
	tr.EndSpan(span, errors.New("upstream 503"))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	ended := spans[0]
	if ended.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", ended.Status().Code)
	}

	var errorFlag bool
	for _, kv := range ended.Attributes() {
		if kv.Key == "gateway.error" {
			errorFlag = kv.Value.AsBool()
		}
	}
	if !errorFlag {
		t.Error("gateway.error attribute not set to true")
	}

	if len(ended.Events()) == 0 {
		t.Error("expected a recorded error event")
	}
}

// TestNoopTracer verifies the noop tracer produces usable spans.
func TestNoopTracer(t *testing.T) {
	tr := newNoopTracer()

	ctx, span := tr.StartSpan(context.Background(), OpMeta{Platform: "google", Operation: "mail.list"})
	if ctx == nil || span == nil {
		t.Fatal("noop tracer returned nil context or span")
	}
	tr.EndSpan(span, errors.New("ignored"))
}
