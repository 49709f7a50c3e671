package status

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingWriter turns each Record into an OpenTelemetry span: one span is
// started on Running and ended on Success/Failed/Skipped, so a trace
// backend can show Job/Task duration alongside the status stream itself.
// Composes with a StreamWriter via MultiWriter; it never replaces the wire
// protocol, it only adds a second observability channel.
type TracingWriter struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[string]trace.Span // entity id -> open span
}

// NewTracingWriter returns a TracingWriter over the given tracer, e.g.
// otel.Tracer("flowrun").
func NewTracingWriter(tracer trace.Tracer) *TracingWriter {
	return &TracingWriter{
		tracer: tracer,
		spans:  make(map[string]trace.Span),
	}
}

func (t *TracingWriter) Emit(r Record) {
	switch r.Status {
	case Running:
		_, span := t.tracer.Start(context.Background(), r.Name,
			trace.WithAttributes(
				attribute.String("flowrun.id", r.ID),
				attribute.String("flowrun.kind", string(r.Kind)),
				attribute.String("flowrun.parent_id", r.ParentID),
			),
		)
		t.mu.Lock()
		t.spans[r.ID] = span
		t.mu.Unlock()
	case Success, Failed, Skipped:
		t.mu.Lock()
		span, ok := t.spans[r.ID]
		if ok {
			delete(t.spans, r.ID)
		}
		t.mu.Unlock()
		if !ok {
			return
		}
		if r.Status == Failed {
			span.SetStatus(codes.Error, r.Error)
			span.SetAttributes(attribute.String("flowrun.error_kind", r.ErrorKind))
		}
		span.SetAttributes(attribute.String("flowrun.status", string(r.Status)))
		span.End()
	}
}
