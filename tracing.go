package mind

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the process-wide global tracer; the core starts spans against
// it but owns no SDK or exporter configuration (SPEC_FULL.md DOMAIN STACK:
// "a host that has wired an SDK/exporter gets spans for free"). Grounded on
// the teacher's provider HTTP client, which starts spans the same way
// against otel.Tracer(...) with no local SDK setup.
var tracer = otel.Tracer("github.com/collectivemind/mind")

// startSpan begins a span for one dispatch operation, tagging it with the
// attributes the caller passes (mind.generate passes the thinking mode).
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan records err (if any) on the span and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
