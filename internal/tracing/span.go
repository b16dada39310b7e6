package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// StartIngestSpan starts a server span for one beacon delivery. transport is
// the feed kind ("http" or "websocket"); session identifies the reporting
// connection when known.
func StartIngestSpan(ctx context.Context, tracer trace.Tracer, transport, session string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "beacon ingest",
		trace.WithSpanKind(trace.SpanKindServer),
	)
	span.SetAttributes(
		attribute.String("pagepulse.transport", transport),
	)
	if session != "" {
		span.SetAttributes(attribute.String("pagepulse.session", session))
	}
	return ctx, span
}

// EndSpan finishes a span, recording error status if applicable.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// ExtractHTTPHeaders extracts W3C trace context from incoming HTTP headers
// so ingest spans join the page's trace when the beacon carries one.
func ExtractHTTPHeaders(ctx context.Context, headers http.Header) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(headers))
}
