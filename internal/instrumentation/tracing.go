package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope for all calbridge spans.
const TracerName = "github.com/calbridge/calbridge"

// Span attribute keys. Calendar IDs are email addresses, so spans carry
// only the domain.
const (
	SpanAttrTool           = "mcp.tool"
	SpanAttrCalendarDomain = "mcp.calendar_domain"
	SpanAttrService        = "provider.service"
	SpanAttrOperation      = "provider.operation"
)

// StartSpan starts a span with the given name on the global tracer. The
// caller ends it with EndSpan.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartToolSpan starts the server span covering one MCP tool invocation.
// Pass an empty calendarID when the tool takes no calendar argument.
func StartToolSpan(ctx context.Context, toolName, calendarID string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String(SpanAttrTool, toolName)}
	if calendarID != "" {
		attrs = append(attrs, attribute.String(SpanAttrCalendarDomain, ExtractUserDomain(calendarID)))
	}

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "tool."+toolName,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartProviderSpan starts the client span covering one calendar provider
// operation, credential fetch included. Nested under the tool span when one
// is in the context.
func StartProviderSpan(ctx context.Context, service, operation string) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "provider."+service+"."+operation,
		trace.WithAttributes(
			attribute.String(SpanAttrService, service),
			attribute.String(SpanAttrOperation, operation),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpan resolves the span status from err and ends the span. Meant for
// a deferred call with a named error return.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// EndSpanFailure marks the span failed and ends it. For domain failures
// that travel inside a tool result rather than as a Go error; there is no
// error object to record.
func EndSpanFailure(span trace.Span, message string) {
	span.SetStatus(codes.Error, message)
	span.End()
}

// GetTraceID returns the trace ID of the span in ctx, or "" when the
// context carries no valid span.
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// GetSpanID returns the span ID of the span in ctx, or "" when the context
// carries no valid span.
func GetSpanID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.SpanID().String()
}
