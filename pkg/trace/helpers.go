package trace

import (
	"context"
	"fmt"
	"log"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RecordError marks span as failed with err. A nil err is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func SetAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}

// LogWithTrace prefixes message with the trace and span IDs of the span in
// ctx, if it carries a valid one.
func LogWithTrace(ctx context.Context, message string) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return message
	}
	return fmt.Sprintf("[trace_id=%s span_id=%s] %s", sc.TraceID(), sc.SpanID(), message)
}

// Logf is log.Printf with the trace prefix of LogWithTrace.
func Logf(ctx context.Context, format string, args ...any) {
	log.Print(LogWithTrace(ctx, fmt.Sprintf(format, args...)))
}
