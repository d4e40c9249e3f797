package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	types "github.com/yungbote/glossary-backend/internal/domain"
)

const tracerName = "github.com/yungbote/glossary-backend/internal/observability"

// Tracer returns the process tracer. Without InitOTel it is the global no-op provider.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

func StartRunSpan(ctx context.Context, run *types.Run) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{}
	if run != nil {
		attrs = append(attrs,
			attribute.String("glossary.run_id", run.ID.String()),
			attribute.String("glossary.project_id", run.ProjectID.String()),
			attribute.String("glossary.scope", string(run.Scope)),
		)
	}
	return Tracer().Start(ctx, "glossary.run", trace.WithAttributes(attrs...))
}

func StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "glossary.stage."+stage, trace.WithAttributes(
		attribute.String("glossary.stage", stage),
	))
}

// EndSpan records err (if any) and ends span.
func EndSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
