package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	types "github.com/yungbote/glossary-backend/internal/domain"
)

func TestRunAndStageSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	run := &types.Run{Scope: types.ScopeFull}
	ctx, runSpan := StartRunSpan(context.Background(), run)
	_, stageSpan := StartStageSpan(ctx, "extract")
	EndSpan(stageSpan, errors.New("boom"))
	EndSpan(runSpan, nil)

	ended := rec.Ended()
	if len(ended) != 2 {
		t.Fatalf("ended spans: want=2 got=%d", len(ended))
	}
	if ended[0].Name() != "glossary.stage.extract" {
		t.Fatalf("first span: want=glossary.stage.extract got=%s", ended[0].Name())
	}
	if ended[0].Status().Code != codes.Error {
		t.Fatalf("stage span status: want=%v got=%v", codes.Error, ended[0].Status().Code)
	}
	if ended[0].Parent().SpanID() != ended[1].SpanContext().SpanID() {
		t.Fatalf("stage span should be a child of the run span")
	}
}
