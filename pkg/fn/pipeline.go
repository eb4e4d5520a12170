package fn

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "github.com/WessleyAI/towline/pkg/fn"

// Stage is one step of a call chain. Retry, breaker and limiter wrappers all
// take and return Stages so they compose.
type Stage[In, Out any] func(context.Context, In) Result[Out]

// TracedStage runs stage inside a span named name. Failures are recorded on
// the span.
func TracedStage[In, Out any](name string, stage Stage[In, Out], attrs ...attribute.KeyValue) Stage[In, Out] {
	return func(ctx context.Context, in In) Result[Out] {
		ctx, span := otel.Tracer(tracerName).Start(ctx, name)
		defer span.End()
		span.SetAttributes(attrs...)

		result := stage(ctx, in)
		if err := result.Error(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return result
	}
}
