package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "liftrecords-api"

// RecordMetrics counts personal record transitions. It uses the global meter
// provider, which is a no-op until Initialize has run.
type RecordMetrics struct {
	created  metric.Int64Counter
	reverted metric.Int64Counter
}

func NewRecordMetrics() (*RecordMetrics, error) {
	meter := otel.Meter(meterName)

	created, err := meter.Int64Counter("records.created",
		metric.WithDescription("Personal records created"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	reverted, err := meter.Int64Counter("records.reverted",
		metric.WithDescription("Personal records reverted to their predecessor"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	return &RecordMetrics{created: created, reverted: reverted}, nil
}

func (m *RecordMetrics) RecordCreated(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.created.Add(ctx, 1, metric.WithAttributes(attribute.String("record.kind", kind)))
}

func (m *RecordMetrics) RecordReverted(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.reverted.Add(ctx, 1, metric.WithAttributes(attribute.String("record.kind", kind)))
}
