package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcomes counts auth API call results by operation (signup, verify, update_widget) and outcome
// (ok, rejected, transport_error). Resends refused locally are counted as operation "resend"
// with outcome "throttled"; resends that reach the API count as "signup".
type Outcomes struct {
	counter metric.Int64Counter
}

// NewOutcomes registers the authx.signup.outcomes counter on meter. A nil meter uses the global MeterProvider.
func NewOutcomes(meter metric.Meter) (*Outcomes, error) {
	if meter == nil {
		meter = otel.Meter("authx-console/telemetry")
	}
	c, err := meter.Int64Counter("authx.signup.outcomes",
		metric.WithDescription("Auth API call outcomes by operation"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}
	return &Outcomes{counter: c}, nil
}

// Record adds one to the counter. Safe on a nil receiver.
func (o *Outcomes) Record(ctx context.Context, operation, outcome string) {
	if o == nil || o.counter == nil {
		return
	}
	o.counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}
