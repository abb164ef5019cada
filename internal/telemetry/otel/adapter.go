package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"authx-console/internal/telemetry"
)

// recordEmitter is the part of otellog.Logger the adapter uses; tests substitute a capture.
type recordEmitter interface {
	Emit(ctx context.Context, record otellog.Record)
}

// NewEventEmitter returns an EventEmitter that sends events as OTel log records via provider.
// If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger("authx-console/signup")}
}

// NewEventEmitterWithLogger wraps any record emitter (usually an otellog.Logger).
func NewEventEmitterWithLogger(logger recordEmitter) telemetry.EventEmitter {
	if logger == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *telemetry.Event) error { return nil }

type otelEmitter struct {
	logger recordEmitter
}

// Emit maps the event onto a log record: the type becomes the body, identifiers and
// free-form attributes become record attributes. Empty values are skipped.
func (e *otelEmitter) Emit(ctx context.Context, event *telemetry.Event) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	ts := event.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetObservedTimestamp(time.Now().UTC())
	rec.SetSeverity(severityFor(event.Type))
	if event.Type != "" {
		rec.SetBody(otellog.StringValue(event.Type))
		rec.AddAttributes(otellog.String("event_type", event.Type))
	}
	for key, value := range map[string]string{
		"source":            event.Source,
		"session_id":        event.SessionID,
		"org_id":            event.OrgID,
		"email_fingerprint": event.EmailFingerprint,
	} {
		if value != "" {
			rec.AddAttributes(otellog.String(key, value))
		}
	}
	for k, v := range event.Attributes {
		if k != "" && v != "" {
			rec.AddAttributes(otellog.String(k, v))
		}
	}
	e.logger.Emit(ctx, rec)
	return nil
}

func severityFor(eventType string) otellog.Severity {
	switch eventType {
	case telemetry.EventTransportFailure:
		return otellog.SeverityError
	case telemetry.EventSignupRejected, telemetry.EventVerifyRejected, telemetry.EventResendThrottled:
		return otellog.SeverityWarn
	default:
		return otellog.SeverityInfo
	}
}
