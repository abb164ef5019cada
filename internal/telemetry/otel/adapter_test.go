package otel

import (
	"context"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"authx-console/internal/telemetry"
)

// recordCapture stores the last Record passed to Emit for assertion.
type recordCapture struct {
	rec otellog.Record
}

func (r *recordCapture) Emit(ctx context.Context, rec otellog.Record) {
	r.rec = rec
}

func attributesOf(rec otellog.Record) map[string]string {
	attrs := make(map[string]string)
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value.AsString()
		return true
	})
	return attrs
}

func TestNewEventEmitter_NilProvider_ReturnsNoop(t *testing.T) {
	em := NewEventEmitter(nil)
	if em == nil {
		t.Fatal("NewEventEmitter(nil) returned nil")
	}
	if err := em.Emit(context.Background(), nil); err != nil {
		t.Errorf("noop Emit(ctx, nil): %v", err)
	}
	if err := em.Emit(context.Background(), &telemetry.Event{Type: telemetry.EventVerified}); err != nil {
		t.Errorf("noop Emit(ctx, event): %v", err)
	}
}

func TestEmit_NilEvent_ReturnsNil(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()
	em := NewEventEmitter(provider)
	if err := em.Emit(context.Background(), nil); err != nil {
		t.Errorf("Emit(ctx, nil): %v", err)
	}
}

func TestEmit_AttributeMapping(t *testing.T) {
	cap := &recordCapture{}
	em := NewEventEmitterWithLogger(cap)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	event := &telemetry.Event{
		Type:             telemetry.EventChallengeIssued,
		Source:           "console",
		SessionID:        "sess1",
		EmailFingerprint: "0a1b2c",
		Attributes:       map[string]string{"request_id": "3", "empty": ""},
		CreatedAt:        created,
	}
	if err := em.Emit(context.Background(), event); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	rec := cap.rec

	if got := rec.Body().AsString(); got != telemetry.EventChallengeIssued {
		t.Errorf("body = %q, want %q", got, telemetry.EventChallengeIssued)
	}
	if !rec.Timestamp().Equal(created) {
		t.Errorf("timestamp = %v, want %v", rec.Timestamp(), created)
	}
	if rec.Severity() != otellog.SeverityInfo {
		t.Errorf("severity = %v, want %v", rec.Severity(), otellog.SeverityInfo)
	}

	attrs := attributesOf(rec)
	want := map[string]string{
		"event_type":        telemetry.EventChallengeIssued,
		"source":            "console",
		"session_id":        "sess1",
		"email_fingerprint": "0a1b2c",
		"request_id":        "3",
	}
	for k, v := range want {
		if attrs[k] != v {
			t.Errorf("attr %q = %q, want %q", k, attrs[k], v)
		}
	}
	if _, ok := attrs["org_id"]; ok {
		t.Error("org_id should not be set for empty string")
	}
	if _, ok := attrs["empty"]; ok {
		t.Error("empty attribute values should be skipped")
	}
}

func TestEmit_ZeroTimestamp_SetsCurrentTime(t *testing.T) {
	cap := &recordCapture{}
	em := NewEventEmitterWithLogger(cap)
	before := time.Now().UTC()
	if err := em.Emit(context.Background(), &telemetry.Event{Type: telemetry.EventVerified}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	after := time.Now().UTC()
	ts := cap.rec.Timestamp()
	if ts.Before(before) || ts.After(after) {
		t.Errorf("timestamp = %v, should be between %v and %v", ts, before, after)
	}
}

func TestEmit_Severity(t *testing.T) {
	testCases := []struct {
		eventType string
		want      otellog.Severity
	}{
		{telemetry.EventTransportFailure, otellog.SeverityError},
		{telemetry.EventSignupRejected, otellog.SeverityWarn},
		{telemetry.EventVerifyRejected, otellog.SeverityWarn},
		{telemetry.EventResendThrottled, otellog.SeverityWarn},
		{telemetry.EventVerified, otellog.SeverityInfo},
		{telemetry.EventWidgetPublished, otellog.SeverityInfo},
	}
	for _, tc := range testCases {
		t.Run(tc.eventType, func(t *testing.T) {
			cap := &recordCapture{}
			if err := NewEventEmitterWithLogger(cap).Emit(context.Background(), &telemetry.Event{Type: tc.eventType}); err != nil {
				t.Fatalf("Emit: %v", err)
			}
			if got := cap.rec.Severity(); got != tc.want {
				t.Errorf("severity = %v, want %v", got, tc.want)
			}
		})
	}
}
