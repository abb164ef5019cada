// Package telemetry defines the best-effort event stream of the console: signup flow transitions
// and dashboard changes, exported as OpenTelemetry log records and optionally to Kafka.
package telemetry

import (
	"context"
	"errors"
	"time"
)

// Event types emitted by the signup flow and the widget dashboard.
const (
	EventSignupSubmitted  = "signup_submitted"
	EventSignupRejected   = "signup_rejected"
	EventChallengeIssued  = "challenge_issued"
	EventVerifyRejected   = "verify_rejected"
	EventVerified         = "email_verified"
	EventTransportFailure = "transport_failure"
	EventResendRequested  = "resend_requested"
	EventResendThrottled  = "resend_throttled"
	EventWidgetSaved      = "widget_saved"
	EventWidgetPublished  = "widget_published"
)

// Event is one telemetry event. Email addresses never appear here; use EmailFingerprint.
type Event struct {
	Type             string
	Source           string
	SessionID        string
	OrgID            string
	EmailFingerprint string
	Attributes       map[string]string
	CreatedAt        time.Time
}

// EventEmitter emits telemetry events (e.g. to OTel Logs). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}

// Fanout sends each event to every emitter. All emitters are tried; their errors are joined.
type Fanout []EventEmitter

func (f Fanout) Emit(ctx context.Context, event *Event) error {
	var errs []error
	for _, e := range f {
		if e == nil {
			continue
		}
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
