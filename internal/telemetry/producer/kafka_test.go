package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"authx-console/internal/telemetry"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("write without deadline")
	}
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewKafkaEmitter_Disabled(t *testing.T) {
	if e := NewKafkaEmitter(nil, "topic"); e != nil {
		t.Error("NewKafkaEmitter with no brokers should return nil")
	}
	if e := NewKafkaEmitter([]string{"localhost:9092"}, ""); e != nil {
		t.Error("NewKafkaEmitter with no topic should return nil")
	}
	var e *KafkaEmitter
	if err := e.Emit(context.Background(), &telemetry.Event{Type: "x"}); err != nil {
		t.Errorf("nil Emit = %v, want nil", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("nil Close = %v, want nil", err)
	}
}

func TestKafkaEmitter_Emit(t *testing.T) {
	w := &fakeWriter{}
	e := &KafkaEmitter{w: w}
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	err := e.Emit(context.Background(), &telemetry.Event{
		Type:             telemetry.EventChallengeIssued,
		Source:           "signup",
		SessionID:        "sess-1",
		EmailFingerprint: "abc123",
		Attributes:       map[string]string{"request_id": "1"},
		CreatedAt:        at,
	})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "sess-1" {
		t.Errorf("key = %q, want sess-1", w.msgs[0].Key)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(w.msgs[0].Value, &m); err != nil {
		t.Fatalf("value: %v", err)
	}
	if m["event_type"] != telemetry.EventChallengeIssued || m["email_fingerprint"] != "abc123" {
		t.Errorf("value = %v", m)
	}
	if _, ok := m["org_id"]; ok {
		t.Error("empty org_id should be omitted")
	}

	if err := e.Close(); err != nil || !w.closed {
		t.Errorf("Close = %v closed=%v", err, w.closed)
	}
}

func TestKafkaEmitter_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	e := &KafkaEmitter{w: w}
	if err := e.Emit(context.Background(), &telemetry.Event{Type: "x", OrgID: "org-1"}); err == nil {
		t.Error("Emit should return the write error")
	}
	if string(w.msgs[0].Key) != "org-1" {
		t.Errorf("key = %q, want org-1", w.msgs[0].Key)
	}
}
