// Package producer publishes console telemetry events to Kafka for downstream consumers.
package producer

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"authx-console/internal/telemetry"
)

const writeTimeout = 5 * time.Second

// message is the JSON value written per event.
type message struct {
	Type             string            `json:"event_type"`
	Source           string            `json:"source"`
	SessionID        string            `json:"session_id,omitempty"`
	OrgID            string            `json:"org_id,omitempty"`
	EmailFingerprint string            `json:"email_fingerprint,omitempty"`
	Attributes       map[string]string `json:"attributes,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// writer is the part of *kafka.Writer the emitter uses.
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEmitter implements telemetry.EventEmitter on a Kafka topic. Events of one session (or,
// without a session, one organisation) share a key and so keep their order.
type KafkaEmitter struct {
	w writer
}

// NewKafkaEmitter returns an emitter writing to topic. It returns nil when brokers or topic is empty.
func NewKafkaEmitter(brokers []string, topic string) *KafkaEmitter {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	return &KafkaEmitter{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	}}
}

// Emit serializes event as JSON and writes it under a short timeout.
func (p *KafkaEmitter) Emit(ctx context.Context, event *telemetry.Event) error {
	if p == nil || p.w == nil || event == nil {
		return nil
	}
	payload, err := json.Marshal(message{
		Type:             event.Type,
		Source:           event.Source,
		SessionID:        event.SessionID,
		OrgID:            event.OrgID,
		EmailFingerprint: event.EmailFingerprint,
		Attributes:       event.Attributes,
		CreatedAt:        event.CreatedAt,
	})
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := p.w.WriteMessages(writeCtx, kafka.Message{Key: keyOf(event), Value: payload}); err != nil {
		log.Printf("telemetry: kafka emit %s failed: %v", event.Type, err)
		return err
	}
	return nil
}

// Close flushes and closes the writer. Safe on a nil emitter.
func (p *KafkaEmitter) Close() error {
	if p == nil || p.w == nil {
		return nil
	}
	return p.w.Close()
}

func keyOf(event *telemetry.Event) []byte {
	switch {
	case event.SessionID != "":
		return []byte(event.SessionID)
	case event.OrgID != "":
		return []byte(event.OrgID)
	}
	return nil
}
