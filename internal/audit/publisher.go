// Package audit streams bot activity records to a Kafka topic. The
// publisher is best-effort: failures are logged and never surface to the
// event handlers.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Record kinds.
const (
	KindCommand    = "command"
	KindRejected   = "rejected"
	KindSchedule   = "schedule"
	KindMembership = "membership"
)

// Record is one audit event.
type Record struct {
	ID     string    `json:"id"`
	Kind   string    `json:"kind"`
	Chat   string    `json:"chat"`
	Actor  string    `json:"actor,omitempty"`
	Detail string    `json:"detail"`
	At     time.Time `json:"at"`
}

// writerAPI is the slice of kafka.Writer the publisher uses.
type writerAPI interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes audit records to Kafka. A zero or nil Publisher is a
// no-op, so callers never need to guard their Publish calls.
type Publisher struct {
	writer writerAPI
}

// New builds a Publisher for the comma-separated broker list. An empty
// broker list yields a disabled publisher.
func New(brokers, topic string) *Publisher {
	brokers = strings.TrimSpace(brokers)
	if brokers == "" {
		return &Publisher{}
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(brokers, ",")...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 100 * time.Millisecond,
		Async:        true,
	}
	slog.Info("audit: kafka publisher enabled", "brokers", brokers, "topic", topic)
	return &Publisher{writer: w}
}

// Enabled reports whether records are actually written anywhere.
func (p *Publisher) Enabled() bool {
	return p != nil && p.writer != nil
}

// Publish sends one record, filling ID and At when unset.
func (p *Publisher) Publish(ctx context.Context, rec Record) {
	if !p.Enabled() {
		return
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.At.IsZero() {
		rec.At = time.Now()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		slog.Warn("audit: marshal failed", "error", err)
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(rec.Chat),
		Value: data,
	}); err != nil {
		slog.Warn("audit: publish failed", "kind", rec.Kind, "error", err)
	}
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if !p.Enabled() {
		return nil
	}
	return p.writer.Close()
}
