package audit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
)

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (c *captureWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, msgs...)
	return nil
}

func (c *captureWriter) Close() error { return nil }

func TestDisabledPublisherIsSilent(t *testing.T) {
	p := New("", "topic")
	if p.Enabled() {
		t.Fatal("empty brokers should disable the publisher")
	}
	// Must not panic.
	p.Publish(context.Background(), Record{Kind: KindCommand})

	var nilPub *Publisher
	nilPub.Publish(context.Background(), Record{Kind: KindCommand})
}

func TestPublishFillsIDAndTimestamp(t *testing.T) {
	w := &captureWriter{}
	p := &Publisher{writer: w}

	p.Publish(context.Background(), Record{Kind: KindSchedule, Chat: "g1@g.us", Detail: "open fired"})

	if len(w.msgs) != 1 {
		t.Fatalf("messages written = %d", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "g1@g.us" {
		t.Errorf("key = %q, want chat id", w.msgs[0].Key)
	}
	var rec Record
	if err := json.Unmarshal(w.msgs[0].Value, &rec); err != nil {
		t.Fatal(err)
	}
	if rec.ID == "" {
		t.Error("record ID not generated")
	}
	if rec.At.IsZero() {
		t.Error("record timestamp not set")
	}
	if rec.Kind != KindSchedule || rec.Detail != "open fired" {
		t.Errorf("record round trip: %+v", rec)
	}
}
