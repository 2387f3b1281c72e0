package bus

import (
	"context"
	"testing"
	"time"
)

func TestPublishConsumeOrder(t *testing.T) {
	b := New()
	b.PublishMessage(MessageEvent{Chat: "g1@g.us", Text: "first"})
	b.PublishMembership(MembershipEvent{Chat: "g1@g.us", Action: ActionJoin, Participants: []string{"628@s.whatsapp.net"}})

	ctx := context.Background()

	ev, err := b.Consume(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Message == nil || ev.Message.Text != "first" {
		t.Fatalf("expected message event first, got %+v", ev)
	}
	if ev.Message.Timestamp.IsZero() {
		t.Error("timestamp not defaulted")
	}

	ev, err = b.Consume(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Membership == nil || ev.Membership.Action != ActionJoin {
		t.Fatalf("expected membership event second, got %+v", ev)
	}
}

func TestConsumeCancelled(t *testing.T) {
	b := New()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := b.Consume(ctx); err == nil {
		t.Fatal("expected context error on empty bus")
	}
}

func TestSize(t *testing.T) {
	b := New()
	if b.Size() != 0 {
		t.Fatalf("empty bus size = %d", b.Size())
	}
	b.PublishMessage(MessageEvent{Text: "x"})
	if b.Size() != 1 {
		t.Fatalf("size = %d, want 1", b.Size())
	}
}
