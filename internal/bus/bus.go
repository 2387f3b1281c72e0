// Package bus provides the inbound event queue between the WhatsApp
// transport and the command runner. Events are consumed one at a time by a
// single runner goroutine, so handlers never race on the shared stores.
package bus

import (
	"context"
	"time"
)

// MembershipAction distinguishes join and leave notifications.
type MembershipAction string

const (
	ActionJoin  MembershipAction = "join"
	ActionLeave MembershipAction = "leave"
)

// MessageEvent is an inbound chat message.
type MessageEvent struct {
	ID        string    `json:"id"`
	Chat      string    `json:"chat"`
	Sender    string    `json:"sender"`
	IsGroup   bool      `json:"is_group"`
	FromSelf  bool      `json:"from_self"`
	Text      string    `json:"text"`
	Mentioned []string  `json:"mentioned,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// MembershipEvent is a group join/leave notification.
type MembershipEvent struct {
	Chat         string           `json:"chat"`
	Action       MembershipAction `json:"action"`
	Participants []string         `json:"participants"`
	Timestamp    time.Time        `json:"timestamp"`
}

// Event is a tagged union: exactly one field is non-nil.
type Event struct {
	Message    *MessageEvent
	Membership *MembershipEvent
}

// Bus queues inbound events for the runner.
type Bus struct {
	inbound chan Event
}

// New creates a Bus with a bounded queue.
func New() *Bus {
	return &Bus{inbound: make(chan Event, 100)}
}

// PublishMessage queues a message event.
func (b *Bus) PublishMessage(ev MessageEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	b.inbound <- Event{Message: &ev}
}

// PublishMembership queues a membership event.
func (b *Bus) PublishMembership(ev MembershipEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	b.inbound <- Event{Membership: &ev}
}

// Consume blocks until an event is available or the context is cancelled.
func (b *Bus) Consume(ctx context.Context) (Event, error) {
	select {
	case ev := <-b.inbound:
		return ev, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Size returns the number of pending events.
func (b *Bus) Size() int {
	return len(b.inbound)
}
