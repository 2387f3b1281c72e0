// Package channels connects chat platforms to the event bus. The only live
// implementation is WhatsApp; the Channel interface keeps the runtime wiring
// platform-agnostic.
package channels

import (
	"context"

	"github.com/4ndikaRizaldy/smartbotv2/internal/bus"
)

// Channel is a chat platform connection.
type Channel interface {
	// Name returns the channel name (e.g. "whatsapp").
	Name() string
	// Start connects the channel and begins publishing inbound events.
	Start(ctx context.Context) error
	// Stop disconnects the channel.
	Stop() error
}

// BaseChannel provides the shared bus handle for channels.
type BaseChannel struct {
	Bus *bus.Bus
}
