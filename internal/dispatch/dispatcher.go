// Package dispatch turns inbound chat messages into command executions and
// handles group membership notifications. Matching is first-match-wins over
// an ordered command table; unmatched text falls through to the custom
// command store.
package dispatch

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/4ndikaRizaldy/smartbotv2/internal/audit"
	"github.com/4ndikaRizaldy/smartbotv2/internal/bus"
	"github.com/4ndikaRizaldy/smartbotv2/internal/perm"
	"github.com/4ndikaRizaldy/smartbotv2/internal/store"
)

// Transport is the outbound surface of the WhatsApp client the dispatcher
// uses. Sends return errors so callers can react (mention fallback, user
// notices); the dispatcher never lets them escape a handler.
type Transport interface {
	SendText(ctx context.Context, chat, text string, mentions []string) error
	SetGroupMode(ctx context.Context, chat string, restricted bool) error
	UpdateParticipants(ctx context.Context, chat string, participants []string, add bool) error
	GroupMembers(ctx context.Context, chat string) ([]perm.Member, error)
	CheckNumber(ctx context.Context, number string) (bool, error)
}

type gate int

const (
	gateNone gate = iota
	gateGroupAdmin
	gateBotAdmin
	gateOwner
)

type command struct {
	names     []string
	groupOnly bool
	gate      gate
	handler   func(d *Dispatcher, ctx context.Context, req *request)
}

// request carries one matched command invocation through its handler.
type request struct {
	ev      bus.MessageEvent
	name    string
	args    string // remainder after the command word, original casing
	members []perm.Member
}

// Dispatcher routes inbound events. It holds no global state: the stores,
// resolver and transport are injected.
type Dispatcher struct {
	transport Transport
	tables    *store.Tables
	resolver  *perm.Resolver
	audit     *audit.Publisher
	prefix    string
	started   time.Time
	commands  []command
}

// New builds a Dispatcher. started is the process start time; messages
// older than it are dropped so reconnects don't replay history.
func New(tr Transport, tables *store.Tables, resolver *perm.Resolver, aud *audit.Publisher, prefix string, started time.Time) *Dispatcher {
	if prefix == "" {
		prefix = "!"
	}
	d := &Dispatcher{
		transport: tr,
		tables:    tables,
		resolver:  resolver,
		audit:     aud,
		prefix:    prefix,
		started:   started,
	}
	d.commands = commandTable()
	return d
}

// HandleMessage runs one inbound message to completion. Panics are caught
// at this boundary so a bad event cannot take down the runner.
func (d *Dispatcher) HandleMessage(ctx context.Context, ev bus.MessageEvent) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("dispatch: handler panic recovered", "chat", ev.Chat, "panic", r)
		}
	}()

	text := strings.TrimSpace(ev.Text)
	if text == "" || ev.FromSelf {
		return
	}
	if ev.Timestamp.Before(d.started) {
		return
	}

	lower := strings.ToLower(text)

	if strings.HasPrefix(lower, d.prefix) {
		name, args := splitCommand(text[len(d.prefix):])
		for i := range d.commands {
			cmd := &d.commands[i]
			for _, n := range cmd.names {
				if n == name {
					req := &request{ev: ev, name: name, args: args}
					d.run(ctx, cmd, req)
					return
				}
			}
		}
	}

	// No built-in matched: custom command lookup on the full normalized text.
	if resp, ok := d.tables.Commands.Get(lower); ok {
		d.reply(ctx, ev.Chat, resp)
		d.audit.Publish(ctx, audit.Record{
			Kind: audit.KindCommand, Chat: ev.Chat, Actor: perm.Digits(ev.Sender),
			Detail: "custom:" + lower,
		})
	}
}

// splitCommand separates the command word from its argument payload. The
// word is case-folded; the payload keeps its original casing.
func splitCommand(s string) (name, args string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t\n"); i >= 0 {
		return strings.ToLower(s[:i]), strings.TrimSpace(s[i+1:])
	}
	return strings.ToLower(s), ""
}

// run enforces scope then permission before invoking the handler. A failed
// check replies and stops; the handler is never reached, so no mutation can
// happen after a rejection.
func (d *Dispatcher) run(ctx context.Context, cmd *command, req *request) {
	ev := req.ev

	if cmd.groupOnly && !ev.IsGroup {
		d.reply(ctx, ev.Chat, "⚠️ Perintah ini hanya untuk grup.")
		d.reject(ctx, req, "outside group")
		return
	}

	switch cmd.gate {
	case gateGroupAdmin:
		members, err := d.transport.GroupMembers(ctx, ev.Chat)
		if err != nil {
			slog.Warn("dispatch: group metadata unavailable", "chat", ev.Chat, "error", err)
			d.reply(ctx, ev.Chat, "❌ Gagal mengambil data grup.")
			return
		}
		req.members = members
		if !perm.IsGroupAdmin(ev.Sender, members) {
			d.reply(ctx, ev.Chat, "⚠️ Hanya admin grup yang bisa.")
			d.reject(ctx, req, "not group admin")
			return
		}
	case gateBotAdmin:
		if !d.resolver.IsBotAdmin(ev.Sender) {
			d.reply(ctx, ev.Chat, "⚠️ Hanya owner/admin bot yang bisa.")
			d.reject(ctx, req, "not bot admin")
			return
		}
	case gateOwner:
		if !d.resolver.IsOwner(ev.Sender) {
			d.reply(ctx, ev.Chat, "⚠️ Hanya owner bot yang bisa.")
			d.reject(ctx, req, "not owner")
			return
		}
	}

	cmd.handler(d, ctx, req)
	d.audit.Publish(ctx, audit.Record{
		Kind: audit.KindCommand, Chat: ev.Chat, Actor: perm.Digits(ev.Sender),
		Detail: req.name,
	})
}

func (d *Dispatcher) reject(ctx context.Context, req *request, reason string) {
	d.audit.Publish(ctx, audit.Record{
		Kind: audit.KindRejected, Chat: req.ev.Chat, Actor: perm.Digits(req.ev.Sender),
		Detail: req.name + ": " + reason,
	})
}

func (d *Dispatcher) reply(ctx context.Context, chat, text string) {
	if err := d.transport.SendText(ctx, chat, text, nil); err != nil {
		slog.Warn("dispatch: reply failed", "chat", chat, "error", err)
	}
}

func (d *Dispatcher) replyMentions(ctx context.Context, chat, text string, mentions []string) {
	if err := d.transport.SendText(ctx, chat, text, mentions); err != nil {
		slog.Warn("dispatch: mention reply failed", "chat", chat, "error", err)
	}
}
