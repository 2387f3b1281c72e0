package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/4ndikaRizaldy/smartbotv2/internal/audit"
	"github.com/4ndikaRizaldy/smartbotv2/internal/bus"
	"github.com/4ndikaRizaldy/smartbotv2/internal/perm"
)

// mentionPlaceholder is replaced with the participant's @number in
// welcome/goodbye templates.
const mentionPlaceholder = "@user"

// HandleMembership reacts to join/leave notifications. Each participant is
// processed independently: a blacklisted joiner or a failed send never
// blocks the rest of the batch.
func (d *Dispatcher) HandleMembership(ctx context.Context, ev bus.MembershipEvent) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("dispatch: membership handler panic recovered", "chat", ev.Chat, "panic", r)
		}
	}()

	switch ev.Action {
	case bus.ActionJoin:
		for _, p := range ev.Participants {
			d.handleJoin(ctx, ev.Chat, p)
		}
	case bus.ActionLeave:
		tmpl := d.tables.Goodbye.Get(ev.Chat)
		for _, p := range ev.Participants {
			d.sendTemplate(ctx, ev.Chat, tmpl, p)
			d.audit.Publish(ctx, audit.Record{
				Kind: audit.KindMembership, Chat: ev.Chat, Actor: perm.Digits(p),
				Detail: "leave",
			})
		}
	}
}

func (d *Dispatcher) handleJoin(ctx context.Context, chat, participant string) {
	number := perm.Digits(participant)
	if number == "" {
		return
	}

	if d.tables.Blacklist.IsListed(chat, number) {
		if err := d.transport.UpdateParticipants(ctx, chat, []string{participant}, false); err != nil {
			slog.Warn("dispatch: blacklist removal failed", "chat", chat, "participant", number, "error", err)
		} else {
			d.reply(ctx, chat, fmt.Sprintf("🚫 %s ada di daftar hitam dan dikeluarkan otomatis.", number))
		}
		d.audit.Publish(ctx, audit.Record{
			Kind: audit.KindMembership, Chat: chat, Actor: number,
			Detail: "join blocked by blacklist",
		})
		return
	}

	d.sendTemplate(ctx, chat, d.tables.Welcome.Get(chat), participant)
	d.audit.Publish(ctx, audit.Record{
		Kind: audit.KindMembership, Chat: chat, Actor: number,
		Detail: "join",
	})
}

// sendTemplate renders a welcome/goodbye template for one participant and
// sends it with a mention. If the mention send fails, it retries once
// without mentions so the text still goes out.
func (d *Dispatcher) sendTemplate(ctx context.Context, chat, tmpl, participant string) {
	if tmpl == "" {
		return
	}
	number := perm.Digits(participant)
	text := strings.ReplaceAll(tmpl, mentionPlaceholder, "@"+number)
	if err := d.transport.SendText(ctx, chat, text, []string{participant}); err != nil {
		slog.Warn("dispatch: mention send failed, retrying plain", "chat", chat, "error", err)
		if err := d.transport.SendText(ctx, chat, text, nil); err != nil {
			slog.Error("dispatch: plain send failed", "chat", chat, "error", err)
		}
	}
}
