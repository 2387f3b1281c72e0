package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/4ndikaRizaldy/smartbotv2/internal/audit"
	"github.com/4ndikaRizaldy/smartbotv2/internal/perm"
	"github.com/4ndikaRizaldy/smartbotv2/internal/store"
)

// Transport is the slice of the WhatsApp client the scheduler needs.
type Transport interface {
	SendText(ctx context.Context, chat, text string, mentions []string) error
	SetGroupMode(ctx context.Context, chat string, restricted bool) error
}

// Scheduler scans every group's schedule entries once per tick and applies
// the ones whose time-of-day has passed.
type Scheduler struct {
	tick      time.Duration
	loc       *time.Location
	schedules *store.ScheduleTable
	resolver  *perm.Resolver
	transport Transport
	audit     *audit.Publisher
}

// New creates a Scheduler. A non-positive tick falls back to one minute.
func New(tick time.Duration, loc *time.Location, schedules *store.ScheduleTable, resolver *perm.Resolver, tr Transport, aud *audit.Publisher) *Scheduler {
	if tick <= 0 {
		tick = time.Minute
	}
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		tick:      tick,
		loc:       loc,
		schedules: schedules,
		resolver:  resolver,
		transport: tr,
		audit:     aud,
	}
}

// Run starts the tick loop. Blocks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("scheduler started", "tick", s.tick, "timezone", s.loc.String())
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return ctx.Err()
		case t := <-ticker.C:
			s.Tick(ctx, t)
		}
	}
}

// Tick evaluates every unfired entry against now's wall clock in the
// configured timezone. Exported so tests can drive time directly.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	nowMin := minuteOfDay(now.In(s.loc))

	for _, chat := range s.schedules.Groups() {
		for _, entry := range s.schedules.Entries(chat) {
			if entry.Fired {
				continue
			}
			due, err := ParseTimeOfDay(entry.Time)
			if err != nil {
				slog.Warn("scheduler: skipping invalid entry", "chat", chat, "time", entry.Time)
				continue
			}
			if nowMin < due {
				continue
			}
			s.fire(ctx, chat, entry)
		}
	}
}

// fire applies a due entry: re-verify the requester, apply the restriction,
// confirm, then mark the entry fired. An entry whose action fails is left
// unfired so the next tick retries it.
func (s *Scheduler) fire(ctx context.Context, chat string, entry store.ScheduleEntry) {
	if !s.resolver.GroupAdmin(ctx, chat, entry.Requester) {
		slog.Warn("scheduler: requester no longer admin, entry not applied",
			"chat", chat, "time", entry.Time, "requester", entry.Requester)
		s.notify(ctx, chat, "⚠️ Jadwal "+entry.Time+" dilewati: pengaju bukan admin grup lagi.")
		return
	}

	restricted := entry.Action == store.ActionClose
	if err := s.transport.SetGroupMode(ctx, chat, restricted); err != nil {
		slog.Error("scheduler: group setting update failed", "chat", chat, "action", entry.Action, "error", err)
		s.notify(ctx, chat, "❌ Gagal menjalankan jadwal "+entry.Time+".")
		return
	}

	confirmation := "🔓 Grup dibuka otomatis."
	if restricted {
		confirmation = "🔒 Grup ditutup otomatis."
	}
	s.notify(ctx, chat, confirmation)

	if !s.schedules.MarkFired(chat, entry) {
		// Entry was removed while we were applying it; nothing to persist.
		slog.Warn("scheduler: fired entry vanished before marking", "chat", chat, "time", entry.Time)
	}
	slog.Info("scheduler: entry fired", "chat", chat, "time", entry.Time, "action", entry.Action)
	s.audit.Publish(ctx, audit.Record{
		Kind:   audit.KindSchedule,
		Chat:   chat,
		Actor:  entry.Requester,
		Detail: string(entry.Action) + " at " + entry.Time,
	})
}

func (s *Scheduler) notify(ctx context.Context, chat, text string) {
	if err := s.transport.SendText(ctx, chat, text, nil); err != nil {
		slog.Warn("scheduler: notify failed", "chat", chat, "error", err)
	}
}
