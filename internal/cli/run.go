package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/4ndikaRizaldy/smartbotv2/internal/audit"
	"github.com/4ndikaRizaldy/smartbotv2/internal/bus"
	"github.com/4ndikaRizaldy/smartbotv2/internal/channels"
	"github.com/4ndikaRizaldy/smartbotv2/internal/config"
	"github.com/4ndikaRizaldy/smartbotv2/internal/dispatch"
	"github.com/4ndikaRizaldy/smartbotv2/internal/perm"
	"github.com/4ndikaRizaldy/smartbotv2/internal/scheduler"
	"github.com/4ndikaRizaldy/smartbotv2/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the WhatsApp gateway",
	Run:   runBot,
}

func runBot(cmd *cobra.Command, args []string) {
	printHeader("🤖 SmartBot Gateway")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Bot.OwnerNumber == "" {
		fmt.Println("Config error: bot owner number is not set (SMARTBOT_OWNER_NUMBER or config.json)")
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.Bot.Timezone)
	if err != nil {
		slog.Warn("invalid timezone, falling back to local", "timezone", cfg.Bot.Timezone, "error", err)
		loc = time.Local
	}

	tables, err := store.Open(cfg.Paths.DataDir, cfg.Bot.OwnerNumber)
	if err != nil {
		fmt.Printf("Store error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventBus := bus.New()
	wa := channels.NewWhatsAppChannel(cfg, eventBus)
	resolver := &perm.Resolver{
		Registry: tables.Admins,
		Members:  wa,
		SelfJID:  wa.SelfJID,
	}
	aud := audit.New(cfg.Audit.Brokers, cfg.Audit.Topic)
	defer aud.Close()

	if err := wa.Start(ctx); err != nil {
		fmt.Printf("WhatsApp error: %v\n", err)
		os.Exit(1)
	}
	defer wa.Stop()

	disp := dispatch.New(wa, tables, resolver, aud, cfg.Bot.Prefix, time.Now())

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(cfg.Scheduler.TickInterval, loc, tables.Schedules, resolver, wa, aud)
		go sched.Run(ctx)
	}

	fmt.Println("SmartBot running. Press Ctrl+C to stop.")

	// Single runner: events are handled one at a time so the handlers never
	// race each other on the stores.
	for {
		ev, err := eventBus.Consume(ctx)
		if err != nil {
			fmt.Println("Shutting down...")
			return
		}
		switch {
		case ev.Message != nil:
			disp.HandleMessage(ctx, *ev.Message)
		case ev.Membership != nil:
			disp.HandleMembership(ctx, *ev.Membership)
		}
	}
}
