package channels

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/skip2/go-qrcode"

	_ "modernc.org/sqlite"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"github.com/4ndikaRizaldy/smartbotv2/internal/bus"
	"github.com/4ndikaRizaldy/smartbotv2/internal/config"
	"github.com/4ndikaRizaldy/smartbotv2/internal/perm"
)

// WhatsAppChannel is the live WhatsApp connection. It publishes inbound
// message and membership events to the bus and implements the outbound
// transport the dispatcher and scheduler use.
type WhatsAppChannel struct {
	BaseChannel
	cfg       config.Config
	client    *whatsmeow.Client
	container *sqlstore.Container
	conn      *connTracker
	runCtx    context.Context
}

// NewWhatsAppChannel creates the channel. Start must be called before any
// transport method.
func NewWhatsAppChannel(cfg config.Config, eventBus *bus.Bus) *WhatsAppChannel {
	return &WhatsAppChannel{
		BaseChannel: BaseChannel{Bus: eventBus},
		cfg:         cfg,
		conn: newConnTracker(
			cfg.WhatsApp.ReconnectBase,
			cfg.WhatsApp.ReconnectMax,
			cfg.WhatsApp.ReconnectRetries,
		),
	}
}

func (c *WhatsAppChannel) Name() string { return "whatsapp" }

// ConnState reports the current connection lifecycle state.
func (c *WhatsAppChannel) ConnState() ConnState { return c.conn.State() }

// Start opens the session store, connects, and pairs via QR if there is no
// stored session yet. It blocks until the client is connected or pairing
// fails.
func (c *WhatsAppChannel) Start(ctx context.Context) error {
	c.runCtx = ctx

	dbLog := waLog.Stdout("Database", "WARN", true)
	clientLog := waLog.Stdout("Client", "WARN", true)

	dbPath := c.cfg.Paths.SessionDB
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	container, err := sqlstore.New(ctx, "sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbLog)
	if err != nil {
		return fmt.Errorf("init session store: %w", err)
	}
	c.container = container

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return fmt.Errorf("load device: %w", err)
	}

	c.client = whatsmeow.NewClient(device, clientLog)
	c.client.AddEventHandler(c.handleEvent)

	if c.client.Store.ID == nil {
		return c.pair(ctx)
	}

	if err := c.client.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	slog.Info("whatsapp: connected", "self", c.SelfJID())
	return nil
}

// pair runs the QR login flow. Each fresh code is written to the configured
// PNG so a headless operator can fetch and scan it.
func (c *WhatsAppChannel) pair(ctx context.Context) error {
	qrChan, err := c.client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("qr channel: %w", err)
	}
	if err := c.client.Connect(); err != nil {
		return fmt.Errorf("connect for pairing: %w", err)
	}

	slog.Info("whatsapp: no stored session, pairing required")
	for evt := range qrChan {
		switch evt.Event {
		case "code":
			if err := qrcode.WriteFile(evt.Code, qrcode.Medium, 512, c.cfg.Paths.QRFile); err != nil {
				slog.Warn("whatsapp: write qr png failed", "path", c.cfg.Paths.QRFile, "error", err)
				continue
			}
			slog.Info("whatsapp: scan the QR code to log in", "path", c.cfg.Paths.QRFile)
		case "success":
			slog.Info("whatsapp: paired", "self", c.SelfJID())
			return nil
		case "timeout":
			return fmt.Errorf("pairing timed out")
		default:
			slog.Info("whatsapp: pairing event", "event", evt.Event)
		}
	}
	return nil
}

func (c *WhatsAppChannel) Stop() error {
	if c.client != nil {
		c.client.Disconnect()
	}
	if c.container != nil {
		return c.container.Close()
	}
	return nil
}

func (c *WhatsAppChannel) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Message:
		c.handleMessage(v)
	case *events.GroupInfo:
		c.handleGroupInfo(v)
	case *events.Connected:
		if c.conn.Connected() {
			slog.Info("whatsapp: connection up")
		}
	case *events.Disconnected:
		slog.Warn("whatsapp: connection dropped")
		go c.reconnect()
	case *events.LoggedOut:
		c.conn.LoggedOut()
		slog.Error("whatsapp: session logged out remotely, re-pairing required")
	}
}

func (c *WhatsAppChannel) handleMessage(v *events.Message) {
	text, mentions := ExtractText(v.Message)
	if text == "" {
		return
	}
	c.Bus.PublishMessage(bus.MessageEvent{
		ID:        v.Info.ID,
		Chat:      v.Info.Chat.String(),
		Sender:    v.Info.Sender.String(),
		IsGroup:   v.Info.IsGroup,
		FromSelf:  v.Info.IsFromMe,
		Text:      text,
		Mentioned: mentions,
		Timestamp: v.Info.Timestamp,
	})
}

func (c *WhatsAppChannel) handleGroupInfo(v *events.GroupInfo) {
	if v.JID.IsEmpty() {
		return
	}
	chat := v.JID.String()
	if len(v.Join) > 0 {
		c.Bus.PublishMembership(bus.MembershipEvent{
			Chat:         chat,
			Action:       bus.ActionJoin,
			Participants: jidStrings(v.Join),
			Timestamp:    v.Timestamp,
		})
	}
	if len(v.Leave) > 0 {
		c.Bus.PublishMembership(bus.MembershipEvent{
			Chat:         chat,
			Action:       bus.ActionLeave,
			Participants: jidStrings(v.Leave),
			Timestamp:    v.Timestamp,
		})
	}
}

func jidStrings(jids []types.JID) []string {
	out := make([]string, len(jids))
	for i, j := range jids {
		out[i] = j.String()
	}
	return out
}

// reconnect drives the backoff loop after a drop. It stops on logout,
// exhausted retries, or context cancellation.
func (c *WhatsAppChannel) reconnect() {
	ctx := c.runCtx
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		if c.client.IsConnected() {
			return
		}
		delay, ok := c.conn.Dropped()
		if !ok {
			slog.Error("whatsapp: giving up on reconnect", "state", c.conn.State().String())
			return
		}
		slog.Info("whatsapp: reconnecting", "delay", delay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		if err := c.client.Connect(); err != nil {
			slog.Warn("whatsapp: reconnect attempt failed", "error", err)
			continue
		}
		return
	}
}

// SelfJID returns the bot's own JID, or "" before pairing completes.
func (c *WhatsAppChannel) SelfJID() string {
	if c.client == nil || c.client.Store.ID == nil {
		return ""
	}
	return c.client.Store.ID.String()
}

// SendText sends a text message. With mentions it uses an extended text
// payload so the clients render the @-tags; without, a plain conversation
// message.
func (c *WhatsAppChannel) SendText(ctx context.Context, chat, text string, mentions []string) error {
	jid, err := types.ParseJID(chat)
	if err != nil {
		return fmt.Errorf("invalid chat JID %q: %w", chat, err)
	}
	var msg *waE2E.Message
	if len(mentions) == 0 {
		msg = &waE2E.Message{Conversation: proto.String(text)}
	} else {
		msg = &waE2E.Message{
			ExtendedTextMessage: &waE2E.ExtendedTextMessage{
				Text: proto.String(text),
				ContextInfo: &waE2E.ContextInfo{
					MentionedJID: canonicalJIDs(mentions),
				},
			},
		}
	}
	if _, err := c.client.SendMessage(ctx, jid, msg); err != nil {
		return fmt.Errorf("send to %s: %w", chat, err)
	}
	return nil
}

func canonicalJIDs(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = perm.CanonicalJID(s)
	}
	return out
}

// SetGroupMode restricts (announce on) or opens (announce off) a group.
func (c *WhatsAppChannel) SetGroupMode(ctx context.Context, chat string, restricted bool) error {
	jid, err := types.ParseJID(chat)
	if err != nil {
		return fmt.Errorf("invalid chat JID %q: %w", chat, err)
	}
	if err := c.client.SetGroupAnnounce(ctx, jid, restricted); err != nil {
		return fmt.Errorf("set announce on %s: %w", chat, err)
	}
	return nil
}

// UpdateParticipants adds or removes members from a group.
func (c *WhatsAppChannel) UpdateParticipants(ctx context.Context, chat string, participants []string, add bool) error {
	jid, err := types.ParseJID(chat)
	if err != nil {
		return fmt.Errorf("invalid chat JID %q: %w", chat, err)
	}
	targets := make([]types.JID, 0, len(participants))
	for _, p := range participants {
		pj, err := types.ParseJID(perm.CanonicalJID(p))
		if err != nil {
			return fmt.Errorf("invalid participant JID %q: %w", p, err)
		}
		targets = append(targets, pj)
	}
	change := whatsmeow.ParticipantChangeRemove
	if add {
		change = whatsmeow.ParticipantChangeAdd
	}
	if _, err := c.client.UpdateGroupParticipants(ctx, jid, targets, change); err != nil {
		return fmt.Errorf("update participants in %s: %w", chat, err)
	}
	return nil
}

// GroupMembers fetches the group's current member list with roles.
func (c *WhatsAppChannel) GroupMembers(ctx context.Context, chat string) ([]perm.Member, error) {
	jid, err := types.ParseJID(chat)
	if err != nil {
		return nil, fmt.Errorf("invalid chat JID %q: %w", chat, err)
	}
	info, err := c.client.GetGroupInfo(ctx, jid)
	if err != nil {
		return nil, fmt.Errorf("group info for %s: %w", chat, err)
	}
	members := make([]perm.Member, 0, len(info.Participants))
	for _, p := range info.Participants {
		role := perm.RoleNone
		switch {
		case p.IsSuperAdmin:
			role = perm.RoleSuperAdmin
		case p.IsAdmin:
			role = perm.RoleAdmin
		}
		members = append(members, perm.Member{JID: p.JID.String(), Role: role})
	}
	return members, nil
}

// CheckNumber reports whether a phone number is registered on WhatsApp.
func (c *WhatsAppChannel) CheckNumber(ctx context.Context, number string) (bool, error) {
	resp, err := c.client.IsOnWhatsApp(ctx, []string{"+" + perm.Digits(number)})
	if err != nil {
		return false, fmt.Errorf("check %s: %w", number, err)
	}
	if len(resp) == 0 {
		return false, nil
	}
	return resp[0].IsIn, nil
}
