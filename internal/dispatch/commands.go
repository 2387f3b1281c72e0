package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/4ndikaRizaldy/smartbotv2/internal/perm"
	"github.com/4ndikaRizaldy/smartbotv2/internal/scheduler"
	"github.com/4ndikaRizaldy/smartbotv2/internal/store"
)

// commandTable is the ordered list of built-in commands. Matching walks it
// top to bottom; the first name hit wins.
func commandTable() []command {
	return []command{
		{names: []string{"help", "menu"}, handler: (*Dispatcher).cmdHelp},
		{names: []string{"ping"}, handler: (*Dispatcher).cmdPing},
		{names: []string{"uptime"}, handler: (*Dispatcher).cmdUptime},
		{names: []string{"cekno"}, handler: (*Dispatcher).cmdCheckNumber},
		{names: []string{"listcmd"}, handler: (*Dispatcher).cmdListCustom},

		{names: []string{"tagall"}, groupOnly: true, handler: (*Dispatcher).cmdTagAll},
		{names: []string{"viewschedule", "listjadwal"}, groupOnly: true, handler: (*Dispatcher).cmdViewSchedule},

		{names: []string{"hidetag"}, groupOnly: true, gate: gateGroupAdmin, handler: (*Dispatcher).cmdHideTag},
		{names: []string{"setwelcome"}, groupOnly: true, gate: gateGroupAdmin, handler: (*Dispatcher).cmdSetWelcome},
		{names: []string{"setgoodbye"}, groupOnly: true, gate: gateGroupAdmin, handler: (*Dispatcher).cmdSetGoodbye},
		{names: []string{"add"}, groupOnly: true, gate: gateGroupAdmin, handler: (*Dispatcher).cmdAdd},
		{names: []string{"kick"}, groupOnly: true, gate: gateGroupAdmin, handler: (*Dispatcher).cmdKick},
		{names: []string{"buka", "bukagrup"}, groupOnly: true, gate: gateGroupAdmin, handler: (*Dispatcher).cmdOpenGroup},
		{names: []string{"tutup", "tutupgrup"}, groupOnly: true, gate: gateGroupAdmin, handler: (*Dispatcher).cmdCloseGroup},
		{names: []string{"setopen"}, groupOnly: true, gate: gateGroupAdmin, handler: (*Dispatcher).cmdSetOpen},
		{names: []string{"setclose"}, groupOnly: true, gate: gateGroupAdmin, handler: (*Dispatcher).cmdSetClose},
		{names: []string{"addjadwal"}, groupOnly: true, gate: gateGroupAdmin, handler: (*Dispatcher).cmdAddSchedule},
		{names: []string{"delschedule", "deljadwal"}, groupOnly: true, gate: gateGroupAdmin, handler: (*Dispatcher).cmdDelSchedule},
		{names: []string{"blacklist"}, groupOnly: true, gate: gateGroupAdmin, handler: (*Dispatcher).cmdBlacklist},

		{names: []string{"addcmd"}, gate: gateBotAdmin, handler: (*Dispatcher).cmdAddCustom},
		{names: []string{"delcmd"}, gate: gateBotAdmin, handler: (*Dispatcher).cmdDelCustom},

		{names: []string{"addadmin"}, gate: gateOwner, handler: (*Dispatcher).cmdAddAdmin},
		{names: []string{"deladmin"}, gate: gateOwner, handler: (*Dispatcher).cmdDelAdmin},
		{names: []string{"listadmin"}, gate: gateOwner, handler: (*Dispatcher).cmdListAdmin},
	}
}

func (d *Dispatcher) cmdHelp(ctx context.Context, req *request) {
	p := d.prefix
	var b strings.Builder
	b.WriteString("🤖 *SmartBot Menu*\n\n")
	b.WriteString("*Umum*\n")
	fmt.Fprintf(&b, "%sping - cek bot hidup\n", p)
	fmt.Fprintf(&b, "%suptime - lama bot berjalan\n", p)
	fmt.Fprintf(&b, "%scekno <nomor> - cek nomor terdaftar WhatsApp\n", p)
	fmt.Fprintf(&b, "%slistcmd - daftar perintah custom\n", p)
	b.WriteString("\n*Grup*\n")
	fmt.Fprintf(&b, "%stagall [pesan] - tag semua anggota\n", p)
	fmt.Fprintf(&b, "%shidetag <pesan> - tag tersembunyi (admin)\n", p)
	fmt.Fprintf(&b, "%ssetwelcome <pesan> - pesan sambutan, @user untuk mention\n", p)
	fmt.Fprintf(&b, "%ssetgoodbye <pesan> - pesan perpisahan\n", p)
	fmt.Fprintf(&b, "%sadd <nomor> - tambah anggota\n", p)
	fmt.Fprintf(&b, "%skick @user - keluarkan anggota\n", p)
	fmt.Fprintf(&b, "%sbuka / %stutup - buka/tutup grup\n", p, p)
	b.WriteString("\n*Jadwal*\n")
	fmt.Fprintf(&b, "%ssetopen HH:MM - jadwal buka otomatis\n", p)
	fmt.Fprintf(&b, "%ssetclose HH:MM - jadwal tutup otomatis\n", p)
	fmt.Fprintf(&b, "%saddjadwal HH:MM open|close - tambah jadwal\n", p)
	fmt.Fprintf(&b, "%slistjadwal - lihat jadwal\n", p)
	fmt.Fprintf(&b, "%sdeljadwal [nomor] - hapus satu/semua jadwal\n", p)
	b.WriteString("\n*Moderasi*\n")
	fmt.Fprintf(&b, "%sblacklist add|del <nomor>\n", p)
	fmt.Fprintf(&b, "%saddcmd <trigger>|<balasan> - perintah custom (admin bot)\n", p)
	fmt.Fprintf(&b, "%sdelcmd <trigger>\n", p)
	d.reply(ctx, req.ev.Chat, b.String())
}

func (d *Dispatcher) cmdPing(ctx context.Context, req *request) {
	d.reply(ctx, req.ev.Chat, "Pong! 🏓")
}

func (d *Dispatcher) cmdUptime(ctx context.Context, req *request) {
	up := time.Since(d.started).Round(time.Second)
	d.reply(ctx, req.ev.Chat, fmt.Sprintf("⏱️ Bot aktif selama %s", formatDuration(up)))
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d jam %d menit %d detik", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%d menit %d detik", m, s)
	}
	return fmt.Sprintf("%d detik", s)
}

func (d *Dispatcher) cmdCheckNumber(ctx context.Context, req *request) {
	number := perm.Digits(req.args)
	if number == "" {
		d.reply(ctx, req.ev.Chat, fmt.Sprintf("⚠️ Format: %scekno 628xxxx", d.prefix))
		return
	}
	ok, err := d.transport.CheckNumber(ctx, number)
	if err != nil {
		d.reply(ctx, req.ev.Chat, "❌ Gagal memeriksa nomor.")
		return
	}
	if ok {
		d.reply(ctx, req.ev.Chat, fmt.Sprintf("✅ %s terdaftar di WhatsApp.", number))
	} else {
		d.reply(ctx, req.ev.Chat, fmt.Sprintf("❌ %s tidak terdaftar di WhatsApp.", number))
	}
}

func (d *Dispatcher) cmdSetWelcome(ctx context.Context, req *request) {
	if req.args == "" {
		d.reply(ctx, req.ev.Chat, fmt.Sprintf("⚠️ Format: %ssetwelcome <pesan>, pakai @user untuk mention.", d.prefix))
		return
	}
	d.tables.Welcome.Set(req.ev.Chat, req.args)
	d.reply(ctx, req.ev.Chat, "✅ Pesan welcome disimpan!")
}

func (d *Dispatcher) cmdSetGoodbye(ctx context.Context, req *request) {
	if req.args == "" {
		d.reply(ctx, req.ev.Chat, fmt.Sprintf("⚠️ Format: %ssetgoodbye <pesan>, pakai @user untuk mention.", d.prefix))
		return
	}
	d.tables.Goodbye.Set(req.ev.Chat, req.args)
	d.reply(ctx, req.ev.Chat, "✅ Pesan goodbye disimpan!")
}

func (d *Dispatcher) cmdTagAll(ctx context.Context, req *request) {
	members, err := d.transport.GroupMembers(ctx, req.ev.Chat)
	if err != nil {
		d.reply(ctx, req.ev.Chat, "❌ Gagal mengambil data grup.")
		return
	}
	var b strings.Builder
	b.WriteString("📢 *Tag All*")
	if req.args != "" {
		b.WriteString("\n")
		b.WriteString(req.args)
	}
	b.WriteString("\n")
	mentions := make([]string, 0, len(members))
	for _, m := range members {
		fmt.Fprintf(&b, "\n@%s", perm.Digits(m.JID))
		mentions = append(mentions, m.JID)
	}
	d.replyMentions(ctx, req.ev.Chat, b.String(), mentions)
}

func (d *Dispatcher) cmdHideTag(ctx context.Context, req *request) {
	text := req.args
	if text == "" {
		text = "📢"
	}
	mentions := make([]string, 0, len(req.members))
	for _, m := range req.members {
		mentions = append(mentions, m.JID)
	}
	d.replyMentions(ctx, req.ev.Chat, text, mentions)
}

func (d *Dispatcher) cmdAdd(ctx context.Context, req *request) {
	number := perm.Digits(req.args)
	if req.args == "" {
		d.reply(ctx, req.ev.Chat, fmt.Sprintf("⚠️ Format: %sadd 628xxxx", d.prefix))
		return
	}
	if number == "" {
		d.reply(ctx, req.ev.Chat, "⚠️ Nomor harus angka.")
		return
	}
	if !d.resolver.BotIsGroupAdmin(ctx, req.ev.Chat) {
		d.reply(ctx, req.ev.Chat, "❌ Bot bukan admin grup.")
		return
	}
	jid := perm.CanonicalJID(number)
	if err := d.transport.UpdateParticipants(ctx, req.ev.Chat, []string{jid}, true); err != nil {
		d.reply(ctx, req.ev.Chat, fmt.Sprintf("❌ Gagal menambahkan %s.", number))
		return
	}
	d.reply(ctx, req.ev.Chat, fmt.Sprintf("✅ %s berhasil ditambahkan.", number))
}

func (d *Dispatcher) cmdKick(ctx context.Context, req *request) {
	if len(req.ev.Mentioned) == 0 {
		d.reply(ctx, req.ev.Chat, fmt.Sprintf("⚠️ Format: %skick @user", d.prefix))
		return
	}
	if !d.resolver.BotIsGroupAdmin(ctx, req.ev.Chat) {
		d.reply(ctx, req.ev.Chat, "❌ Bot bukan admin grup.")
		return
	}
	if err := d.transport.UpdateParticipants(ctx, req.ev.Chat, req.ev.Mentioned, false); err != nil {
		d.reply(ctx, req.ev.Chat, "❌ Gagal mengeluarkan anggota.")
		return
	}
	d.reply(ctx, req.ev.Chat, fmt.Sprintf("✅ Berhasil mengeluarkan %d anggota.", len(req.ev.Mentioned)))
}

func (d *Dispatcher) cmdOpenGroup(ctx context.Context, req *request) {
	if err := d.transport.SetGroupMode(ctx, req.ev.Chat, false); err != nil {
		d.reply(ctx, req.ev.Chat, "❌ Gagal membuka grup.")
		return
	}
	d.reply(ctx, req.ev.Chat, "🔓 Grup dibuka. Semua anggota bisa mengirim pesan.")
}

func (d *Dispatcher) cmdCloseGroup(ctx context.Context, req *request) {
	if err := d.transport.SetGroupMode(ctx, req.ev.Chat, true); err != nil {
		d.reply(ctx, req.ev.Chat, "❌ Gagal menutup grup.")
		return
	}
	d.reply(ctx, req.ev.Chat, "🔒 Grup ditutup. Hanya admin yang bisa mengirim pesan.")
}

func (d *Dispatcher) cmdSetOpen(ctx context.Context, req *request) {
	d.setActionSchedule(ctx, req, store.ActionOpen, "buka")
}

func (d *Dispatcher) cmdSetClose(ctx context.Context, req *request) {
	d.setActionSchedule(ctx, req, store.ActionClose, "tutup")
}

// setActionSchedule is the shared body of setopen/setclose: one entry per
// action per group, replacing any previous one.
func (d *Dispatcher) setActionSchedule(ctx context.Context, req *request, action store.Action, label string) {
	min, err := scheduler.ParseTimeOfDay(req.args)
	if err != nil {
		d.reply(ctx, req.ev.Chat, fmt.Sprintf("⚠️ Format: %s%s HH:MM (contoh 06:30)", d.prefix, req.name))
		return
	}
	t := scheduler.FormatTimeOfDay(min)
	d.tables.Schedules.SetAction(req.ev.Chat, action, t, perm.Digits(req.ev.Sender))
	d.reply(ctx, req.ev.Chat, fmt.Sprintf("✅ Jam %s otomatis diset: %s", label, t))
}

func (d *Dispatcher) cmdAddSchedule(ctx context.Context, req *request) {
	fields := strings.Fields(req.args)
	usage := fmt.Sprintf("⚠️ Format: %saddjadwal HH:MM open|close", d.prefix)
	if len(fields) != 2 {
		d.reply(ctx, req.ev.Chat, usage)
		return
	}
	min, err := scheduler.ParseTimeOfDay(fields[0])
	if err != nil {
		d.reply(ctx, req.ev.Chat, usage)
		return
	}
	var action store.Action
	switch strings.ToLower(fields[1]) {
	case "open":
		action = store.ActionOpen
	case "close":
		action = store.ActionClose
	default:
		d.reply(ctx, req.ev.Chat, usage)
		return
	}
	t := scheduler.FormatTimeOfDay(min)
	d.tables.Schedules.Append(req.ev.Chat, store.ScheduleEntry{
		Time:      t,
		Action:    action,
		Requester: perm.Digits(req.ev.Sender),
	})
	d.reply(ctx, req.ev.Chat, fmt.Sprintf("✅ Jadwal %s %s ditambahkan.", action, t))
}

func (d *Dispatcher) cmdViewSchedule(ctx context.Context, req *request) {
	entries := d.tables.Schedules.Entries(req.ev.Chat)
	if len(entries) == 0 {
		d.reply(ctx, req.ev.Chat, "📅 Belum ada jadwal untuk grup ini.")
		return
	}
	var b strings.Builder
	b.WriteString("📅 *Jadwal Grup*\n")
	for i, e := range entries {
		status := ""
		if e.Fired {
			status = " (sudah jalan)"
		}
		fmt.Fprintf(&b, "\n%d. %s %s%s", i+1, e.Time, e.Action, status)
	}
	d.reply(ctx, req.ev.Chat, b.String())
}

func (d *Dispatcher) cmdDelSchedule(ctx context.Context, req *request) {
	if req.args == "" {
		n := d.tables.Schedules.Clear(req.ev.Chat)
		if n == 0 {
			d.reply(ctx, req.ev.Chat, "📅 Tidak ada jadwal yang bisa dihapus.")
			return
		}
		d.reply(ctx, req.ev.Chat, fmt.Sprintf("🗑️ %d jadwal dihapus.", n))
		return
	}
	idx, err := strconv.Atoi(strings.TrimSpace(req.args))
	if err != nil || idx < 1 {
		d.reply(ctx, req.ev.Chat, fmt.Sprintf("⚠️ Format: %sdeljadwal [nomor dari %slistjadwal]", d.prefix, d.prefix))
		return
	}
	if !d.tables.Schedules.Remove(req.ev.Chat, idx-1) {
		d.reply(ctx, req.ev.Chat, fmt.Sprintf("⚠️ Jadwal nomor %d tidak ditemukan.", idx))
		return
	}
	d.reply(ctx, req.ev.Chat, fmt.Sprintf("🗑️ Jadwal nomor %d dihapus.", idx))
}

func (d *Dispatcher) cmdBlacklist(ctx context.Context, req *request) {
	fields := strings.Fields(req.args)
	usage := fmt.Sprintf("⚠️ Format: %sblacklist add|del <nomor>", d.prefix)
	if len(fields) != 2 {
		d.reply(ctx, req.ev.Chat, usage)
		return
	}
	number := perm.Digits(fields[1])
	if number == "" {
		d.reply(ctx, req.ev.Chat, "⚠️ Nomor harus angka.")
		return
	}
	switch strings.ToLower(fields[0]) {
	case "add":
		d.tables.Blacklist.Add(req.ev.Chat, number)
		d.reply(ctx, req.ev.Chat, fmt.Sprintf("🚫 %s masuk daftar hitam grup ini.", number))
	case "del":
		if d.tables.Blacklist.Remove(req.ev.Chat, number) {
			d.reply(ctx, req.ev.Chat, fmt.Sprintf("✅ %s dihapus dari daftar hitam.", number))
		} else {
			d.reply(ctx, req.ev.Chat, fmt.Sprintf("⚠️ %s tidak ada di daftar hitam.", number))
		}
	default:
		d.reply(ctx, req.ev.Chat, usage)
	}
}

func (d *Dispatcher) cmdAddCustom(ctx context.Context, req *request) {
	trigger, resp, ok := strings.Cut(req.args, "|")
	trigger = strings.ToLower(strings.TrimSpace(trigger))
	resp = strings.TrimSpace(resp)
	if !ok || trigger == "" || resp == "" {
		d.reply(ctx, req.ev.Chat, fmt.Sprintf("⚠️ Format: %saddcmd trigger|balasan", d.prefix))
		return
	}
	d.tables.Commands.Set(trigger, resp)
	d.reply(ctx, req.ev.Chat, fmt.Sprintf("✅ Perintah custom *%s* disimpan.", trigger))
}

func (d *Dispatcher) cmdDelCustom(ctx context.Context, req *request) {
	trigger := strings.ToLower(strings.TrimSpace(req.args))
	if trigger == "" {
		d.reply(ctx, req.ev.Chat, fmt.Sprintf("⚠️ Format: %sdelcmd trigger", d.prefix))
		return
	}
	if d.tables.Commands.Delete(trigger) {
		d.reply(ctx, req.ev.Chat, fmt.Sprintf("🗑️ Perintah custom *%s* dihapus.", trigger))
	} else {
		d.reply(ctx, req.ev.Chat, fmt.Sprintf("⚠️ Perintah *%s* tidak ditemukan.", trigger))
	}
}

func (d *Dispatcher) cmdListCustom(ctx context.Context, req *request) {
	triggers := d.tables.Commands.List()
	if len(triggers) == 0 {
		d.reply(ctx, req.ev.Chat, "📋 Belum ada perintah custom.")
		return
	}
	var b strings.Builder
	b.WriteString("📋 *Perintah Custom*\n")
	for _, t := range triggers {
		fmt.Fprintf(&b, "\n• %s", t)
	}
	d.reply(ctx, req.ev.Chat, b.String())
}

func (d *Dispatcher) cmdAddAdmin(ctx context.Context, req *request) {
	number := perm.Digits(req.args)
	if number == "" {
		d.reply(ctx, req.ev.Chat, fmt.Sprintf("⚠️ Format: %saddadmin 628xxxx", d.prefix))
		return
	}
	d.tables.Admins.Add(number)
	d.reply(ctx, req.ev.Chat, fmt.Sprintf("✅ %s sekarang admin bot.", number))
}

func (d *Dispatcher) cmdDelAdmin(ctx context.Context, req *request) {
	number := perm.Digits(req.args)
	if number == "" {
		d.reply(ctx, req.ev.Chat, fmt.Sprintf("⚠️ Format: %sdeladmin 628xxxx", d.prefix))
		return
	}
	if d.tables.Admins.Remove(number) {
		d.reply(ctx, req.ev.Chat, fmt.Sprintf("🗑️ %s bukan lagi admin bot.", number))
	} else {
		d.reply(ctx, req.ev.Chat, fmt.Sprintf("⚠️ %s tidak ada di daftar admin.", number))
	}
}

func (d *Dispatcher) cmdListAdmin(ctx context.Context, req *request) {
	var b strings.Builder
	b.WriteString("👑 *Admin Bot*\n")
	fmt.Fprintf(&b, "\n• %s (owner)", d.tables.Admins.Owner())
	for _, a := range d.tables.Admins.List() {
		fmt.Fprintf(&b, "\n• %s", a)
	}
	d.reply(ctx, req.ev.Chat, b.String())
}
