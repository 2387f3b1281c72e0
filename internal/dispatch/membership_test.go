package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/4ndikaRizaldy/smartbotv2/internal/bus"
)

var errTransport = errors.New("transport down")

func joinEvent(participants ...string) bus.MembershipEvent {
	return bus.MembershipEvent{Chat: testGroup, Action: bus.ActionJoin, Participants: participants}
}

func leaveEvent(participants ...string) bus.MembershipEvent {
	return bus.MembershipEvent{Chat: testGroup, Action: bus.ActionLeave, Participants: participants}
}

func TestWelcomeSubstitutesMention(t *testing.T) {
	tr := &fakeTransport{}
	d, tables := newTestDispatcher(t, tr)
	tables.Welcome.Set(testGroup, "Selamat datang @user di grup! 🎉")

	d.HandleMembership(context.Background(), joinEvent(member1))

	if len(tr.sent) != 1 {
		t.Fatalf("sent = %d", len(tr.sent))
	}
	msg := tr.sent[0]
	if msg.text != "Selamat datang @628333 di grup! 🎉" {
		t.Fatalf("text %q", msg.text)
	}
	if len(msg.mentions) != 1 || msg.mentions[0] != member1 {
		t.Fatalf("mentions %v", msg.mentions)
	}
}

func TestWelcomeSilentWithoutTemplate(t *testing.T) {
	tr := &fakeTransport{}
	d, _ := newTestDispatcher(t, tr)
	d.HandleMembership(context.Background(), joinEvent(member1))
	if len(tr.sent) != 0 {
		t.Fatalf("unexpected send %q", tr.lastText())
	}
}

func TestWelcomeFallsBackToPlainSend(t *testing.T) {
	tr := &fakeTransport{failMentions: true}
	d, tables := newTestDispatcher(t, tr)
	tables.Welcome.Set(testGroup, "Halo @user")

	d.HandleMembership(context.Background(), joinEvent(member1))

	if len(tr.sent) != 1 {
		t.Fatalf("sent = %d", len(tr.sent))
	}
	msg := tr.sent[0]
	if msg.text != "Halo @628333" || msg.mentions != nil {
		t.Fatalf("fallback send %+v", msg)
	}
}

func TestGoodbyePerParticipant(t *testing.T) {
	tr := &fakeTransport{}
	d, tables := newTestDispatcher(t, tr)
	tables.Goodbye.Set(testGroup, "Sampai jumpa @user 👋")

	d.HandleMembership(context.Background(), leaveEvent(member1, admin1))

	if len(tr.sent) != 2 {
		t.Fatalf("sent = %d, want one message per leaver", len(tr.sent))
	}
	if !strings.Contains(tr.sent[0].text, "@628333") || !strings.Contains(tr.sent[1].text, "@628222") {
		t.Fatalf("texts %q / %q", tr.sent[0].text, tr.sent[1].text)
	}
}

func TestBlacklistedJoinerRemovedBeforeWelcome(t *testing.T) {
	tr := &fakeTransport{}
	d, tables := newTestDispatcher(t, tr)
	tables.Welcome.Set(testGroup, "Selamat datang @user")
	tables.Blacklist.Add(testGroup, "628333")

	d.HandleMembership(context.Background(), joinEvent(member1, admin1))

	if len(tr.partCalls) != 1 {
		t.Fatalf("partCalls = %d", len(tr.partCalls))
	}
	call := tr.partCalls[0]
	if call.add || call.participants[0] != member1 {
		t.Fatalf("removal call %+v", call)
	}
	// member1 got the removal notice, admin1 got the welcome.
	var welcomed, noticed bool
	for _, m := range tr.sent {
		if strings.Contains(m.text, "daftar hitam") {
			noticed = true
		}
		if strings.Contains(m.text, "@628222") {
			welcomed = true
		}
		if strings.Contains(m.text, "Selamat datang @628333") {
			t.Fatal("blacklisted joiner was welcomed")
		}
	}
	if !noticed || !welcomed {
		t.Fatalf("noticed=%v welcomed=%v, sent=%v", noticed, welcomed, tr.sent)
	}
}

func TestBlacklistRemovalFailureStillSkipsWelcome(t *testing.T) {
	tr := &fakeTransport{partErr: errTransport}
	d, tables := newTestDispatcher(t, tr)
	tables.Welcome.Set(testGroup, "Selamat datang @user")
	tables.Blacklist.Add(testGroup, "628333")

	d.HandleMembership(context.Background(), joinEvent(member1))

	for _, m := range tr.sent {
		if strings.Contains(m.text, "Selamat datang") {
			t.Fatal("blacklisted joiner welcomed after failed removal")
		}
	}
}
