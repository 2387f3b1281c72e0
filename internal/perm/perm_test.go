package perm

import (
	"context"
	"errors"
	"testing"
)

func TestDigits(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"628123@s.whatsapp.net", "628123"},
		{"628123:15@s.whatsapp.net", "628123"},
		{"+62 812-3", "62812" + "3"},
		{"628123", "628123"},
		{"", ""},
		{"abc@g.us", ""},
	}
	for _, tc := range tests {
		if got := Digits(tc.in); got != tc.want {
			t.Errorf("Digits(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCanonicalJID(t *testing.T) {
	if got := CanonicalJID("628123"); got != "628123@s.whatsapp.net" {
		t.Errorf("CanonicalJID bare = %q", got)
	}
	if got := CanonicalJID("628123@s.whatsapp.net"); got != "628123@s.whatsapp.net" {
		t.Errorf("CanonicalJID full = %q", got)
	}
}

func TestIsGroupAdmin(t *testing.T) {
	members := []Member{
		{JID: "628111@s.whatsapp.net", Role: RoleSuperAdmin},
		{JID: "628222@s.whatsapp.net", Role: RoleAdmin},
		{JID: "628333@s.whatsapp.net", Role: RoleNone},
	}
	tests := []struct {
		sender string
		want   bool
	}{
		{"628111@s.whatsapp.net", true},
		{"628222", true},
		{"628222:44@s.whatsapp.net", true},
		{"628333@s.whatsapp.net", false},
		{"628999@s.whatsapp.net", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := IsGroupAdmin(tc.sender, members); got != tc.want {
			t.Errorf("IsGroupAdmin(%q) = %v, want %v", tc.sender, got, tc.want)
		}
	}
}

type fakeRegistry struct {
	owner  string
	admins map[string]bool
}

func (f fakeRegistry) Owner() string            { return f.owner }
func (f fakeRegistry) IsAdmin(number string) bool { return f.admins[number] }

type fakeMembers struct {
	members []Member
	err     error
}

func (f fakeMembers) GroupMembers(ctx context.Context, chat string) ([]Member, error) {
	return f.members, f.err
}

func TestResolverOwnerAndBotAdmin(t *testing.T) {
	r := &Resolver{Registry: fakeRegistry{owner: "628000", admins: map[string]bool{"628111": true}}}

	if !r.IsOwner("628000@s.whatsapp.net") {
		t.Error("owner not recognized")
	}
	if r.IsOwner("628111@s.whatsapp.net") {
		t.Error("admin mistaken for owner")
	}
	if !r.IsBotAdmin("628111") {
		t.Error("registry admin not recognized")
	}
	if !r.IsBotAdmin("628000") {
		t.Error("owner should pass bot-admin check")
	}
	if r.IsBotAdmin("628999") {
		t.Error("stranger passed bot-admin check")
	}
}

func TestResolverEmptyOwnerNeverMatches(t *testing.T) {
	r := &Resolver{Registry: fakeRegistry{admins: map[string]bool{}}}
	if r.IsOwner("") || r.IsOwner("abc") {
		t.Error("empty owner must never match")
	}
}

func TestGroupAdminFailsClosed(t *testing.T) {
	r := &Resolver{
		Registry: fakeRegistry{},
		Members:  fakeMembers{err: errors.New("metadata unavailable")},
	}
	if r.GroupAdmin(context.Background(), "g@g.us", "628111") {
		t.Error("unreachable metadata must deny")
	}
}

func TestBotIsGroupAdmin(t *testing.T) {
	members := []Member{{JID: "628777@s.whatsapp.net", Role: RoleAdmin}}
	r := &Resolver{
		Registry: fakeRegistry{},
		Members:  fakeMembers{members: members},
		SelfJID:  func() string { return "628777:3@s.whatsapp.net" },
	}
	if !r.BotIsGroupAdmin(context.Background(), "g@g.us") {
		t.Error("bot admin role not detected")
	}

	r.SelfJID = func() string { return "" }
	if r.BotIsGroupAdmin(context.Background(), "g@g.us") {
		t.Error("missing self identity must deny")
	}
}
