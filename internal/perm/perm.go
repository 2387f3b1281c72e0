// Package perm answers the three permission questions the dispatcher and
// scheduler ask: is the sender a group admin, the bot owner, or a bot-level
// admin. Missing or unreachable membership data always resolves to false.
package perm

import (
	"context"
	"log/slog"
	"strings"
)

// Role is a group member's capability, populated once when membership is
// fetched from the transport.
type Role int

const (
	RoleNone Role = iota
	RoleAdmin
	RoleSuperAdmin
)

// Member is one entry of a group's member list.
type Member struct {
	JID  string
	Role Role
}

// IsAdmin reports whether the member holds any admin capability.
func (m Member) IsAdmin() bool {
	return m.Role == RoleAdmin || m.Role == RoleSuperAdmin
}

const userServer = "s.whatsapp.net"

// Digits strips everything but digits from a phone number or JID,
// dropping the server suffix and any device part first.
func Digits(s string) string {
	if i := strings.IndexByte(s, '@'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CanonicalJID normalizes a sender to the <digits>@s.whatsapp.net form.
func CanonicalJID(s string) string {
	if strings.Contains(s, "@") {
		return s
	}
	return Digits(s) + "@" + userServer
}

// MemberSource fetches a group's current member list with roles.
type MemberSource interface {
	GroupMembers(ctx context.Context, chat string) ([]Member, error)
}

// Registry exposes the persisted owner/admin allowlist.
type Registry interface {
	Owner() string
	IsAdmin(number string) bool
}

// Resolver decides permissions for a sender. All checks are read-only and
// fail closed.
type Resolver struct {
	Registry Registry
	Members  MemberSource
	// SelfJID returns the bot's own identity, or "" before login.
	SelfJID func() string
}

// IsGroupAdmin reports whether sender holds an admin role in members.
// Identity match is by digits so device suffixes don't matter.
func IsGroupAdmin(sender string, members []Member) bool {
	want := Digits(sender)
	if want == "" {
		return false
	}
	for _, m := range members {
		if Digits(m.JID) == want {
			return m.IsAdmin()
		}
	}
	return false
}

// GroupAdmin fetches the group's members and reports whether sender is an
// admin there. Unreachable metadata resolves to false.
func (r *Resolver) GroupAdmin(ctx context.Context, chat, sender string) bool {
	members, err := r.Members.GroupMembers(ctx, chat)
	if err != nil {
		slog.Warn("perm: group metadata unavailable, denying", "chat", chat, "error", err)
		return false
	}
	return IsGroupAdmin(sender, members)
}

// IsOwner compares the sender's digits against the registry owner.
func (r *Resolver) IsOwner(sender string) bool {
	owner := Digits(r.Registry.Owner())
	return owner != "" && Digits(sender) == owner
}

// IsBotAdmin reports whether sender is the owner or a registered bot admin.
func (r *Resolver) IsBotAdmin(sender string) bool {
	if r.IsOwner(sender) {
		return true
	}
	return r.Registry.IsAdmin(Digits(sender))
}

// BotIsGroupAdmin reports whether the bot itself holds an admin role in the
// group. Used before actions that need admin rights on the live group.
func (r *Resolver) BotIsGroupAdmin(ctx context.Context, chat string) bool {
	self := ""
	if r.SelfJID != nil {
		self = r.SelfJID()
	}
	if self == "" {
		return false
	}
	members, err := r.Members.GroupMembers(ctx, chat)
	if err != nil {
		slog.Warn("perm: group metadata unavailable for self check", "chat", chat, "error", err)
		return false
	}
	return IsGroupAdmin(self, members)
}
