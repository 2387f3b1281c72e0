package store

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Action is a scheduled group-restriction action.
type Action string

const (
	ActionOpen  Action = "open"
	ActionClose Action = "close"
)

// ScheduleEntry is one pending open/close for a group. Fired flips true
// exactly once when the scheduler applies the entry; entries do not rearm.
type ScheduleEntry struct {
	Time      string `json:"time"`
	Action    Action `json:"action"`
	Requester string `json:"requester"`
	Fired     bool   `json:"fired"`
}

func save(path string, v any) {
	if err := writeTable(path, v); err != nil {
		slog.Error("store: save failed, memory stays authoritative", "path", path, "error", err)
	}
}

// ---------------------------------------------------------------------------
// TemplateTable – group id → welcome/goodbye template
// ---------------------------------------------------------------------------

type TemplateTable struct {
	mu   sync.Mutex
	path string
	m    map[string]string
}

func newTemplateTable(path string) *TemplateTable {
	m := readTable(path, func() map[string]string { return map[string]string{} })
	if m == nil {
		m = map[string]string{}
	}
	return &TemplateTable{path: path, m: m}
}

// Get returns the stored template, or "" when none is set.
func (t *TemplateTable) Get(chat string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.m[chat]
}

func (t *TemplateTable) Set(chat, template string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m[chat] = template
	save(t.path, t.m)
}

func (t *TemplateTable) Delete(chat string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.m[chat]; !ok {
		return false
	}
	delete(t.m, chat)
	save(t.path, t.m)
	return true
}

// ---------------------------------------------------------------------------
// CommandTable – global trigger → response
// ---------------------------------------------------------------------------

type CommandTable struct {
	mu   sync.Mutex
	path string
	m    map[string]string
}

func newCommandTable(path string) *CommandTable {
	m := readTable(path, func() map[string]string { return map[string]string{} })
	if m == nil {
		m = map[string]string{}
	}
	return &CommandTable{path: path, m: m}
}

// Get matches trigger case-insensitively against the stored triggers.
func (t *CommandTable) Get(trigger string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	resp, ok := t.m[strings.ToLower(trigger)]
	return resp, ok
}

func (t *CommandTable) Set(trigger, response string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m[strings.ToLower(trigger)] = response
	save(t.path, t.m)
}

func (t *CommandTable) Delete(trigger string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := strings.ToLower(trigger)
	if _, ok := t.m[key]; !ok {
		return false
	}
	delete(t.m, key)
	save(t.path, t.m)
	return true
}

func (t *CommandTable) List() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.m))
	for k := range t.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ---------------------------------------------------------------------------
// ScheduleTable – group id → ordered schedule entries
// ---------------------------------------------------------------------------

type ScheduleTable struct {
	mu   sync.Mutex
	path string
	m    map[string][]ScheduleEntry
}

func newScheduleTable(path string) *ScheduleTable {
	m := readTable(path, func() map[string][]ScheduleEntry { return map[string][]ScheduleEntry{} })
	if m == nil {
		m = map[string][]ScheduleEntry{}
	}
	return &ScheduleTable{path: path, m: m}
}

// Entries returns a copy of the group's entry list.
func (t *ScheduleTable) Entries(chat string) []ScheduleEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	src := t.m[chat]
	out := make([]ScheduleEntry, len(src))
	copy(out, src)
	return out
}

// Groups returns every group id with at least one entry.
func (t *ScheduleTable) Groups() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.m))
	for k := range t.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SetAction replaces the group's entry for action (resetting Fired), or
// appends one when none exists. Used by setopen/setclose.
func (t *ScheduleTable) SetAction(chat string, action Action, timeOfDay, requester string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entries := t.m[chat]
	for i := range entries {
		if entries[i].Action == action {
			entries[i] = ScheduleEntry{Time: timeOfDay, Action: action, Requester: requester}
			t.m[chat] = entries
			save(t.path, t.m)
			return
		}
	}
	t.m[chat] = append(entries, ScheduleEntry{Time: timeOfDay, Action: action, Requester: requester})
	save(t.path, t.m)
}

// Append adds an entry at the end of the group's list.
func (t *ScheduleTable) Append(chat string, e ScheduleEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m[chat] = append(t.m[chat], e)
	save(t.path, t.m)
}

// Remove deletes the entry at index (0-based). Returns false when out of range.
func (t *ScheduleTable) Remove(chat string, index int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	entries := t.m[chat]
	if index < 0 || index >= len(entries) {
		return false
	}
	t.m[chat] = append(entries[:index], entries[index+1:]...)
	if len(t.m[chat]) == 0 {
		delete(t.m, chat)
	}
	save(t.path, t.m)
	return true
}

// Clear drops every entry for the group and returns how many were removed.
func (t *ScheduleTable) Clear(chat string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.m[chat])
	if n == 0 {
		return 0
	}
	delete(t.m, chat)
	save(t.path, t.m)
	return n
}

// MarkFired flips Fired on the first unfired entry matching e. The match is
// by value rather than index so a concurrent removal cannot fire the wrong
// entry. Returns false when no matching entry remains.
func (t *ScheduleTable) MarkFired(chat string, e ScheduleEntry) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	entries := t.m[chat]
	for i := range entries {
		if !entries[i].Fired && entries[i].Time == e.Time && entries[i].Action == e.Action && entries[i].Requester == e.Requester {
			entries[i].Fired = true
			t.m[chat] = entries
			save(t.path, t.m)
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// AdminTable – bot owner + bot-level admin registry
// ---------------------------------------------------------------------------

type adminFile struct {
	Owner  string          `json:"owner"`
	Admins map[string]bool `json:"admins"`
}

type AdminTable struct {
	mu   sync.Mutex
	path string
	f    adminFile
}

func newAdminTable(path, ownerNumber string) *AdminTable {
	f := readTable(path, func() adminFile { return adminFile{Admins: map[string]bool{}} })
	if f.Admins == nil {
		f.Admins = map[string]bool{}
	}
	t := &AdminTable{path: path, f: f}
	if ownerNumber != "" && f.Owner != ownerNumber {
		t.f.Owner = ownerNumber
		save(path, t.f)
	}
	return t
}

func (t *AdminTable) Owner() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.f.Owner
}

func (t *AdminTable) IsAdmin(number string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.f.Admins[number]
}

// Add registers number as a bot admin. Returns false when already present.
func (t *AdminTable) Add(number string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.f.Admins[number] {
		return false
	}
	t.f.Admins[number] = true
	save(t.path, t.f)
	return true
}

func (t *AdminTable) Remove(number string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.f.Admins[number] {
		return false
	}
	delete(t.f.Admins, number)
	save(t.path, t.f)
	return true
}

func (t *AdminTable) List() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.f.Admins))
	for n := range t.f.Admins {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ---------------------------------------------------------------------------
// BlacklistTable – group id → blocked phone numbers
// ---------------------------------------------------------------------------

type BlacklistTable struct {
	mu   sync.Mutex
	path string
	m    map[string]map[string]bool
}

func newBlacklistTable(path string) *BlacklistTable {
	m := readTable(path, func() map[string]map[string]bool { return map[string]map[string]bool{} })
	if m == nil {
		m = map[string]map[string]bool{}
	}
	return &BlacklistTable{path: path, m: m}
}

func (t *BlacklistTable) IsListed(chat, number string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.m[chat][number]
}

func (t *BlacklistTable) Add(chat, number string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.m[chat] == nil {
		t.m[chat] = map[string]bool{}
	}
	if t.m[chat][number] {
		return false
	}
	t.m[chat][number] = true
	save(t.path, t.m)
	return true
}

func (t *BlacklistTable) Remove(chat, number string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.m[chat][number] {
		return false
	}
	delete(t.m[chat], number)
	if len(t.m[chat]) == 0 {
		delete(t.m, chat)
	}
	save(t.path, t.m)
	return true
}

func (t *BlacklistTable) List(chat string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.m[chat]))
	for n := range t.m[chat] {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
