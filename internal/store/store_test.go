package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	tables, err := Open(dir, "628111")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if tables.Admins.Owner() != "628111" {
		t.Errorf("owner = %q", tables.Admins.Owner())
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("data dir not created: %v", err)
	}
}

func TestCorruptTableYieldsDefaultAndRewrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "welcome.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	tables, err := Open(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	if got := tables.Welcome.Get("any@g.us"); got != "" {
		t.Errorf("corrupt table lookup = %q, want empty", got)
	}

	// The corrupt file must have been rewritten as a valid empty table.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		t.Errorf("rewritten file still invalid: %v", err)
	}
}

func TestTemplateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	tables, _ := Open(dir, "")
	tables.Welcome.Set("g1@g.us", "Selamat datang @user")

	// Reload from disk to prove persistence.
	reloaded, _ := Open(dir, "")
	if got := reloaded.Welcome.Get("g1@g.us"); got != "Selamat datang @user" {
		t.Errorf("reloaded template = %q", got)
	}
	if got := reloaded.Welcome.Get("other@g.us"); got != "" {
		t.Errorf("missing key = %q, want empty fallback", got)
	}
}

func TestWriteIsAtomicRename(t *testing.T) {
	dir := t.TempDir()
	tables, _ := Open(dir, "")
	tables.Welcome.Set("g1@g.us", "hi")
	if _, err := os.Stat(filepath.Join(dir, "welcome.json.tmp")); !os.IsNotExist(err) {
		t.Error("tmp file left behind after save")
	}
}

func TestCommandTableCaseInsensitive(t *testing.T) {
	tables, _ := Open(t.TempDir(), "")
	tables.Commands.Set("Halo", "hi!")

	if resp, ok := tables.Commands.Get("HALO"); !ok || resp != "hi!" {
		t.Errorf("Get(HALO) = %q, %v", resp, ok)
	}
	if !tables.Commands.Delete("halo") {
		t.Error("Delete returned false for existing trigger")
	}
	if _, ok := tables.Commands.Get("halo"); ok {
		t.Error("trigger still present after delete")
	}
	if tables.Commands.Delete("halo") {
		t.Error("second delete should report missing")
	}
}

func TestScheduleSetActionReplaces(t *testing.T) {
	tables, _ := Open(t.TempDir(), "")
	g := "g1@g.us"
	tables.Schedules.SetAction(g, ActionOpen, "07:00", "628111")
	tables.Schedules.SetAction(g, ActionClose, "22:00", "628111")
	tables.Schedules.SetAction(g, ActionOpen, "08:30", "628222")

	entries := tables.Schedules.Entries(g)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Time != "08:30" || entries[0].Requester != "628222" || entries[0].Fired {
		t.Errorf("open entry not replaced: %+v", entries[0])
	}
}

func TestScheduleRemoveAndClear(t *testing.T) {
	tables, _ := Open(t.TempDir(), "")
	g := "g1@g.us"
	tables.Schedules.Append(g, ScheduleEntry{Time: "07:00", Action: ActionOpen})
	tables.Schedules.Append(g, ScheduleEntry{Time: "22:00", Action: ActionClose})

	if tables.Schedules.Remove(g, 5) {
		t.Error("out-of-range remove should fail")
	}
	if !tables.Schedules.Remove(g, 0) {
		t.Error("remove index 0 failed")
	}
	entries := tables.Schedules.Entries(g)
	if len(entries) != 1 || entries[0].Action != ActionClose {
		t.Fatalf("after remove: %+v", entries)
	}

	if n := tables.Schedules.Clear(g); n != 1 {
		t.Errorf("Clear = %d, want 1", n)
	}
	if n := tables.Schedules.Clear(g); n != 0 {
		t.Errorf("second Clear = %d, want 0", n)
	}
}

func TestScheduleMarkFiredByValue(t *testing.T) {
	tables, _ := Open(t.TempDir(), "")
	g := "g1@g.us"
	e := ScheduleEntry{Time: "07:00", Action: ActionOpen, Requester: "628111"}
	tables.Schedules.Append(g, e)

	if !tables.Schedules.MarkFired(g, e) {
		t.Fatal("MarkFired failed for present entry")
	}
	if tables.Schedules.MarkFired(g, e) {
		t.Error("entry fired twice")
	}
	if !tables.Schedules.Entries(g)[0].Fired {
		t.Error("entry not marked fired")
	}
}

func TestAdminRegistry(t *testing.T) {
	dir := t.TempDir()
	tables, _ := Open(dir, "628000")

	if !tables.Admins.Add("628111") {
		t.Error("first add failed")
	}
	if tables.Admins.Add("628111") {
		t.Error("duplicate add reported success")
	}
	if !tables.Admins.IsAdmin("628111") {
		t.Error("IsAdmin false after add")
	}

	reloaded, _ := Open(dir, "628000")
	if !reloaded.Admins.IsAdmin("628111") {
		t.Error("admin not persisted")
	}
	if !reloaded.Admins.Remove("628111") {
		t.Error("remove failed")
	}
	if reloaded.Admins.Remove("628111") {
		t.Error("second remove reported success")
	}
}

func TestBlacklistPerGroup(t *testing.T) {
	tables, _ := Open(t.TempDir(), "")
	if !tables.Blacklist.Add("g1@g.us", "628999") {
		t.Error("add failed")
	}
	if !tables.Blacklist.IsListed("g1@g.us", "628999") {
		t.Error("not listed after add")
	}
	if tables.Blacklist.IsListed("g2@g.us", "628999") {
		t.Error("blacklist leaked across groups")
	}
	if !tables.Blacklist.Remove("g1@g.us", "628999") {
		t.Error("remove failed")
	}
	if tables.Blacklist.IsListed("g1@g.us", "628999") {
		t.Error("still listed after remove")
	}
}
