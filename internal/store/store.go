// Package store persists the bot's per-group state as one JSON file per
// table. Every mutation rewrites the whole table; reads never fail, they
// fall back to the table's default. The in-memory copy stays authoritative
// when the disk write fails.
package store

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
)

// readTable loads a JSON table from path. Missing or corrupt content yields
// def() and triggers a best-effort rewrite so the file is valid afterwards.
func readTable[T any](path string, def func() T) T {
	data, err := os.ReadFile(path)
	if err != nil {
		v := def()
		if !os.IsNotExist(err) {
			slog.Warn("store: read failed, using default", "path", path, "error", err)
		}
		if werr := writeTable(path, v); werr != nil {
			slog.Warn("store: default rewrite failed", "path", path, "error", werr)
		}
		return v
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		slog.Warn("store: corrupt table, using default", "path", path, "error", err)
		v = def()
		if werr := writeTable(path, v); werr != nil {
			slog.Warn("store: default rewrite failed", "path", path, "error", werr)
		}
	}
	return v
}

// writeTable serializes v and replaces the table file via write-then-rename,
// so a crash mid-write leaves either the old or the new content.
func writeTable(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Open loads every table from dir, creating the directory and any missing
// files. ownerNumber seeds the admin registry's owner when set.
func Open(dir, ownerNumber string) (*Tables, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	t := &Tables{
		Welcome:   newTemplateTable(filepath.Join(dir, "welcome.json")),
		Goodbye:   newTemplateTable(filepath.Join(dir, "goodbye.json")),
		Commands:  newCommandTable(filepath.Join(dir, "commands.json")),
		Schedules: newScheduleTable(filepath.Join(dir, "schedule.json")),
		Admins:    newAdminTable(filepath.Join(dir, "admins.json"), ownerNumber),
		Blacklist: newBlacklistTable(filepath.Join(dir, "blacklist.json")),
	}
	return t, nil
}

// Tables bundles all persisted tables. Each table serializes its own
// mutations; they are handed to the dispatcher and scheduler explicitly
// rather than living in package-level state.
type Tables struct {
	Welcome   *TemplateTable
	Goodbye   *TemplateTable
	Commands  *CommandTable
	Schedules *ScheduleTable
	Admins    *AdminTable
	Blacklist *BlacklistTable
}
