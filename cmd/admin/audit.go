package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	persistlog "tileworld.ai/internal/persistence/log"
	"tileworld.ai/internal/sim/world"
	"tileworld.ai/internal/sim/world/terrain/store"
)

type auditFilter struct {
	box   aabb
	actor string
	since time.Time
}

func (f auditFilter) match(e world.AuditEntry) bool {
	if f.actor != "" && e.Actor != f.actor {
		return false
	}
	if !f.since.IsZero() && e.Time.Before(f.since) {
		return false
	}
	return f.box.contains(e.Pos)
}

func auditCmd(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	worldDir := worldDirFlag(fs)
	filter := filterFlags(fs)
	limit := fs.Int("limit", 0, "print at most the last N matches (0: all)")
	_ = fs.Parse(args)

	f, err := filter()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	entries, err := readAudit(worldDir(), f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read audit:", err)
		os.Exit(1)
	}
	if *limit > 0 && len(entries) > *limit {
		entries = entries[len(entries)-*limit:]
	}
	for _, e := range entries {
		printJSON(e)
	}
}

func filterFlags(fs *flag.FlagSet) func() (auditFilter, error) {
	box := fs.String("aabb", "", "AABB filter: x1,y1,z1:x2,y2,z2")
	actor := fs.String("actor", "", "actor filter")
	since := fs.String("since", "", "RFC3339 lower time bound")
	return func() (auditFilter, error) {
		b, err := parseAABB(*box)
		if err != nil {
			return auditFilter{}, fmt.Errorf("bad -aabb: %w", err)
		}
		f := auditFilter{box: b, actor: strings.TrimSpace(*actor)}
		if s := strings.TrimSpace(*since); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return auditFilter{}, fmt.Errorf("bad -since: %w", err)
			}
			f.since = t
		}
		return f, nil
	}
}

// readAudit returns matching entries from every hourly audit file, oldest
// file first, preserving write order inside each file.
func readAudit(worldDir string, f auditFilter) ([]world.AuditEntry, error) {
	dir := filepath.Join(worldDir, "audit")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, "audit-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var out []world.AuditEntry
	for _, name := range names {
		err := persistlog.ReadJSONL(filepath.Join(dir, name), func(line []byte) error {
			var e world.AuditEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return fmt.Errorf("%s: unmarshal: %w", name, err)
			}
			if f.match(e) {
				out = append(out, e)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func replayCmd(args []string) {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	worldDir := worldDirFlag(fs)
	filter := filterFlags(fs)
	undo := fs.Bool("undo", false, "apply entries newest first, writing each entry's previous tile")
	_ = fs.Parse(args)

	f, err := filter()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	entries, err := readAudit(worldDir(), f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read audit:", err)
		os.Exit(1)
	}
	m, err := replayAudit(entries, *undo)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	printJSON(struct {
		Entries int            `json:"entries"`
		Undo    bool           `json:"undo"`
		Stats   store.MapStats `json:"stats"`
	}{len(entries), *undo, m.Stats()})
}

// replayAudit rebuilds the dynamic layer described by entries on an empty
// map. With undo set, entries apply in reverse and restore their From tile.
func replayAudit(entries []world.AuditEntry, undo bool) (*store.WorldMap, error) {
	m, err := store.NewWorldMap(store.Options{})
	if err != nil {
		return nil, err
	}
	apply := func(e world.AuditEntry) {
		if e.Action != world.AuditActionSetTile || !store.InRange(e.Pos[0], e.Pos[1], e.Pos[2]) {
			return
		}
		v := e.To
		if undo {
			v = e.From
		}
		m.SetTile(store.NewPos(int32(e.Pos[0]), int32(e.Pos[1]), int32(e.Pos[2])), store.UnpackTile(v))
	}
	if undo {
		for i := len(entries) - 1; i >= 0; i-- {
			apply(entries[i])
		}
	} else {
		for _, e := range entries {
			apply(e)
		}
	}
	return m, nil
}
