package log

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"tileworld.ai/internal/sim/world"
)

func TestJSONLZstdWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "audit")
	now := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if err := w.Write(map[string]int{"i": i}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	now = now.Add(2 * time.Minute)
	if err := w.Write(map[string]int{"i": 3}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	names, _ := filepath.Glob(filepath.Join(dir, "*.jsonl.zst"))
	sort.Strings(names)
	if len(names) != 2 ||
		filepath.Base(names[0]) != "audit-2026-03-01-10.jsonl.zst" ||
		filepath.Base(names[1]) != "audit-2026-03-01-11.jsonl.zst" {
		t.Fatalf("files: %v", names)
	}

	var got []int
	for _, p := range names {
		err := ReadJSONL(p, func(line []byte) error {
			var v map[string]int
			if err := json.Unmarshal(line, &v); err != nil {
				return err
			}
			got = append(got, v["i"])
			return nil
		})
		if err != nil {
			t.Fatalf("read %s: %v", p, err)
		}
	}
	if len(got) != 4 || got[0] != 0 || got[3] != 3 {
		t.Fatalf("lines: %v", got)
	}
}

func TestJSONLZstdWriter_AppendAfterReopen(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		w := NewJSONLZstdWriter(dir, "audit")
		w.now = func() time.Time { return now }
		if err := w.Write(map[string]int{"i": i}); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
	n := 0
	err := ReadJSONL(filepath.Join(dir, "audit-2026-03-01-10.jsonl.zst"), func([]byte) error { n++; return nil })
	if err != nil || n != 2 {
		t.Fatalf("read after reopen: n=%d err=%v", n, err)
	}
}

func TestAuditLogger(t *testing.T) {
	dir := t.TempDir()
	l := NewAuditLogger(dir)
	entry := world.AuditEntry{
		Time:   time.Now().UTC().Truncate(time.Second),
		World:  "w1",
		Actor:  "agent-7",
		Action: "SET_TILE",
		Pos:    [3]int{-4, 9, 0},
		From:   0,
		To:     0x00030001,
		Reason: "build",
	}
	if err := l.WriteAudit(entry); err != nil {
		t.Fatalf("write audit: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	files, _ := filepath.Glob(filepath.Join(dir, "audit", "audit-*.jsonl.zst"))
	if len(files) != 1 {
		t.Fatalf("audit files: %v", files)
	}
	var got world.AuditEntry
	err := ReadJSONL(files[0], func(line []byte) error { return json.Unmarshal(line, &got) })
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Actor != entry.Actor || got.Pos != entry.Pos || got.To != entry.To || !got.Time.Equal(entry.Time) {
		t.Fatalf("round trip: got %+v want %+v", got, entry)
	}
}

func TestReadJSONL_Missing(t *testing.T) {
	if err := ReadJSONL(filepath.Join(t.TempDir(), "nope.jsonl.zst"), nil); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist, got %v", err)
	}
}
