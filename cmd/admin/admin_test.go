package main

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"tileworld.ai/internal/persistence/indexdb"
	persistlog "tileworld.ai/internal/persistence/log"
	"tileworld.ai/internal/sim/world"
	"tileworld.ai/internal/sim/world/terrain/store"
)

var (
	stone = store.Tile{Material: 3, Flags: store.FlagSolid | store.FlagOpaque}
	dirt  = store.Tile{Material: 2, Flags: store.FlagWalkable}
)

func TestParseAABB(t *testing.T) {
	b, err := parseAABB("5,-1,0:-5,1,2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if b.min != [3]int{-5, -1, 0} || b.max != [3]int{5, 1, 2} {
		t.Fatalf("box: %+v", b)
	}
	if !b.contains([3]int{0, 0, 1}) || b.contains([3]int{6, 0, 0}) {
		t.Fatalf("contains")
	}
	if all, _ := parseAABB(""); !all.contains([3]int{1 << 20, 0, 0}) {
		t.Fatalf("empty box must match everything")
	}
	for _, bad := range []string{"1,2,3", "1,2:3,4,5", "a,b,c:1,2,3"} {
		if _, err := parseAABB(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func writeAudit(t *testing.T, worldDir string, entries ...world.AuditEntry) {
	t.Helper()
	l := persistlog.NewAuditLogger(worldDir)
	for _, e := range entries {
		if err := l.WriteAudit(e); err != nil {
			t.Fatalf("write audit: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func edit(actor string, pos [3]int, from, to store.Tile, at time.Time) world.AuditEntry {
	return world.AuditEntry{
		Time: at, World: "w1", Actor: actor, Action: world.AuditActionSetTile,
		Pos: pos, From: from.Pack(), To: to.Pack(),
	}
}

func TestReadAuditAndReplay(t *testing.T) {
	dir := t.TempDir()
	t0 := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	writeAudit(t, dir,
		edit("a", [3]int{0, 0, 0}, store.VoidTile, stone, t0),
		edit("b", [3]int{40, 0, 0}, store.VoidTile, dirt, t0.Add(time.Minute)),
		edit("a", [3]int{0, 0, 0}, stone, dirt, t0.Add(2*time.Minute)),
	)

	all, err := readAudit(dir, auditFilter{box: aabb{all: true}})
	if err != nil || len(all) != 3 {
		t.Fatalf("read all: %d %v", len(all), err)
	}
	byActor, _ := readAudit(dir, auditFilter{box: aabb{all: true}, actor: "a"})
	if len(byActor) != 2 {
		t.Fatalf("actor filter: %d", len(byActor))
	}
	box, _ := parseAABB("30,-5,0:50,5,0")
	inBox, _ := readAudit(dir, auditFilter{box: box})
	if len(inBox) != 1 || inBox[0].Actor != "b" {
		t.Fatalf("aabb filter: %+v", inBox)
	}
	recent, _ := readAudit(dir, auditFilter{box: aabb{all: true}, since: t0.Add(90 * time.Second)})
	if len(recent) != 1 || recent[0].To != dirt.Pack() {
		t.Fatalf("since filter: %+v", recent)
	}

	m, err := replayAudit(all, false)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if m.GetTile(store.NewPos(0, 0, 0)) != dirt || m.GetTile(store.NewPos(40, 0, 0)) != dirt {
		t.Fatalf("replay did not reach the final state")
	}
	if st := m.Stats(); st.DeltaChunks != 2 || st.DeltaTiles != 2 {
		t.Fatalf("replay stats: %+v", st)
	}

	u, err := replayAudit(all, true)
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if u.GetTile(store.NewPos(0, 0, 0)) != store.VoidTile || u.IsSolidFast(store.NewPos(0, 0, 0)) {
		t.Fatalf("undo did not restore the original tile")
	}
}

func TestReadAudit_MissingDir(t *testing.T) {
	if _, err := readAudit(t.TempDir(), auditFilter{box: aabb{all: true}}); err == nil {
		t.Fatalf("expected error for a world without audit logs")
	}
}

func TestQueryIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index", "world.sqlite")
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t0 := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	_ = idx.WriteAudit(edit("a", [3]int{1, 2, 0}, store.VoidTile, stone, t0))
	_ = idx.WriteAudit(edit("b", [3]int{1, 2, 0}, stone, dirt, t0))
	_ = idx.WriteAudit(edit("a", [3]int{9, 9, 0}, store.VoidTile, dirt, t0))
	idx.RecordChunk(0, 0, 0, [32]byte{1}, 3)
	idx.RecordChunk(-1, 0, 0, [32]byte{2}, 1)
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql open: %v", err)
	}
	defer db.Close()

	var edits []editRow
	n, err := queryEdits(db, editFilter{actor: "a"}, 10, func(r editRow) { edits = append(edits, r) })
	if err != nil || n != 2 {
		t.Fatalf("edits by actor: %d %v", n, err)
	}
	if edits[0].Pos != [3]int{9, 9, 0} || edits[0].To != dirt.Pack() {
		t.Fatalf("edits must be newest first: %+v", edits)
	}

	p := [3]int{1, 2, 0}
	n, err = queryEdits(db, editFilter{pos: &p}, 10, func(editRow) {})
	if err != nil || n != 2 {
		t.Fatalf("edits by pos: %d %v", n, err)
	}

	var chunks []chunkRow
	n, err = queryChunks(db, 0, 10, func(r chunkRow) { chunks = append(chunks, r) })
	if err != nil || n != 2 || chunks[0].Chunk != [3]int{-1, 0, 0} || chunks[1].PaletteLen != 3 {
		t.Fatalf("chunks: %d %v %+v", n, err, chunks)
	}
}
