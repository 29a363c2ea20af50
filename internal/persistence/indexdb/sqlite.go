package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"tileworld.ai/internal/sim/catalogs"
	"tileworld.ai/internal/sim/tuning"
	"tileworld.ai/internal/sim/world"
)

// SQLiteIndex is a queryable secondary index of tile edits and generated
// chunks. Writes are queued and applied by one goroutine in batched
// transactions; when the queue is full entries are dropped and counted.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropAudit atomic.Uint64
	dropChunk atomic.Uint64
	written   atomic.Uint64
}

type reqKind int

const (
	reqAudit reqKind = iota + 1
	reqChunk
)

type req struct {
	kind reqKind

	audit world.AuditEntry
	chunk chunkRow
}

type chunkRow struct {
	X, Y, Z     int32
	Digest      string
	PaletteLen  int
	GeneratedAt string
}

type Stats struct {
	QueueDepth     int    `json:"queue_depth"`
	QueueCapacity  int    `json:"queue_capacity"`
	DropAuditTotal uint64 `json:"drop_audit_total"`
	DropChunkTotal uint64 `json:"drop_chunk_total"`
	WrittenTotal   uint64 `json:"written_total"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	return openSQLite(path, 262144)
}

func openSQLite(path string, queue int) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, queue),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS edits (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			ts TEXT NOT NULL,
			world TEXT NOT NULL,
			actor TEXT NOT NULL,
			action TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			from_tile INTEGER NOT NULL,
			to_tile INTEGER NOT NULL,
			reason TEXT,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_edits_actor ON edits(actor, seq);`,
		`CREATE INDEX IF NOT EXISTS idx_edits_pos ON edits(z, y, x, seq);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			digest TEXT NOT NULL,
			palette_len INTEGER NOT NULL,
			generated_at TEXT NOT NULL,
			PRIMARY KEY (z, y, x)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// WriteAudit queues an edit row. It never blocks; the JSONL audit log stays
// the source of truth when the index falls behind.
func (s *SQLiteIndex) WriteAudit(entry world.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqAudit, audit: entry}:
	default:
		s.dropAudit.Add(1)
	}
	return nil
}

// RecordChunk queues metadata for a generated chunk.
func (s *SQLiteIndex) RecordChunk(cx, cy, z int32, digest [32]byte, paletteLen int) {
	if s == nil || s.closed.Load() {
		return
	}
	r := chunkRow{
		X: cx, Y: cy, Z: z,
		Digest:      hex.EncodeToString(digest[:]),
		PaletteLen:  paletteLen,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	select {
	case s.ch <- req{kind: reqChunk, chunk: r}:
	default:
		s.dropChunk.Add(1)
	}
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:     len(s.ch),
		QueueCapacity:  cap(s.ch),
		DropAuditTotal: s.dropAudit.Load(),
		DropChunkTotal: s.dropChunk.Load(),
		WrittenTotal:   s.written.Load(),
	}
}

// UpsertCatalogs stores the tile catalog and the effective tuning, each with
// its digest, so edits can be interpreted later.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if configDir != "" {
		if b, err := os.ReadFile(filepath.Join(configDir, "tiles.json")); err == nil {
			rows = append(rows, kv{name: "tiles_defs", digest: cats.Tiles.DefsDigest, json: b})
		}
	}
	if b, _ := json.Marshal(cats.Tiles.Palette); len(b) > 0 {
		rows = append(rows, kv{name: "tiles_palette", digest: cats.Tiles.PaletteDigest, json: b})
	}
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertEdit, _ := s.db.Prepare(`INSERT INTO edits(ts,world,actor,action,x,y,z,from_tile,to_tile,reason,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?)`)
	insertChunk, _ := s.db.Prepare(`INSERT OR REPLACE INTO chunks(x,y,z,digest,palette_len,generated_at) VALUES(?,?,?,?,?,?)`)
	defer func() {
		if insertEdit != nil {
			_ = insertEdit.Close()
		}
		if insertChunk != nil {
			_ = insertChunk.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
		pending       uint64
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err == nil {
			s.written.Add(pending)
		}
		tx = nil
		opCount = 0
		pending = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		pending = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqAudit:
			a := r.audit
			if insertEdit == nil {
				continue
			}
			raw, _ := json.Marshal(a)
			if _, err := tx.Stmt(insertEdit).Exec(
				a.Time.UTC().Format(time.RFC3339Nano),
				a.World,
				a.Actor,
				a.Action,
				a.Pos[0], a.Pos[1], a.Pos[2],
				int64(a.From),
				int64(a.To),
				a.Reason,
				string(raw),
			); err != nil {
				rollback()
				continue
			}
			opCount++
			pending++

		case reqChunk:
			c := r.chunk
			if insertChunk == nil {
				continue
			}
			if _, err := tx.Stmt(insertChunk).Exec(c.X, c.Y, c.Z, c.Digest, c.PaletteLen, c.GeneratedAt); err != nil {
				rollback()
				continue
			}
			opCount++
			pending++
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}
