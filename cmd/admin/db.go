package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	limit := fs.Int("limit", 20, "result limit")
	actor := fs.String("actor", "", "actor filter (edits)")
	pos := fs.String("pos", "", "x,y,z filter (edits)")
	z := fs.Int("z", 0, "z layer (chunks)")
	_ = fs.Parse(args)

	q := "edits"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "worlds", *worldID, "index", "world.sqlite")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if *limit <= 0 {
		*limit = 20
	}
	var n int
	switch q {
	case "edits":
		f := editFilter{actor: strings.TrimSpace(*actor)}
		if s := strings.TrimSpace(*pos); s != "" {
			p, err := parseVec3(s)
			if err != nil {
				fmt.Fprintln(os.Stderr, "bad -pos:", err)
				os.Exit(2)
			}
			f.pos = &p
		}
		n, err = queryEdits(db, f, *limit, func(r editRow) { printJSON(r) })
	case "chunks":
		n, err = queryChunks(db, *z, *limit, func(r chunkRow) { printJSON(r) })
	case "catalogs":
		n, err = queryCatalogs(db, func(r catalogRow) { printJSON(r) })
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		fmt.Fprintln(os.Stderr, "usage: admin db [-data ./data] [-world WORLD|-db PATH] [-limit N] edits|chunks|catalogs")
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	if n == 0 {
		fmt.Fprintln(os.Stderr, "no rows")
	}
}

type editFilter struct {
	actor string
	pos   *[3]int
}

type editRow struct {
	Seq    int64  `json:"seq"`
	Time   string `json:"time"`
	Actor  string `json:"actor"`
	Action string `json:"action"`
	Pos    [3]int `json:"pos"`
	From   uint32 `json:"from"`
	To     uint32 `json:"to"`
	Reason string `json:"reason,omitempty"`
}

// queryEdits returns the newest matching edits first.
func queryEdits(db *sql.DB, f editFilter, limit int, fn func(editRow)) (int, error) {
	q := `SELECT seq,ts,actor,action,x,y,z,from_tile,to_tile,COALESCE(reason,'') FROM edits`
	var where []string
	var args []any
	if f.actor != "" {
		where = append(where, "actor=?")
		args = append(args, f.actor)
	}
	if f.pos != nil {
		where = append(where, "z=? AND y=? AND x=?")
		args = append(args, f.pos[2], f.pos[1], f.pos[0])
	}
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY seq DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(q, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	n := 0
	for rows.Next() {
		var r editRow
		var from, to int64
		if err := rows.Scan(&r.Seq, &r.Time, &r.Actor, &r.Action, &r.Pos[0], &r.Pos[1], &r.Pos[2], &from, &to, &r.Reason); err != nil {
			return n, err
		}
		r.From, r.To = uint32(from), uint32(to)
		fn(r)
		n++
	}
	return n, rows.Err()
}

type chunkRow struct {
	Chunk       [3]int `json:"chunk"`
	Digest      string `json:"digest"`
	PaletteLen  int    `json:"palette_len"`
	GeneratedAt string `json:"generated_at"`
}

func queryChunks(db *sql.DB, z, limit int, fn func(chunkRow)) (int, error) {
	rows, err := db.Query(`SELECT x,y,z,digest,palette_len,generated_at FROM chunks WHERE z=? ORDER BY y,x LIMIT ?`, z, limit)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	n := 0
	for rows.Next() {
		var r chunkRow
		if err := rows.Scan(&r.Chunk[0], &r.Chunk[1], &r.Chunk[2], &r.Digest, &r.PaletteLen, &r.GeneratedAt); err != nil {
			return n, err
		}
		fn(r)
		n++
	}
	return n, rows.Err()
}

type catalogRow struct {
	Name      string `json:"name"`
	Digest    string `json:"digest"`
	UpdatedAt string `json:"updated_at"`
	Bytes     int    `json:"bytes"`
}

func queryCatalogs(db *sql.DB, fn func(catalogRow)) (int, error) {
	rows, err := db.Query(`SELECT name,digest,updated_at,LENGTH(json) FROM catalogs ORDER BY name`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	n := 0
	for rows.Next() {
		var r catalogRow
		if err := rows.Scan(&r.Name, &r.Digest, &r.UpdatedAt, &r.Bytes); err != nil {
			return n, err
		}
		fn(r)
		n++
	}
	return n, rows.Err()
}
