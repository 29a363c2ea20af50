package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "audit":
			auditCmd(os.Args[2:])
			return
		case "replay":
			replayCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	entries, err := os.ReadDir(filepath.Join(*dataDir, "worlds"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		if e.IsDir() {
			fmt.Println(e.Name())
		}
	}
}

func worldDirFlag(fs *flag.FlagSet) func() string {
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id")
	return func() string {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world")
			os.Exit(2)
		}
		return filepath.Join(*dataDir, "worlds", *worldID)
	}
}

// aabb is an inclusive box; the zero value with all=true matches everything.
type aabb struct {
	min, max [3]int
	all      bool
}

func (b aabb) contains(p [3]int) bool {
	if b.all {
		return true
	}
	return p[0] >= b.min[0] && p[0] <= b.max[0] &&
		p[1] >= b.min[1] && p[1] <= b.max[1] &&
		p[2] >= b.min[2] && p[2] <= b.max[2]
}

// parseAABB reads "x1,y1,z1:x2,y2,z2". Corners may come in any order.
func parseAABB(s string) (aabb, error) {
	if strings.TrimSpace(s) == "" {
		return aabb{all: true}, nil
	}
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return aabb{}, fmt.Errorf("expected x1,y1,z1:x2,y2,z2")
	}
	a, err := parseVec3(parts[0])
	if err != nil {
		return aabb{}, err
	}
	b, err := parseVec3(parts[1])
	if err != nil {
		return aabb{}, err
	}
	var box aabb
	for i := 0; i < 3; i++ {
		box.min[i], box.max[i] = min(a[i], b[i]), max(a[i], b[i])
	}
	return box, nil
}

func parseVec3(s string) ([3]int, error) {
	var v [3]int
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 3 {
		return v, fmt.Errorf("expected x,y,z")
	}
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return v, err
		}
		v[i] = n
	}
	return v, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
