package catalogs

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"tileworld.ai/internal/sim/world/terrain/store"
)

func repoConfigDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime.Caller failed")
	}
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "configs")
}

func TestLoad_RepoCatalog(t *testing.T) {
	c, err := Load(repoConfigDir(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Tiles.Palette[0] != VoidID || c.Tiles.Index[VoidID] != 0 {
		t.Fatalf("AIR must be material 0: %v", c.Tiles.Palette)
	}
	stone, ok := c.Tiles.Tile("STONE")
	if !ok || !stone.IsSolid() || !stone.IsOpaque() {
		t.Fatalf("stone: %+v ok=%v", stone, ok)
	}
	if c.Tiles.Name(stone.Material) != "STONE" {
		t.Fatalf("name round trip failed")
	}
	water, _ := c.Tiles.Tile("WATER")
	if !water.Flags.Has(store.FlagLiquid) || water.IsSolid() {
		t.Fatalf("water flags: %v", water.Flags)
	}
	if len(c.Tiles.PaletteDigest) != 64 || len(c.Tiles.DefsDigest) != 64 {
		t.Fatalf("digests not hex sha256")
	}
}

func TestFromDefs_Ordering(t *testing.T) {
	a, err := FromDefs([]TileDef{{ID: "ZINC", Solid: true}, {ID: "AIR"}, {ID: "BRICK", Solid: true, Opaque: true}})
	if err != nil {
		t.Fatalf("from defs: %v", err)
	}
	want := []string{"AIR", "BRICK", "ZINC"}
	for i, id := range want {
		if a.Tiles.Palette[i] != id {
			t.Fatalf("palette: got %v want %v", a.Tiles.Palette, want)
		}
	}
	b, _ := FromDefs([]TileDef{{ID: "AIR"}, {ID: "BRICK", Solid: true, Opaque: true}, {ID: "ZINC", Solid: true}})
	if a.Tiles.PaletteDigest != b.Tiles.PaletteDigest {
		t.Fatalf("palette digest depends on definition order")
	}
	if _, ok := a.Tiles.Def(store.MaterialID(3)); ok {
		t.Fatalf("out of palette def returned")
	}
}

func TestFromDefs_Rejects(t *testing.T) {
	cases := []struct {
		defs []TileDef
		want string
	}{
		{[]TileDef{{ID: "STONE"}}, "missing AIR"},
		{[]TileDef{{ID: "AIR", Solid: true}}, "no flags"},
		{[]TileDef{{ID: "AIR"}, {ID: ""}}, "empty id"},
		{[]TileDef{{ID: "AIR"}, {ID: "X"}, {ID: "X"}}, "duplicate"},
	}
	for _, tc := range cases {
		_, err := FromDefs(tc.defs)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%v: expected %q, got %v", tc.defs, tc.want, err)
		}
	}
}

func TestLoad_BadJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tiles.json"), []byte("{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(dir); err == nil || !strings.Contains(err.Error(), "tiles.json") {
		t.Fatalf("expected tiles.json error, got %v", err)
	}
}
