package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"tileworld.ai/internal/sim/world/terrain/store"
)

// VoidID is the material that always sits at palette index 0.
const VoidID = "AIR"

type Catalogs struct {
	Tiles TileCatalog
}

type TileCatalog struct {
	Palette       []string
	Index         map[string]store.MaterialID
	Defs          map[string]TileDef
	PaletteDigest string
	DefsDigest    string
}

type TileDef struct {
	ID       string `json:"id"`
	Solid    bool   `json:"solid"`
	Opaque   bool   `json:"opaque"`
	Liquid   bool   `json:"liquid"`
	Walkable bool   `json:"walkable"`
}

func (d TileDef) Flags() store.TileFlags {
	var f store.TileFlags
	if d.Solid {
		f |= store.FlagSolid
	}
	if d.Opaque {
		f |= store.FlagOpaque
	}
	if d.Liquid {
		f |= store.FlagLiquid
	}
	if d.Walkable {
		f |= store.FlagWalkable
	}
	return f
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadTiles(filepath.Join(configDir, "tiles.json"), &c.Tiles); err != nil {
		return nil, err
	}
	return &c, nil
}

// FromDefs builds catalogs from in-memory definitions; digests are computed
// over the JSON encoding of defs.
func FromDefs(defs []TileDef) (*Catalogs, error) {
	raw, err := json.Marshal(defs)
	if err != nil {
		return nil, err
	}
	var c Catalogs
	if err := buildTiles(raw, defs, &c.Tiles); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadTiles(path string, out *TileCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var defs []TileDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("tiles.json: %w", err)
	}
	return buildTiles(raw, defs, out)
}

func buildTiles(raw []byte, defs []TileDef, out *TileCatalog) error {
	out.DefsDigest = sha256Hex(raw)
	out.Defs = map[string]TileDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("tiles.json: empty id")
		}
		if _, dup := out.Defs[d.ID]; dup {
			return fmt.Errorf("tiles.json: duplicate id %q", d.ID)
		}
		out.Defs[d.ID] = d
	}
	void, ok := out.Defs[VoidID]
	if !ok {
		return fmt.Errorf("tiles.json: missing %s", VoidID)
	}
	if void.Flags() != store.FlagsNone {
		return fmt.Errorf("tiles.json: %s must carry no flags", VoidID)
	}
	if len(out.Defs) > 1<<16 {
		return fmt.Errorf("tiles.json: %d materials exceed the 16-bit id space", len(out.Defs))
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		if id != VoidID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	ids = append([]string{VoidID}, ids...)

	out.Palette = ids
	out.Index = make(map[string]store.MaterialID, len(ids))
	for i, id := range ids {
		out.Index[id] = store.MaterialID(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

// Tile returns the variant-0 tile for a material id, with flags from its def.
func (c *TileCatalog) Tile(id string) (store.Tile, bool) {
	m, ok := c.Index[id]
	if !ok {
		return store.VoidTile, false
	}
	return store.Tile{Material: m, Flags: c.Defs[id].Flags()}, true
}

func (c *TileCatalog) Def(m store.MaterialID) (TileDef, bool) {
	if int(m) >= len(c.Palette) {
		return TileDef{}, false
	}
	return c.Defs[c.Palette[m]], true
}

// Name returns the id for m, or "" when m is not in the palette.
func (c *TileCatalog) Name(m store.MaterialID) string {
	if int(m) >= len(c.Palette) {
		return ""
	}
	return c.Palette[m]
}
