package gen

import (
	"fmt"

	"tileworld.ai/internal/sim/catalogs"
	"tileworld.ai/internal/sim/world/terrain/store"
)

type Biome string

const (
	BiomePlains Biome = "PLAINS"
	BiomeForest Biome = "FOREST"
	BiomeDesert Biome = "DESERT"
)

func biomeFrom(noise uint64) Biome {
	switch noise % 3 {
	case 0:
		return BiomePlains
	case 1:
		return BiomeForest
	default:
		return BiomeDesert
	}
}

// BiomeAt picks one biome per square of regionSize cells.
func BiomeAt(seed int64, x, y, regionSize int) Biome {
	if regionSize <= 0 {
		regionSize = 1
	}
	return biomeFrom(Hash2(seed, floorDiv(x, regionSize), floorDiv(y, regionSize)))
}

// WithinSpawnClear reports whether (x, y) lies in the disc kept empty around
// the origin.
func WithinSpawnClear(x, y, radius int) bool {
	if radius <= 0 {
		return false
	}
	r := int64(radius)
	dx, dy := int64(x), int64(y)
	return dx*dx+dy*dy <= r*r
}

// InCluster places at most one disc of the given radius per grid cell, with
// probability probPermille, and reports whether (x, y) falls in any of them.
// Neighbouring grid cells are checked so discs may straddle cell borders.
func InCluster(seed int64, x, y, grid, radius int, probPermille uint64) bool {
	if grid <= 0 || radius <= 0 || probPermille == 0 {
		return false
	}
	gx, gy := floorDiv(x, grid), floorDiv(y, grid)
	r2 := radius * radius
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			cgx, cgy := gx+dx, gy+dy
			h := Hash2(seed, cgx, cgy)
			if h%1000 >= probPermille {
				continue
			}
			cx := cgx*grid + int((h>>10)%uint64(grid))
			cy := cgy*grid + int((h>>20)%uint64(grid))
			ddx, ddy := x-cx, y-cy
			if ddx*ddx+ddy*ddy <= r2 {
				return true
			}
		}
	}
	return false
}

type Params struct {
	Seed                            int64
	BiomeRegionSize                 int
	SpawnClearRadius                int
	OreClusterProbScalePermille     int
	TerrainClusterProbScalePermille int
	SprinkleStonePermille           int
	SprinkleDirtPermille            int
	SprinkleLogPermille             int
}

// Materials are the tiles the generator places.
type Materials struct {
	Air, Stone, Dirt, Grass, Sand, Gravel, Log, Water store.Tile
	CoalOre, IronOre, CopperOre, CrystalOre           store.Tile
}

func MaterialsFromCatalog(c *catalogs.TileCatalog) (Materials, error) {
	var m Materials
	for _, f := range []struct {
		id  string
		dst *store.Tile
	}{
		{"AIR", &m.Air}, {"STONE", &m.Stone}, {"DIRT", &m.Dirt}, {"GRASS", &m.Grass},
		{"SAND", &m.Sand}, {"GRAVEL", &m.Gravel}, {"LOG", &m.Log}, {"WATER", &m.Water},
		{"COAL_ORE", &m.CoalOre}, {"IRON_ORE", &m.IronOre},
		{"COPPER_ORE", &m.CopperOre}, {"CRYSTAL_ORE", &m.CrystalOre},
	} {
		t, ok := c.Tile(f.id)
		if !ok {
			return Materials{}, fmt.Errorf("worldgen: tile catalog missing %s", f.id)
		}
		*f.dst = t
	}
	return m, nil
}

type Generator struct {
	P Params
	M Materials
}

func New(p Params, m Materials) *Generator {
	return &Generator{P: p, M: m}
}

// TileAt returns the generated ground tile of cell (x, y). It is a pure
// function of the params and the cell.
func (g *Generator) TileAt(x, y int) store.Tile {
	p, m := &g.P, &g.M
	if WithinSpawnClear(x, y, p.SpawnClearRadius) {
		return m.Air
	}
	ore := func(salt int64, grid, radius int, base uint64) bool {
		return InCluster(p.Seed+salt, x, y, grid, radius, scalePermille(base, p.OreClusterProbScalePermille))
	}
	terrain := func(salt int64, grid, radius int, base uint64) bool {
		return InCluster(p.Seed+salt, x, y, grid, radius, scalePermille(base, p.TerrainClusterProbScalePermille))
	}
	switch {
	case ore(101, 192, 2, 200):
		return m.CrystalOre
	case ore(102, 128, 3, 450):
		return m.IronOre
	case ore(103, 128, 3, 450):
		return m.CopperOre
	case ore(104, 64, 4, 650):
		return m.CoalOre
	}

	biome := BiomeAt(p.Seed, x, y, p.BiomeRegionSize)
	t := m.Air
	switch biome {
	case BiomeForest:
		switch {
		case terrain(201, 48, 4, 450):
			t = m.Log
		case terrain(202, 32, 4, 500):
			t = m.Stone
		case terrain(203, 48, 3, 350):
			t = m.Dirt
		case terrain(204, 96, 2, 180):
			t = m.Gravel
		}
	case BiomeDesert:
		switch {
		case terrain(301, 48, 3, 550):
			t = m.Sand
		case terrain(302, 32, 4, 450):
			t = m.Stone
		case terrain(303, 96, 2, 200):
			t = m.Gravel
		}
	default:
		switch {
		case terrain(401, 64, 5, 250):
			t = m.Water
		case terrain(402, 48, 3, 400):
			t = m.Grass
		case terrain(403, 32, 4, 500):
			t = m.Stone
		case terrain(404, 96, 2, 180):
			t = m.Gravel
		}
	}
	if t != m.Air {
		return t
	}

	stone := clampPermille(p.SprinkleStonePermille)
	dirt := stone + clampPermille(p.SprinkleDirtPermille)
	logs := dirt + clampPermille(p.SprinkleLogPermille)
	switch roll := Hash2(p.Seed+999, x, y) % 1000; {
	case roll < stone:
		return m.Stone
	case roll < dirt:
		if biome == BiomeDesert {
			return m.Sand
		}
		return m.Dirt
	case roll < logs && biome == BiomeForest:
		return m.Log
	}
	return m.Air
}

// Chunk generates the chunk at chunk coordinates (cx, cy). Generation is
// planar; every z layer of the same column receives the same chunk.
func (g *Generator) Chunk(cx, cy int32) *store.Chunk {
	b := store.NewChunkBuilder()
	ox, oy := int(cx)*store.ChunkSize, int(cy)*store.ChunkSize
	for ly := 0; ly < store.ChunkSize; ly++ {
		for lx := 0; lx < store.ChunkSize; lx++ {
			b.SetTile(lx, ly, g.TileAt(ox+lx, oy+ly))
		}
	}
	return b.Build()
}
