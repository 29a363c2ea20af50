package world

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"tileworld.ai/internal/sim/catalogs"
	"tileworld.ai/internal/sim/world/terrain/gen"
	"tileworld.ai/internal/sim/world/terrain/store"
)

var (
	ErrOutOfRange      = errors.New("position out of range")
	ErrUnknownMaterial = errors.New("unknown material")
	ErrFlagMismatch    = errors.New("tile flags do not match material")
)

// World is the simulation-facing view of the tile map. All methods are safe
// for concurrent use.
type World struct {
	cfg  WorldConfig
	cats *catalogs.Catalogs
	m    *store.WorldMap
	gen  *gen.Generator
	now  func() time.Time

	// guards the pluggable sinks
	auditMu     sync.RWMutex
	auditLogger AuditLogger
	chunkSink   ChunkSink

	edits     atomic.Uint64
	rejected  atomic.Uint64
	generated atomic.Uint64
}

func New(cfg WorldConfig, cats *catalogs.Catalogs) (*World, error) {
	cfg.applyDefaults()
	if cats == nil {
		return nil, fmt.Errorf("world %s: nil catalogs", cfg.ID)
	}

	var def store.Tile
	switch cfg.Boundary {
	case "void":
	case "wall":
		def = store.Tile{Flags: store.FlagSolid | store.FlagOpaque}
	default:
		return nil, fmt.Errorf("world %s: unknown boundary %q", cfg.ID, cfg.Boundary)
	}
	m, err := store.NewWorldMap(store.Options{ShardCount: cfg.ShardCount, DefaultTile: def})
	if err != nil {
		return nil, fmt.Errorf("world %s: %w", cfg.ID, err)
	}

	mats, err := gen.MaterialsFromCatalog(&cats.Tiles)
	if err != nil {
		return nil, err
	}
	g := gen.New(gen.Params{
		Seed:                            cfg.Seed,
		BiomeRegionSize:                 cfg.BiomeRegionSize,
		SpawnClearRadius:                cfg.SpawnClearRadius,
		OreClusterProbScalePermille:     cfg.OreClusterProbScalePermille,
		TerrainClusterProbScalePermille: cfg.TerrainClusterProbScalePermille,
		SprinkleStonePermille:           cfg.SprinkleStonePermille,
		SprinkleDirtPermille:            cfg.SprinkleDirtPermille,
		SprinkleLogPermille:             cfg.SprinkleLogPermille,
	}, mats)

	return &World{
		cfg:  cfg,
		cats: cats,
		m:    m,
		gen:  g,
		now:  time.Now,
	}, nil
}

func (w *World) ID() string                   { return w.cfg.ID }
func (w *World) Config() WorldConfig          { return w.cfg }
func (w *World) Catalogs() *catalogs.Catalogs { return w.cats }
func (w *World) Map() *store.WorldMap         { return w.m }

// InBounds reports whether (x, y, z) is addressable and inside the world
// boundary.
func (w *World) InBounds(x, y, z int) bool {
	if !store.InRange(x, y, z) {
		return false
	}
	if r := w.cfg.BoundaryR; r > 0 {
		if x < -r || x > r || y < -r || y > r {
			return false
		}
	}
	return true
}

// TileAt returns the effective tile; positions outside the packed range read
// as the boundary tile.
func (w *World) TileAt(x, y, z int) store.Tile {
	if !store.InRange(x, y, z) {
		return w.m.DefaultTile()
	}
	return w.m.GetTile(store.NewPos(int32(x), int32(y), int32(z)))
}

// ChunkTiles returns the effective tiles of one chunk in row-major order
// (index ly*16+lx), with dynamic edits applied over the static layer.
func (w *World) ChunkTiles(cx, cy, z int32) [store.ChunkArea]store.Tile {
	var out [store.ChunkArea]store.Tile
	x0, y0 := int(cx)<<store.ChunkShift, int(cy)<<store.ChunkShift
	for ly := 0; ly < store.ChunkSize; ly++ {
		for lx := 0; lx < store.ChunkSize; lx++ {
			out[ly<<store.ChunkShift|lx] = w.TileAt(x0+lx, y0+ly, int(z))
		}
	}
	return out
}

func (w *World) IsSolid(x, y, z int) bool {
	if !store.InRange(x, y, z) {
		return w.m.DefaultTile().IsSolid()
	}
	return w.m.IsSolidFast(store.NewPos(int32(x), int32(y), int32(z)))
}

func (w *World) IsOpaque(x, y, z int) bool {
	if !store.InRange(x, y, z) {
		return w.m.DefaultTile().IsOpaque()
	}
	return w.m.IsOpaqueFast(store.NewPos(int32(x), int32(y), int32(z)))
}

// CanEnter is the collision check run before a move.
func (w *World) CanEnter(x, y, z int) bool {
	return w.InBounds(x, y, z) && !w.m.IsSolidFast(store.NewPos(int32(x), int32(y), int32(z)))
}

// TileFor resolves a catalog material id into a tile carrying the catalog
// flags.
func (w *World) TileFor(id string, variant uint8) (store.Tile, error) {
	t, ok := w.cats.Tiles.Tile(id)
	if !ok {
		return store.VoidTile, fmt.Errorf("%w: %s", ErrUnknownMaterial, id)
	}
	t.Variant = variant
	return t, nil
}

// SetTile validates and writes t into the dynamic layer. The previous value
// recorded in the audit entry is read just before the write; concurrent edits
// of the same cell may interleave between the two.
func (w *World) SetTile(actor string, x, y, z int, t store.Tile, reason string) error {
	if err := w.validateEdit(x, y, z, t); err != nil {
		w.rejected.Add(1)
		return err
	}
	pos := store.NewPos(int32(x), int32(y), int32(z))
	from := w.m.GetTile(pos)
	w.m.SetTile(pos, t)
	w.edits.Add(1)
	w.auditSetTile(actor, pos, from, t, reason)
	return nil
}

func (w *World) validateEdit(x, y, z int, t store.Tile) error {
	if !w.InBounds(x, y, z) {
		return fmt.Errorf("%w: (%d,%d,%d)", ErrOutOfRange, x, y, z)
	}
	def, ok := w.cats.Tiles.Def(t.Material)
	if !ok {
		return fmt.Errorf("%w: id %d", ErrUnknownMaterial, t.Material)
	}
	if want := def.Flags(); t.Flags != want {
		return fmt.Errorf("%w: %s wants %v, got %v", ErrFlagMismatch, def.ID, want, t.Flags)
	}
	return nil
}

// PutChunk publishes c as the static chunk at chunk coordinates (cx, cy, z).
// c must not be mutated afterwards.
func (w *World) PutChunk(cx, cy, z int32, c *store.Chunk) {
	w.m.PutChunk(store.NewPos(cx, cy, z), c)
}
