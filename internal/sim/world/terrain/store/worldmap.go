package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// DefaultShardCount is used when Options.ShardCount is zero.
const DefaultShardCount = 64

var ErrShardCount = errors.New("shard count must be a positive power of two")

type Options struct {
	ShardCount int

	// DefaultTile is returned for locations no layer knows about, and seeds the
	// masks of a delta created over an unloaded chunk. The zero value (void)
	// makes the world open past loaded terrain; a solid tile walls it in.
	DefaultTile Tile
}

// WorldMap merges the static region layer with the sharded delta layer.
//
// Reads consult the delta first, then the static chunk, then the default
// tile. Writes always go to the delta. The region table lock and a shard lock
// are never held at the same time.
type WorldMap struct {
	mu      sync.RWMutex
	regions map[Pos]*Region

	shards       []Shard
	defaultTile  Tile
	defaultChunk *Chunk
}

func NewWorldMap(opts Options) (*WorldMap, error) {
	n := opts.ShardCount
	if n == 0 {
		n = DefaultShardCount
	}
	if n < 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrShardCount, n)
	}
	def := NewChunk()
	def.Fill(opts.DefaultTile)

	m := &WorldMap{
		regions:      map[Pos]*Region{},
		shards:       make([]Shard, n),
		defaultTile:  opts.DefaultTile,
		defaultChunk: def,
	}
	for i := range m.shards {
		m.shards[i].deltas = map[Pos]*SparseChunk{}
	}
	return m, nil
}

func (m *WorldMap) ShardCount() int   { return len(m.shards) }
func (m *WorldMap) DefaultTile() Tile { return m.defaultTile }

func (m *WorldMap) shardFor(key Pos) *Shard {
	return &m.shards[key.ShardIndex(len(m.shards))]
}

// staticChunk fetches the published chunk for key under a shared lock.
// Published chunks are immutable, so the pointer stays valid after unlock.
func (m *WorldMap) staticChunk(key Pos) *Chunk {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.regions[key.RegionKey()]
	if !ok {
		return nil
	}
	rx, ry := key.RegionLocal()
	c, _ := r.GetChunk(rx, ry)
	return c
}

func (m *WorldMap) GetTile(pos Pos) Tile {
	key := pos.ChunkKey()
	lx, ly := pos.Local()
	if t, ok := m.shardFor(key).GetTile(key, lx, ly); ok {
		return t
	}
	if c := m.staticChunk(key); c != nil {
		return c.GetTile(lx, ly)
	}
	return m.defaultTile
}

func (m *WorldMap) IsSolidFast(pos Pos) bool  { return m.checkFlag(pos, false) }
func (m *WorldMap) IsOpaqueFast(pos Pos) bool { return m.checkFlag(pos, true) }

func (m *WorldMap) checkFlag(pos Pos, opaque bool) bool {
	key := pos.ChunkKey()
	lx, ly := pos.Local()
	if v, ok := m.shardFor(key).CheckFlagFast(key, lx, ly, opaque); ok {
		return v
	}
	if c := m.staticChunk(key); c != nil {
		if opaque {
			return c.IsOpaqueLocal(lx, ly)
		}
		return c.IsSolidLocal(lx, ly)
	}
	if opaque {
		return m.defaultTile.IsOpaque()
	}
	return m.defaultTile.IsSolid()
}

// SetTile writes t into the dynamic layer. The static chunk for the
// hydration base is fetched and the region lock released before the shard
// lock is taken.
func (m *WorldMap) SetTile(pos Pos, t Tile) {
	key := pos.ChunkKey()
	lx, ly := pos.Local()
	base := m.staticChunk(key)
	if base == nil {
		base = m.defaultChunk
	}
	m.shardFor(key).SetTile(key, lx, ly, t, base)
}

// PutChunk publishes c as the static chunk for chunkKey, creating the owning
// region on demand. c must not be mutated afterwards. A nil c unloads the slot.
//
// An existing delta for the key is re-hydrated from c once the region lock is
// released, so its untouched cells follow the new static data.
func (m *WorldMap) PutChunk(chunkKey Pos, c *Chunk) {
	rk := chunkKey.RegionKey()
	rx, ry := chunkKey.RegionLocal()

	m.mu.Lock()
	r, ok := m.regions[rk]
	if !ok {
		r = NewRegion()
		m.regions[rk] = r
	}
	r.PutChunk(rx, ry, c)
	m.mu.Unlock()

	base := c
	if base == nil {
		base = m.defaultChunk
	}
	m.shardFor(chunkKey).Rehydrate(chunkKey, base)
}

// PutRegion publishes every present chunk of a region built offline under
// regionKey, replacing whatever the table held there. r must not be mutated
// afterwards.
func (m *WorldMap) PutRegion(regionKey Pos, r *Region) {
	m.mu.Lock()
	m.regions[regionKey] = r
	m.mu.Unlock()

	r.ForEachPresent(func(rx, ry int, c *Chunk) bool {
		key := NewPos(regionKey.X()<<RegionShift|int32(rx), regionKey.Y()<<RegionShift|int32(ry), regionKey.Z())
		m.shardFor(key).Rehydrate(key, c)
		return true
	})
}

// ChunkAt returns the published static chunk for chunkKey.
func (m *WorldMap) ChunkAt(chunkKey Pos) (*Chunk, bool) {
	c := m.staticChunk(chunkKey)
	return c, c != nil
}

// Overrides returns the delta cells of chunkKey keyed by cell index.
func (m *WorldMap) Overrides(chunkKey Pos) map[int]Tile {
	return m.shardFor(chunkKey).Overrides(chunkKey)
}

// LoadedChunkKeys lists every present static chunk, sorted by z, y, x.
func (m *WorldMap) LoadedChunkKeys() []Pos {
	m.mu.RLock()
	keys := make([]Pos, 0, len(m.regions))
	for rk, r := range m.regions {
		r.ForEachPresent(func(rx, ry int, _ *Chunk) bool {
			keys = append(keys, NewPos(rk.X()<<RegionShift|int32(rx), rk.Y()<<RegionShift|int32(ry), rk.Z()))
			return true
		})
	}
	m.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Z() != b.Z() {
			return a.Z() < b.Z()
		}
		if a.Y() != b.Y() {
			return a.Y() < b.Y()
		}
		return a.X() < b.X()
	})
	return keys
}

type MapStats struct {
	Regions      int `json:"regions"`
	StaticChunks int `json:"static_chunks"`
	DeltaChunks  int `json:"delta_chunks"`
	DeltaTiles   int `json:"delta_tiles"`
}

// Stats walks both layers; each lock is taken on its own.
func (m *WorldMap) Stats() MapStats {
	var st MapStats
	m.mu.RLock()
	st.Regions = len(m.regions)
	for _, r := range m.regions {
		st.StaticChunks += r.PresentCount()
	}
	m.mu.RUnlock()

	for i := range m.shards {
		ss := m.shards[i].Stats()
		st.DeltaChunks += ss.Chunks
		st.DeltaTiles += ss.Tiles
	}
	return st
}
